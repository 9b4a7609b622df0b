package platform

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// ApifySearcher 运行 Apify actor 并同步取回数据集，字段名因 actor 而异
type ApifySearcher struct {
	client   *resty.Client
	token    string
	actor    string
	platform string
}

func NewApifySearcher(cfg config.ApifyConfig, platform string) *ApifySearcher {
	return &ApifySearcher{
		client:   NewClient("apify", cfg.BaseURL, cfg.HTTP),
		token:    cfg.Token,
		actor:    cfg.Actors[platform],
		platform: platform,
	}
}

func (s *ApifySearcher) Name() string {
	return "apify"
}

func (s *ApifySearcher) Search(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	if s.token == "" || s.actor == "" {
		return nil, ErrMissingCredentials
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("token", s.token).
		SetPathParam("actor", strings.ReplaceAll(s.actor, "/", "~")).
		SetBody(map[string]any{
			"searchTerms": []string{query.Keyword},
			"maxItems":    limit,
			"sort":        "Latest",
		}).
		Post("/v2/acts/{actor}/run-sync-get-dataset-items")
	if err := checkResponse("apify", resp, err); err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("apify dataset decode: %w", err)
	}

	posts := make([]*RawPost, 0, len(items))
	for _, item := range items {
		post := s.toRawPost(item)
		if post == nil {
			continue
		}
		post.Keyword = query.Keyword
		posts = append(posts, post)
		if len(posts) >= limit {
			break
		}
	}
	return &SearchResult{Posts: posts, Raw: resp.Body()}, nil
}

func (s *ApifySearcher) toRawPost(item map[string]any) *RawPost {
	link := firstString(item, "url", "postUrl", "link", "twitterUrl")
	id := firstString(item, "id", "postId", "urn", "name")
	if s.platform == model.PlatformLinkedIn {
		if urn := LinkedInActivityURN(link); urn != "" {
			id = urn
		}
	}
	content := firstString(item, "text", "full_text", "content", "body", "selftext")
	if id == "" || content == "" {
		return nil
	}

	author := firstString(item, "username", "authorName")
	if author == "" {
		switch a := item["author"].(type) {
		case string:
			author = a
		case map[string]any:
			author = firstString(a, "userName", "username", "name")
		}
	}

	return &RawPost{
		ExternalID: id,
		URL:        link,
		Author:     author,
		Title:      firstString(item, "title"),
		Content:    content,
	}
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
