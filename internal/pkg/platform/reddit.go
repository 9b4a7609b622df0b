package platform

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const redditHost = "https://www.reddit.com"

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				ID         string  `json:"id"`
				Name       string  `json:"name"`
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Author     string  `json:"author"`
				Permalink  string  `json:"permalink"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
				Over18     bool    `json:"over_18"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditClient 公共 search.json 搜索，oauth.reddit.com 评论
type RedditClient struct {
	search *resty.Client
	oauth  *resty.Client
}

func NewRedditClient(cfg config.RedditConfig) *RedditClient {
	search := NewClient(model.PlatformReddit, cfg.SearchBase, cfg.HTTP)
	oauth := NewClient(model.PlatformReddit, cfg.OAuthBase, cfg.HTTP)
	if cfg.UserAgent != "" {
		search.SetHeader("User-Agent", cfg.UserAgent)
		oauth.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &RedditClient{search: search, oauth: oauth}
}

func (c *RedditClient) Name() string {
	return model.PlatformReddit
}

// Search 按时间倒序搜索最近一周的帖子，ExternalID 使用 fullname（t3_xxx）以便直接回复
func (c *RedditClient) Search(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var body redditListing
	resp, err := c.search.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query.Keyword,
			"sort":  "new",
			"t":     "week",
			"type":  "link",
			"limit": fmt.Sprint(limit),
		}).
		SetResult(&body).
		Get("/search.json")
	if err := checkResponse(model.PlatformReddit, resp, err); err != nil {
		return nil, err
	}

	posts := make([]*RawPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		if child.Kind != "t3" || d.Over18 {
			continue
		}
		name := d.Name
		if name == "" {
			name = "t3_" + d.ID
		}
		published := time.Unix(int64(d.CreatedUTC), 0).UTC()
		posts = append(posts, &RawPost{
			ExternalID:  name,
			URL:         redditHost + d.Permalink,
			Author:      d.Author,
			Title:       d.Title,
			Content:     strings.TrimSpace(d.Title + "\n\n" + d.Selftext),
			Keyword:     query.Keyword,
			PublishedAt: &published,
		})
	}
	return &SearchResult{Posts: posts, Raw: resp.Body()}, nil
}

// Publish 评论到目标帖子
func (c *RedditClient) Publish(ctx context.Context, accessToken string, req *PublishRequest) (*PublishResult, error) {
	var body struct {
		JSON struct {
			Errors [][]any `json:"errors"`
			Data   struct {
				Things []struct {
					Data struct {
						ID        string `json:"id"`
						Name      string `json:"name"`
						Permalink string `json:"permalink"`
					} `json:"data"`
				} `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	resp, err := c.oauth.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFormData(map[string]string{
			"api_type": "json",
			"thing_id": req.TargetID,
			"text":     req.Content,
		}).
		SetResult(&body).
		Post("/api/comment")
	if err := checkResponse(model.PlatformReddit, resp, err); err != nil {
		return nil, err
	}
	if len(body.JSON.Errors) > 0 || len(body.JSON.Data.Things) == 0 {
		return nil, newAPIError(model.PlatformReddit, resp)
	}

	thing := body.JSON.Data.Things[0].Data
	result := &PublishResult{ExternalID: thing.Name}
	if thing.Permalink != "" {
		result.URL = redditHost + thing.Permalink
	}
	return result, nil
}

func (c *RedditClient) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	resp, err := c.oauth.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&body).
		Get("/api/v1/me")
	if err := checkResponse(model.PlatformReddit, resp, err); err != nil {
		return nil, err
	}
	return &Profile{ID: body.ID, Name: body.Name}, nil
}
