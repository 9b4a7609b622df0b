package platform

import (
	"BuzzDaddy/internal/api/config"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// SerpAPISearcher 通过 Google 搜索 site:linkedin.com/posts 找 LinkedIn 帖子
type SerpAPISearcher struct {
	client *resty.Client
	apiKey string
}

func NewSerpAPISearcher(cfg config.SerpAPIConfig) *SerpAPISearcher {
	return &SerpAPISearcher{
		client: NewClient("serpapi", cfg.BaseURL, cfg.HTTP),
		apiKey: cfg.ApiKey,
	}
}

func (s *SerpAPISearcher) Name() string {
	return "serpapi"
}

func (s *SerpAPISearcher) Search(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	if s.apiKey == "" {
		return nil, ErrMissingCredentials
	}
	num := query.Limit
	if num <= 0 || num > 100 {
		num = 20
	}

	params := map[string]string{
		"engine":  "google",
		"q":       fmt.Sprintf("site:linkedin.com/posts %s", quoteKeyword(query.Keyword)),
		"num":     fmt.Sprint(num),
		"tbs":     "qdr:w",
		"api_key": s.apiKey,
	}
	if query.Language != "" {
		params["hl"] = query.Language
	}

	var body serpAPIResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("/search.json")
	if err := checkResponse("serpapi", resp, err); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, &APIError{Platform: "serpapi", StatusCode: resp.StatusCode(), Body: body.Error}
	}

	posts := make([]*RawPost, 0, len(body.OrganicResults))
	for _, r := range body.OrganicResults {
		urn := LinkedInActivityURN(r.Link)
		if urn == "" {
			continue
		}
		posts = append(posts, &RawPost{
			ExternalID: urn,
			URL:        r.Link,
			Author:     linkedInAuthor(r.Title),
			Title:      r.Title,
			Content:    r.Snippet,
			Keyword:    query.Keyword,
			Truncated:  true,
		})
	}
	return &SearchResult{Posts: posts, Raw: resp.Body()}, nil
}
