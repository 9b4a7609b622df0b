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

type twitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type twitterSearchResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
}

// TwitterClient X/Twitter v2 API：应用 bearer 搜索，用户 token 回复
type TwitterClient struct {
	client      *resty.Client
	bearerToken string
}

func NewTwitterClient(cfg config.TwitterConfig) *TwitterClient {
	return &TwitterClient{
		client:      NewClient(model.PlatformTwitter, cfg.APIBase, cfg.HTTP),
		bearerToken: cfg.BearerToken,
	}
}

func (c *TwitterClient) Name() string {
	return model.PlatformTwitter
}

// Search 最近 7 天推文搜索，排除转推和回复
func (c *TwitterClient) Search(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	if c.bearerToken == "" {
		return nil, ErrMissingCredentials
	}

	q := fmt.Sprintf("%s -is:retweet -is:reply", quoteKeyword(query.Keyword))
	if query.Language != "" {
		q += " lang:" + query.Language
	}

	var body twitterSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.bearerToken).
		SetQueryParams(map[string]string{
			"query":        q,
			"max_results":  fmt.Sprint(max(10, min(100, query.Limit))),
			"tweet.fields": "created_at,author_id,lang",
			"expansions":   "author_id",
			"user.fields":  "username,name",
		}).
		SetResult(&body).
		Get("/2/tweets/search/recent")
	if err := checkResponse(model.PlatformTwitter, resp, err); err != nil {
		return nil, err
	}

	users := make(map[string]twitterUser, len(body.Includes.Users))
	for _, u := range body.Includes.Users {
		users[u.ID] = u
	}

	posts := make([]*RawPost, 0, len(body.Data))
	for _, t := range body.Data {
		username := users[t.AuthorID].Username
		post := &RawPost{
			ExternalID: t.ID,
			URL:        tweetURL(username, t.ID),
			Author:     username,
			Content:    t.Text,
			Keyword:    query.Keyword,
		}
		if at, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			post.PublishedAt = &at
		}
		posts = append(posts, post)
		if query.Limit > 0 && len(posts) >= query.Limit {
			break
		}
	}
	return &SearchResult{Posts: posts, Raw: resp.Body()}, nil
}

// Publish 以回复形式发推
func (c *TwitterClient) Publish(ctx context.Context, accessToken string, req *PublishRequest) (*PublishResult, error) {
	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]any{
			"text": req.Content,
			"reply": map[string]string{
				"in_reply_to_tweet_id": req.TargetID,
			},
		}).
		SetResult(&body).
		Post("/2/tweets")
	if err := checkResponse(model.PlatformTwitter, resp, err); err != nil {
		return nil, err
	}
	if body.Data.ID == "" {
		return nil, newAPIError(model.PlatformTwitter, resp)
	}
	return &PublishResult{ExternalID: body.Data.ID, URL: tweetURL("", body.Data.ID)}, nil
}

func (c *TwitterClient) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var body struct {
		Data twitterUser `json:"data"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&body).
		Get("/2/users/me")
	if err := checkResponse(model.PlatformTwitter, resp, err); err != nil {
		return nil, err
	}
	return &Profile{ID: body.Data.ID, Name: body.Data.Username}, nil
}

func tweetURL(username, id string) string {
	if username == "" {
		return "https://x.com/i/web/status/" + id
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", username, id)
}

func quoteKeyword(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if strings.ContainsAny(keyword, " \t") && !strings.HasPrefix(keyword, `"`) {
		return `"` + keyword + `"`
	}
	return keyword
}
