package platform

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
)

var linkedInActivityPattern = regexp.MustCompile(`activity[-:](\d{10,})`)

// LinkedInClient LinkedIn 没有公开搜索接口，只负责评论与账号信息
type LinkedInClient struct {
	client *resty.Client
}

func NewLinkedInClient(cfg config.LinkedInConfig) *LinkedInClient {
	client := NewClient(model.PlatformLinkedIn, cfg.APIBase, cfg.HTTP)
	client.SetHeader("X-Restli-Protocol-Version", "2.0.0")
	return &LinkedInClient{client: client}
}

// Publish 以授权成员身份在帖子下评论
func (c *LinkedInClient) Publish(ctx context.Context, accessToken string, req *PublishRequest) (*PublishResult, error) {
	var body struct {
		ID  string `json:"id"`
		URN string `json:"$URN"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetRawPathParam("urn", url.QueryEscape(req.TargetID)).
		SetBody(map[string]any{
			"actor":   "urn:li:person:" + req.AccountID,
			"object":  req.TargetID,
			"message": map[string]string{"text": req.Content},
		}).
		SetResult(&body).
		Post("/v2/socialActions/{urn}/comments")
	if err := checkResponse(model.PlatformLinkedIn, resp, err); err != nil {
		return nil, err
	}

	id := body.URN
	if id == "" {
		id = body.ID
	}
	if id == "" {
		id = resp.Header().Get("X-Restli-Id")
	}
	return &PublishResult{ExternalID: id, URL: req.TargetURL}, nil
}

// Profile OpenID userinfo，sub 即成员 id
func (c *LinkedInClient) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var body struct {
		Sub  string `json:"sub"`
		Name string `json:"name"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&body).
		Get("/v2/userinfo")
	if err := checkResponse(model.PlatformLinkedIn, resp, err); err != nil {
		return nil, err
	}
	return &Profile{ID: body.Sub, Name: body.Name}, nil
}

// LinkedInActivityURN 从帖子链接中解析 urn:li:activity:xxx
func LinkedInActivityURN(link string) string {
	if u, err := url.PathUnescape(link); err == nil {
		link = u
	}
	m := linkedInActivityPattern.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return "urn:li:activity:" + m[1]
}

// linkedInAuthor 从 "Jane Doe on LinkedIn: ..." 这类标题里取作者
func linkedInAuthor(title string) string {
	if i := strings.Index(title, " on LinkedIn"); i > 0 {
		return strings.TrimSpace(title[:i])
	}
	if i := strings.Index(title, " | "); i > 0 {
		return strings.TrimSpace(title[:i])
	}
	return ""
}
