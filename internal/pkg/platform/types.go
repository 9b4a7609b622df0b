package platform

import (
	"context"
	"time"
)

// SearchQuery 单个关键词的搜索条件
type SearchQuery struct {
	Keyword  string
	Limit    int
	Language string
}

// RawPost 平台搜索结果的统一形态
type RawPost struct {
	ExternalID  string
	URL         string
	Author      string
	Title       string
	Content     string
	Keyword     string
	PublishedAt *time.Time
	// Truncated 为 true 表示 Content 只是摘要，需要抓取补全
	Truncated bool
}

type SearchResult struct {
	Posts []*RawPost
	// Raw 原始响应体，用于归档
	Raw []byte
}

// PublishRequest 回复目标与内容
type PublishRequest struct {
	TargetID  string
	TargetURL string
	AccountID string
	Content   string
}

type PublishResult struct {
	ExternalID string
	URL        string
}

// Profile 授权账号信息
type Profile struct {
	ID   string
	Name string
}

type Searcher interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, accessToken string, req *PublishRequest) (*PublishResult, error)
}

type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (*Profile, error)
}
