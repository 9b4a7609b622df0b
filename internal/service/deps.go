package service

import (
	"BuzzDaddy/internal/pkg/es"
	"BuzzDaddy/internal/pkg/scraper"
	"context"
	"time"
)

// RunLocker 流水线互斥锁
type RunLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

// RateLimiter 平台调用限流
type RateLimiter interface {
	Allow(ctx context.Context, platform string) (bool, error)
}

// SeenFilter 近期已交给 LLM 的外部帖子
type SeenFilter interface {
	Unseen(ctx context.Context, campaignID uint64, platform string, ids []string) ([]string, error)
	MarkSeen(ctx context.Context, campaignID uint64, platform string, ids []string) error
}

// StateStore OAuth state 存取，Take 后即失效
type StateStore interface {
	Save(ctx context.Context, state string, payload string, ttl time.Duration) error
	Take(ctx context.Context, state string) (string, error)
}

// RawArchiver 原始搜索响应归档
type RawArchiver interface {
	Archive(ctx context.Context, campaignID uint64, platform string, payload []byte) (string, error)
}

// PageFetcher 抓取帖子原文
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scraper.Page, error)
}

// TokenProvider 获取可用的平台访问令牌
type TokenProvider interface {
	AccessToken(ctx context.Context, userID uint64, platform string) (token string, accountID string, err error)
}

// AutopilotDeps 流水线的可选外部依赖，nil 表示未启用
type AutopilotDeps struct {
	Locker   RunLocker
	Limiter  RateLimiter
	Seen     SeenFilter
	Archiver RawArchiver
	Fetcher  PageFetcher
	Indexer  es.PostRepo
	Tokens   TokenProvider
	Notifier NotifyService
}
