package redis

import (
	"BuzzDaddy/internal/pkg/consts"
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RunLocker 基于 SETNX 的流水线互斥锁
type RunLocker struct{}

func NewRunLocker() *RunLocker {
	return &RunLocker{}
}

// Lock 获取锁，返回的 unlock 只释放本次持有的锁
func (s *RunLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	fullKey := consts.AutopilotRunLock + key
	lockUUID := uuid.NewString()
	ok, err := TryLock(ctx, fullKey, lockUUID, ttl, 0)
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		UnLock(context.WithoutCancel(ctx), fullKey, lockUUID)
	}, true, nil
}

// RateLimiter 各平台固定窗口限流
type RateLimiter struct {
	limits map[string]int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(limits map[string]int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{limits: limits, window: window, now: time.Now}
}

// Allow 占用一个调用名额，未配置限额的平台不限流
func (s *RateLimiter) Allow(ctx context.Context, platform string) (bool, error) {
	limit, ok := s.limits[platform]
	if !ok || limit <= 0 {
		return true, nil
	}
	slot := s.now().UnixNano() / int64(s.window)
	key := consts.PlatformRateLimitKey + platform + ":" + strconv.FormatInt(slot, 10)
	count, err := IncrWithExpire(ctx, key, s.window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

// SeenFilter 记录近期已处理过的外部帖子 ID，避免重复调用 LLM
// 每个 ID 以处理时间为 score 存入有序集合，超过 ttl 的 ID 单独过期
type SeenFilter struct {
	ttl time.Duration
	now func() time.Time
}

func NewSeenFilter(ttl time.Duration) *SeenFilter {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SeenFilter{ttl: ttl, now: time.Now}
}

func seenKey(campaignID uint64, platform string) string {
	return consts.SeenPostKey + strconv.FormatUint(campaignID, 10) + ":" + platform
}

// Unseen 过滤出尚未见过或已过期的 ID
func (s *SeenFilter) Unseen(ctx context.Context, campaignID uint64, platform string, ids []string) ([]string, error) {
	scores, err := ZMScore(ctx, seenKey(campaignID, platform), ids)
	if err != nil {
		return nil, err
	}
	cutoff := float64(s.now().Add(-s.ttl).Unix())
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		if i < len(scores) && scores[i] > 0 && scores[i] >= cutoff {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *SeenFilter) MarkSeen(ctx context.Context, campaignID uint64, platform string, ids []string) error {
	now := s.now()
	return ZAddAndTrim(ctx, seenKey(campaignID, platform), ids,
		float64(now.Unix()), float64(now.Add(-s.ttl).Unix()), s.ttl)
}

// StateStore OAuth state 一次性存储
type StateStore struct{}

func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) Save(ctx context.Context, state string, payload string, ttl time.Duration) error {
	return SetWithExpiration(ctx, consts.OAuthStateKey+state, payload, ttl)
}

func (s *StateStore) Take(ctx context.Context, state string) (string, error) {
	return GetDel(ctx, consts.OAuthStateKey+state)
}
