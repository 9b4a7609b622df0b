package platform

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/logger"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 10 * time.Second
	defaultUserAgent    = "BuzzDaddy/1.0"
)

// NewClient 各平台共用的 resty 客户端：429 总是重试，5xx 只对 GET 重试，避免重复发布
func NewClient(name string, baseURL string, cfg config.HTTPClientConfig) *resty.Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	wait := defaultRetryWait
	if cfg.RetryWaitMs > 0 {
		wait = time.Duration(cfg.RetryWaitMs) * time.Millisecond
	}
	maxWait := defaultRetryMaxWait
	if cfg.RetryMaxWaitMs > 0 {
		maxWait = time.Duration(cfg.RetryMaxWaitMs) * time.Millisecond
	}

	client := resty.NewWithClient(&http.Client{
		Transport: logger.NewHTTPTransport(name, false),
	})
	client.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetRetryCount(max(cfg.RetryCount, 0)).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry)
	return client
}

func shouldRetry(resp *resty.Response, err error) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError && resp.Request != nil && resp.Request.Method == http.MethodGet
}

// retryAfter 读取 Retry-After 秒数，返回 0 时 resty 退回指数退避
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil {
		return 0, nil
	}
	return parseRetryAfter(resp.Header().Get("Retry-After"), time.Now()), nil
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
