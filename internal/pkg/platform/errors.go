package platform

import (
	"BuzzDaddy/internal/pkg/util"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRateLimited         = errors.New("platform rate limited")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMissingCredentials  = errors.New("platform credentials not configured")
)

const maxErrorBody = 500

// APIError 平台返回的非 2xx 响应
type APIError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status %d: %s", e.Platform, e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// checkResponse 把传输错误和非 2xx 响应统一成 error
func checkResponse(platform string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", platform, err)
	}
	if resp.IsError() {
		return newAPIError(platform, resp)
	}
	return nil
}

// newAPIError 响应体按字符截断后写入错误，最终会落到评论错误和活动日志
func newAPIError(platform string, resp *resty.Response) *APIError {
	return &APIError{Platform: platform, StatusCode: resp.StatusCode(), Body: util.TruncateRunes(resp.String(), maxErrorBody)}
}
