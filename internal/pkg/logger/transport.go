package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"time"
)

const bodyLogLimit = 1000

var sensitiveQueryKeys = []string{"api_key", "token", "access_token", "client_secret"}

// HTTPTransport 记录出站 HTTP 请求（ES、社交平台、抓取服务），屏蔽鉴权信息
type HTTPTransport struct {
	Transport http.RoundTripper
	Name      string
	LogBody   bool
}

func NewHTTPTransport(name string, logBody bool) *HTTPTransport {
	return &HTTPTransport{Transport: http.DefaultTransport, Name: name, LogBody: logBody}
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if t.LogBody && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("client", t.Name),
		log.String("method", req.Method),
		log.String("url", redactURL(req.URL)),
		log.Duration("latency", elapsed),
	}
	if t.LogBody {
		fields = append(fields, log.String("req_body", truncate(string(reqBody))))
	}

	if err != nil {
		log.ErrorContext(req.Context(), "HTTP_OUTBOUND_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	fields = append(fields, log.Int("status", resp.StatusCode))
	if t.LogBody && resp.Body != nil {
		resBody, _ := io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewBuffer(resBody))
		fields = append(fields, log.String("res_body", truncate(string(resBody))))
	}

	switch {
	case resp.StatusCode >= 400:
		log.WarnContext(req.Context(), "HTTP_OUTBOUND_FAIL", fields...)
	case elapsed > 2*time.Second:
		log.WarnContext(req.Context(), "HTTP_OUTBOUND_SLOW", fields...)
	default:
		log.InfoContext(req.Context(), "HTTP_OUTBOUND", fields...)
	}
	return resp, nil
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, key := range sensitiveQueryKeys {
		if q.Has(key) {
			q.Set(key, "[PROTECTED]")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

func truncate(s string) string {
	if len(s) > bodyLogLimit {
		return s[:bodyLogLimit] + "...[truncated]"
	}
	return s
}
