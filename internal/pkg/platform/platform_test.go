package platform

import (
	"BuzzDaddy/internal/api/config"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastHTTP = config.HTTPClientConfig{TimeoutSeconds: 5, RetryCount: 2, RetryWaitMs: 1, RetryMaxWaitMs: 5}

func jsonServer(h http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
}

func TestTwitterSearch(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, `"social listening" -is:retweet -is:reply lang:en`, r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))
		_, _ = io.WriteString(w, `{
			"data":[
				{"id":"1","text":"need a social listening tool","author_id":"u1","created_at":"2026-10-01T10:00:00Z"},
				{"id":"2","text":"another one","author_id":"u2","created_at":"bad"}
			],
			"includes":{"users":[{"id":"u1","username":"alice","name":"Alice"}]}
		}`)
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, BearerToken: "app-token", HTTP: fastHTTP})
	res, err := c.Search(context.Background(), SearchQuery{Keyword: "social listening", Limit: 5, Language: "en"})
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, "1", res.Posts[0].ExternalID)
	assert.Equal(t, "alice", res.Posts[0].Author)
	assert.Equal(t, "https://x.com/alice/status/1", res.Posts[0].URL)
	require.NotNil(t, res.Posts[0].PublishedAt)
	assert.Nil(t, res.Posts[1].PublishedAt)
	assert.Equal(t, "https://x.com/i/web/status/2", res.Posts[1].URL)
	assert.NotEmpty(t, res.Raw)
}

func TestTwitterSearchWithoutToken(t *testing.T) {
	c := NewTwitterClient(config.TwitterConfig{APIBase: "http://127.0.0.1:1"})
	_, err := c.Search(context.Background(), SearchQuery{Keyword: "x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestTwitterPublish(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		var body struct {
			Text  string `json:"text"`
			Reply struct {
				InReplyTo string `json:"in_reply_to_tweet_id"`
			} `json:"reply"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Text)
		assert.Equal(t, "42", body.Reply.InReplyTo)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"99","text":"hello"}}`)
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, HTTP: fastHTTP})
	res, err := c.Publish(context.Background(), "user-token", &PublishRequest{TargetID: "42", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "99", res.ExternalID)
}

func TestRateLimitRetriesThenFails(t *testing.T) {
	var calls int32
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"title":"Too Many Requests"}`)
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, HTTP: fastHTTP})
	_, err := c.Publish(context.Background(), "tok", &PublishRequest{TargetID: "1", Content: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitRecovers(t *testing.T) {
	var calls int32
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"u1","username":"alice"}}`)
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, HTTP: fastHTTP})
	p, err := c.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "alice", p.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestServerErrorNotRetriedForPost(t *testing.T) {
	var calls int32
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, HTTP: fastHTTP})
	_, err := c.Publish(context.Background(), "tok", &PublishRequest{TargetID: "1", Content: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAPIErrorBodyKeepsWholeCharacters(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "x"+strings.Repeat("重复内容", 200))
	}))
	defer srv.Close()

	c := NewTwitterClient(config.TwitterConfig{APIBase: srv.URL, HTTP: fastHTTP})
	_, err := c.Publish(context.Background(), "tok", &PublishRequest{TargetID: "1", Content: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.True(t, utf8.ValidString(apiErr.Body))
	assert.Equal(t, maxErrorBody, utf8.RuneCountInString(apiErr.Body))
}

func TestRedditSearch(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "buzz-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "crm", r.URL.Query().Get("q"))
		_, _ = io.WriteString(w, `{"data":{"children":[
			{"kind":"t3","data":{"id":"abc","name":"t3_abc","title":"Best CRM?","selftext":"for a tiny team","author":"bob","permalink":"/r/smallbusiness/comments/abc/best_crm/","created_utc":1760000000}},
			{"kind":"t3","data":{"id":"nsfw","name":"t3_nsfw","title":"x","over_18":true}},
			{"kind":"t5","data":{"id":"sub"}}
		]}}`)
	}))
	defer srv.Close()

	c := NewRedditClient(config.RedditConfig{SearchBase: srv.URL, OAuthBase: srv.URL, UserAgent: "buzz-test/1.0", HTTP: fastHTTP})
	res, err := c.Search(context.Background(), SearchQuery{Keyword: "crm", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	p := res.Posts[0]
	assert.Equal(t, "t3_abc", p.ExternalID)
	assert.Equal(t, "https://www.reddit.com/r/smallbusiness/comments/abc/best_crm/", p.URL)
	assert.Equal(t, "Best CRM?\n\nfor a tiny team", p.Content)
	assert.Equal(t, "crm", p.Keyword)
}

func TestRedditPublish(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comment", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "t3_abc", r.PostForm.Get("thing_id"))
		assert.Equal(t, "json", r.PostForm.Get("api_type"))
		if r.PostForm.Get("text") == "spam" {
			_, _ = io.WriteString(w, `{"json":{"errors":[["RATELIMIT","you are doing that too much","ratelimit"]]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"json":{"errors":[],"data":{"things":[{"kind":"t1","data":{"id":"c1","name":"t1_c1","permalink":"/r/x/comments/abc/_/c1/"}}]}}}`)
	}))
	defer srv.Close()

	c := NewRedditClient(config.RedditConfig{SearchBase: srv.URL, OAuthBase: srv.URL, HTTP: fastHTTP})
	res, err := c.Publish(context.Background(), "tok", &PublishRequest{TargetID: "t3_abc", Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "t1_c1", res.ExternalID)
	assert.Equal(t, "https://www.reddit.com/r/x/comments/abc/_/c1/", res.URL)

	_, err = c.Publish(context.Background(), "tok", &PublishRequest{TargetID: "t3_abc", Content: "spam"})
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestSerpAPISearch(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, `site:linkedin.com/posts "sales tools"`, r.URL.Query().Get("q"))
		_, _ = io.WriteString(w, `{"organic_results":[
			{"title":"Jane Doe on LinkedIn: sales tools we love","link":"https://www.linkedin.com/posts/janedoe_sales-activity-7123456789012345678-AbCd","snippet":"We tried ..."},
			{"title":"Some company page","link":"https://www.linkedin.com/company/acme","snippet":"nope"}
		]}`)
	}))
	defer srv.Close()

	s := NewSerpAPISearcher(config.SerpAPIConfig{ApiKey: "secret", BaseURL: srv.URL, HTTP: fastHTTP})
	res, err := s.Search(context.Background(), SearchQuery{Keyword: "sales tools"})
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "urn:li:activity:7123456789012345678", res.Posts[0].ExternalID)
	assert.Equal(t, "Jane Doe", res.Posts[0].Author)
	assert.True(t, res.Posts[0].Truncated)
}

func TestLinkedInPublish(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/socialActions/"+url.QueryEscape("urn:li:activity:7123456789012345678")+"/comments", r.URL.EscapedPath())
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"actor":"urn:li:person:p1"`)
		w.Header().Set("X-Restli-Id", "urn:li:comment:(activity:7123456789012345678,555)")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewLinkedInClient(config.LinkedInConfig{APIBase: srv.URL, HTTP: fastHTTP})
	res, err := c.Publish(context.Background(), "tok", &PublishRequest{
		TargetID:  "urn:li:activity:7123456789012345678",
		TargetURL: "https://www.linkedin.com/posts/x",
		AccountID: "p1",
		Content:   "Great post",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ExternalID, "urn:li:comment:"))
	assert.Equal(t, "https://www.linkedin.com/posts/x", res.URL)
}

func TestApifySearch(t *testing.T) {
	srv := jsonServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/acts/apidojo~tweet-scraper/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "apify-token", r.URL.Query().Get("token"))
		_, _ = io.WriteString(w, `[
			{"id":"t1","url":"https://x.com/a/status/t1","text":"hello","author":{"userName":"a"}},
			{"id":"t2","text":""},
			{"postId":12345,"postUrl":"https://x.com/b/status/12345","full_text":"numeric id","username":"b"}
		]`)
	}))
	defer srv.Close()

	s := NewApifySearcher(config.ApifyConfig{
		Token:   "apify-token",
		BaseURL: srv.URL,
		Actors:  map[string]string{"twitter": "apidojo/tweet-scraper"},
		HTTP:    fastHTTP,
	}, "twitter")
	res, err := s.Search(context.Background(), SearchQuery{Keyword: "k", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, "a", res.Posts[0].Author)
	assert.Equal(t, "12345", res.Posts[1].ExternalID)
	assert.Equal(t, "b", res.Posts[1].Author)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Autopilot.SearchProviders = map[string]string{"reddit": "apify", "linkedin": "none"}

	r := NewRegistryFromConfig(cfg)
	s, ok := r.Searcher("twitter")
	require.True(t, ok)
	assert.Equal(t, "twitter", s.Name())
	s, ok = r.Searcher("reddit")
	require.True(t, ok)
	assert.Equal(t, "apify", s.Name())
	_, ok = r.Searcher("linkedin")
	assert.False(t, ok)
	_, ok = r.Publisher("linkedin")
	assert.True(t, ok)
	assert.True(t, Supported("reddit"))
	assert.False(t, Supported("myspace"))
}
