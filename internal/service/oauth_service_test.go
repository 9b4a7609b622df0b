package service

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/pkg/security"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProfile struct{}

func (fakeProfile) Profile(_ context.Context, accessToken string) (*platform.Profile, error) {
	return &platform.Profile{ID: "u-" + accessToken, Name: "Buzz Bot"}, nil
}

// tokenServer 模拟授权服务器的 token 端点
type tokenServer struct {
	mu    sync.Mutex
	forms []url.Values
	count int
}

func (ts *tokenServer) handler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	ts.mu.Lock()
	ts.forms = append(ts.forms, r.PostForm)
	ts.count++
	n := ts.count
	ts.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("code") == "bad" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	access := "at-" + string(rune('0'+n))
	_, _ = w.Write([]byte(`{"access_token":"` + access + `","refresh_token":"rt-1","token_type":"bearer","expires_in":3600,"scope":"tweet.read tweet.write"}`))
}

func newOAuthFixture(t *testing.T) (OAuthService, *testRepos, *gorm.DB, *tokenServer) {
	ts := &tokenServer{}
	server := httptest.NewServer(http.HandlerFunc(ts.handler))
	t.Cleanup(server.Close)

	db := newTestDB(t)
	repos := newTestRepos(db)
	cipher, err := security.NewTokenCipher(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32))))
	require.NoError(t, err)

	registry := platform.NewRegistry()
	registry.RegisterProfile(model.PlatformTwitter, fakeProfile{})

	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "https://app.buzzdaddy.io/"},
		Twitter: config.TwitterConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			AuthURL:      "https://twitter.com/i/oauth2/authorize",
			TokenURL:     server.URL + "/token",
		},
		Security: config.SecurityConfig{StateTTLMin: 5},
	}
	return NewOAuthService(cfg, repos.token, registry, cipher, &memoryStates{}), repos, db, ts
}

func TestOAuthService_ConnectFlow(t *testing.T) {
	svc, repos, db, ts := newOAuthFixture(t)
	ctx := context.Background()

	authURL, err := svc.AuthURL(ctx, 42, model.PlatformTwitter)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "https://app.buzzdaddy.io/api/oauth/twitter/callback", query.Get("redirect_uri"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Contains(t, query.Get("scope"), "tweet.write")
	state := query.Get("state")
	require.NotEmpty(t, state)

	account, err := svc.Callback(ctx, model.PlatformTwitter, "good", state)
	require.NoError(t, err)
	assert.Equal(t, "u-at-1", account.AccountID)
	assert.Equal(t, "Buzz Bot", account.AccountName)
	assert.Equal(t, "tweet.read tweet.write", account.Scope)

	require.Len(t, ts.forms, 1)
	assert.Equal(t, "authorization_code", ts.forms[0].Get("grant_type"))
	assert.NotEmpty(t, ts.forms[0].Get("code_verifier"))

	stored, err := repos.token.GetToken(ctx, 42, model.PlatformTwitter)
	require.NoError(t, err)
	assert.NotEqual(t, "at-1", stored.AccessToken)
	assert.NotEqual(t, "rt-1", stored.RefreshToken)

	token, accountID, err := svc.AccessToken(ctx, 42, model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, "at-1", token)
	assert.Equal(t, "u-at-1", accountID)

	_, err = svc.Callback(ctx, model.PlatformTwitter, "good", state)
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)

	// 过期后用 refresh token 刷新并回写
	require.NoError(t, db.Model(&model.OAuthToken{}).
		Where("user_id = ? AND platform = ?", 42, model.PlatformTwitter).
		Update("expiry", time.Now().Add(-time.Hour)).Error)

	token, _, err = svc.AccessToken(ctx, 42, model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)
	require.Len(t, ts.forms, 2)
	assert.Equal(t, "refresh_token", ts.forms[1].Get("grant_type"))

	token, _, err = svc.AccessToken(ctx, 42, model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, "at-2", token)
	assert.Len(t, ts.forms, 2)

	accounts, err := svc.ListAccounts(ctx, 42)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, model.PlatformTwitter, accounts[0].Platform)

	require.NoError(t, svc.Disconnect(ctx, 42, model.PlatformTwitter))
	assert.ErrorIs(t, svc.Disconnect(ctx, 42, model.PlatformTwitter), ErrPlatformNotConnected)

	_, _, err = svc.AccessToken(ctx, 42, model.PlatformTwitter)
	assert.ErrorIs(t, err, ErrPlatformNotConnected)
}

func TestOAuthService_Errors(t *testing.T) {
	svc, _, _, _ := newOAuthFixture(t)
	ctx := context.Background()

	_, err := svc.AuthURL(ctx, 1, "myspace")
	assert.ErrorIs(t, err, ErrPlatformUnsupported)

	_, err = svc.AuthURL(ctx, 1, model.PlatformReddit)
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, err = svc.Callback(ctx, model.PlatformTwitter, "good", "unknown-state")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)

	authURL, err := svc.AuthURL(ctx, 1, model.PlatformTwitter)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	_, err = svc.Callback(ctx, model.PlatformTwitter, "bad", parsed.Query().Get("state"))
	assert.ErrorIs(t, err, ErrOAuthExchangeFailed)
}
