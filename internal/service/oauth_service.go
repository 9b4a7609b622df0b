package service

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/logger"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	defaultStateTTL = 10 * time.Minute
	oauthTimeout    = 20 * time.Second
)

// TokenCipher 令牌加解密
type TokenCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(encoded string) (string, error)
}

type OAuthService interface {
	AuthURL(ctx context.Context, userID uint64, platform string) (string, error)
	Callback(ctx context.Context, platform, code, state string) (*dto.AccountDTO, error)
	AccessToken(ctx context.Context, userID uint64, platform string) (string, string, error)
	ListAccounts(ctx context.Context, userID uint64) ([]*dto.AccountDTO, error)
	Disconnect(ctx context.Context, userID uint64, platform string) error
}

// oauthProvider 单个平台的授权配置
type oauthProvider struct {
	config     *oauth2.Config
	pkce       bool
	authParams []oauth2.AuthCodeOption
}

type oauthState struct {
	UserID   uint64 `json:"user_id"`
	Platform string `json:"platform"`
	Verifier string `json:"verifier,omitempty"`
}

type oauthServiceImpl struct {
	providers  map[string]*oauthProvider
	tokenRepo  repository.OAuthTokenRepo
	registry   *platform.Registry
	cipher     TokenCipher
	states     StateStore
	stateTTL   time.Duration
	httpClient *http.Client
}

func NewOAuthService(
	cfg *config.Config,
	tokenRepo repository.OAuthTokenRepo,
	registry *platform.Registry,
	cipher TokenCipher,
	states StateStore,
) OAuthService {
	stateTTL := time.Duration(cfg.Security.StateTTLMin) * time.Minute
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	return &oauthServiceImpl{
		providers: newOAuthProviders(cfg),
		tokenRepo: tokenRepo,
		registry:  registry,
		cipher:    cipher,
		states:    states,
		stateTTL:  stateTTL,
		httpClient: &http.Client{
			Timeout:   oauthTimeout,
			Transport: logger.NewHTTPTransport("oauth", false),
		},
	}
}

// newOAuthProviders 未配置 client_id 的平台不开放授权
func newOAuthProviders(cfg *config.Config) map[string]*oauthProvider {
	redirect := func(name string) string {
		return strings.TrimRight(cfg.Server.PublicURL, "/") + "/api/oauth/" + name + "/callback"
	}

	providers := make(map[string]*oauthProvider)
	if cfg.Twitter.ClientID != "" {
		providers[model.PlatformTwitter] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Twitter.ClientID,
				ClientSecret: cfg.Twitter.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:   cfg.Twitter.AuthURL,
					TokenURL:  cfg.Twitter.TokenURL,
					AuthStyle: oauth2.AuthStyleInHeader,
				},
				RedirectURL: redirect(model.PlatformTwitter),
				Scopes:      []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			},
			pkce: true,
		}
	}
	if cfg.Reddit.ClientID != "" {
		providers[model.PlatformReddit] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Reddit.ClientID,
				ClientSecret: cfg.Reddit.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:   cfg.Reddit.AuthURL,
					TokenURL:  cfg.Reddit.TokenURL,
					AuthStyle: oauth2.AuthStyleInHeader,
				},
				RedirectURL: redirect(model.PlatformReddit),
				Scopes:      []string{"identity", "submit", "read"},
			},
			authParams: []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("duration", "permanent")},
		}
	}
	if cfg.LinkedIn.ClientID != "" {
		providers[model.PlatformLinkedIn] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.LinkedIn.ClientID,
				ClientSecret: cfg.LinkedIn.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:   cfg.LinkedIn.AuthURL,
					TokenURL:  cfg.LinkedIn.TokenURL,
					AuthStyle: oauth2.AuthStyleInParams,
				},
				RedirectURL: redirect(model.PlatformLinkedIn),
				Scopes:      []string{"openid", "profile", "w_member_social"},
			},
		}
	}
	return providers
}

// AuthURL 生成授权跳转地址，state 存 Redis，Twitter 额外带 PKCE
func (s *oauthServiceImpl) AuthURL(ctx context.Context, userID uint64, platformName string) (string, error) {
	provider, err := s.provider(platformName)
	if err != nil {
		return "", err
	}

	payload := &oauthState{UserID: userID, Platform: platformName}
	opts := append([]oauth2.AuthCodeOption{}, provider.authParams...)
	if provider.pkce {
		payload.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(payload.Verifier))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", UnExpectedError
	}

	state := uuid.NewString()
	if err = s.states.Save(ctx, state, string(raw), s.stateTTL); err != nil {
		log.ErrorContext(ctx, "failed to save oauth state", "platform", platformName, "err", err)
		return "", UnExpectedError
	}
	return provider.config.AuthCodeURL(state, opts...), nil
}

// Callback 校验 state，换取令牌并加密保存
func (s *oauthServiceImpl) Callback(ctx context.Context, platformName, code, state string) (*dto.AccountDTO, error) {
	provider, err := s.provider(platformName)
	if err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, ErrOAuthStateInvalid
	}

	raw, err := s.states.Take(ctx, state)
	if err != nil {
		log.ErrorContext(ctx, "failed to read oauth state", "platform", platformName, "err", err)
		return nil, UnExpectedError
	}
	if raw == "" {
		return nil, ErrOAuthStateInvalid
	}
	var payload oauthState
	if err = json.Unmarshal([]byte(raw), &payload); err != nil || payload.Platform != platformName || payload.UserID == 0 {
		return nil, ErrOAuthStateInvalid
	}

	var opts []oauth2.AuthCodeOption
	if payload.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(payload.Verifier))
	}
	token, err := provider.config.Exchange(s.clientCtx(ctx), code, opts...)
	if err != nil {
		log.WarnContext(ctx, "oauth code exchange failed", "platform", platformName, "user_id", payload.UserID, "err", err)
		return nil, ErrOAuthExchangeFailed
	}

	record := &model.OAuthToken{
		UserID:    payload.UserID,
		Platform:  platformName,
		TokenType: token.TokenType,
		Expiry:    token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		record.Scope = scope
	}
	if fetcher, ok := s.registry.Profile(platformName); ok {
		profile, err := fetcher.Profile(ctx, token.AccessToken)
		if err != nil {
			log.WarnContext(ctx, "failed to fetch platform profile", "platform", platformName, "user_id", payload.UserID, "err", err)
			return nil, ErrOAuthExchangeFailed
		}
		record.AccountID = profile.ID
		record.AccountName = profile.Name
	}

	if err = s.sealToken(record, token); err != nil {
		log.ErrorContext(ctx, "failed to encrypt oauth token", "platform", platformName, "err", err)
		return nil, UnExpectedError
	}
	if err = s.tokenRepo.UpsertToken(ctx, record); err != nil {
		log.ErrorContext(ctx, "failed to save oauth token", "platform", platformName, "user_id", payload.UserID, "err", err)
		return nil, UnExpectedError
	}
	log.InfoContext(ctx, "platform account connected", "platform", platformName, "user_id", payload.UserID, "account_id", record.AccountID)

	account := &dto.AccountDTO{}
	_ = copier.Copy(account, record)
	account.UpdatedAt = time.Now()
	return account, nil
}

// AccessToken 返回可用的访问令牌与账号 ID，过期时用 refresh token 刷新并回写
func (s *oauthServiceImpl) AccessToken(ctx context.Context, userID uint64, platformName string) (string, string, error) {
	record, err := s.tokenRepo.GetToken(ctx, userID, platformName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrPlatformNotConnected
		}
		log.ErrorContext(ctx, "failed to load oauth token", "user_id", userID, "platform", platformName, "err", err)
		return "", "", UnExpectedError
	}

	current, err := s.openToken(record)
	if err != nil {
		log.ErrorContext(ctx, "failed to decrypt oauth token", "user_id", userID, "platform", platformName, "err", err)
		return "", "", ErrPlatformTokenExpired
	}
	if current.Valid() {
		return current.AccessToken, record.AccountID, nil
	}

	provider, ok := s.providers[platformName]
	if !ok || current.RefreshToken == "" {
		return "", "", ErrPlatformTokenExpired
	}
	refreshed, err := provider.config.TokenSource(s.clientCtx(ctx), current).Token()
	if err != nil {
		log.WarnContext(ctx, "oauth token refresh failed", "user_id", userID, "platform", platformName, "err", err)
		return "", "", ErrPlatformTokenExpired
	}

	// 按 (user_id, platform) 覆盖写入
	record.ID = 0
	record.TokenType = refreshed.TokenType
	record.Expiry = refreshed.Expiry
	if err = s.sealToken(record, refreshed); err != nil {
		log.ErrorContext(ctx, "failed to encrypt refreshed token", "platform", platformName, "err", err)
		return "", "", UnExpectedError
	}
	if err = s.tokenRepo.UpsertToken(ctx, record); err != nil {
		log.WarnContext(ctx, "failed to persist refreshed token", "user_id", userID, "platform", platformName, "err", err)
	}
	return refreshed.AccessToken, record.AccountID, nil
}

func (s *oauthServiceImpl) ListAccounts(ctx context.Context, userID uint64) ([]*dto.AccountDTO, error) {
	tokens, err := s.tokenRepo.ListTokens(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "failed to list oauth tokens", "user_id", userID, "err", err)
		return nil, UnExpectedError
	}
	accounts := make([]*dto.AccountDTO, 0, len(tokens))
	if err = copier.Copy(&accounts, &tokens); err != nil {
		return nil, UnExpectedError
	}
	return accounts, nil
}

func (s *oauthServiceImpl) Disconnect(ctx context.Context, userID uint64, platformName string) error {
	if !platform.Supported(platformName) {
		return ErrPlatformUnsupported
	}
	if err := s.tokenRepo.DeleteToken(ctx, userID, platformName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlatformNotConnected
		}
		log.ErrorContext(ctx, "failed to delete oauth token", "user_id", userID, "platform", platformName, "err", err)
		return UnExpectedError
	}
	log.InfoContext(ctx, "platform account disconnected", "platform", platformName, "user_id", userID)
	return nil
}

func (s *oauthServiceImpl) provider(platformName string) (*oauthProvider, error) {
	if !platform.Supported(platformName) {
		return nil, ErrPlatformUnsupported
	}
	provider, ok := s.providers[platformName]
	if !ok {
		return nil, ErrOAuthNotConfigured
	}
	return provider, nil
}

func (s *oauthServiceImpl) clientCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *oauthServiceImpl) sealToken(record *model.OAuthToken, token *oauth2.Token) error {
	access, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}
	record.AccessToken = access
	record.RefreshToken = ""
	if token.RefreshToken != "" {
		refresh, err := s.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return err
		}
		record.RefreshToken = refresh
	}
	return nil
}

func (s *oauthServiceImpl) openToken(record *model.OAuthToken) (*oauth2.Token, error) {
	access, err := s.cipher.Decrypt(record.AccessToken)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{
		AccessToken: access,
		TokenType:   record.TokenType,
		Expiry:      record.Expiry,
	}
	if record.RefreshToken != "" {
		if token.RefreshToken, err = s.cipher.Decrypt(record.RefreshToken); err != nil {
			return nil, err
		}
	}
	return token, nil
}
