package service

import (
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/database"
	"BuzzDaddy/internal/pkg/email"
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type testRepos struct {
	campaign repository.CampaignRepo
	post     repository.PostRepo
	comment  repository.CommentRepo
	activity repository.ActivityRepo
	token    repository.OAuthTokenRepo
}

func newTestRepos(db *gorm.DB) *testRepos {
	return &testRepos{
		campaign: repository.NewCampaignRepo(db),
		post:     repository.NewPostRepo(db),
		comment:  repository.NewCommentRepo(db),
		activity: repository.NewActivityRepo(db),
		token:    repository.NewOAuthTokenRepo(db),
	}
}

func createCampaign(t *testing.T, repos *testRepos, userID uint64, terms []string, pref *model.PostPreference) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{
		UserID:             userID,
		Name:               "launch",
		ProductName:        "BuzzDaddy",
		ProductDescription: "finds conversations about your product",
		NotifyEmail:        "owner@example.com",
		Autopilot:          true,
		Status:             model.CampaignStatusActive,
		Preference:         pref,
	}
	for _, term := range terms {
		campaign.Keywords = append(campaign.Keywords, model.Keyword{Term: term})
	}
	require.NoError(t, repos.campaign.CreateCampaign(context.Background(), campaign))
	return campaign
}

// fakeSearcher 按关键词返回固定结果
type fakeSearcher struct {
	name    string
	results map[string][]*platform.RawPost
	errs    map[string]error
	queries []platform.SearchQuery
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(_ context.Context, query platform.SearchQuery) (*platform.SearchResult, error) {
	f.queries = append(f.queries, query)
	if err := f.errs[query.Keyword]; err != nil {
		return nil, err
	}
	posts := make([]*platform.RawPost, 0)
	for _, p := range f.results[query.Keyword] {
		cp := *p
		posts = append(posts, &cp)
	}
	return &platform.SearchResult{Posts: posts, Raw: []byte(`{"keyword":"` + query.Keyword + `"}`)}, nil
}

type publishCall struct {
	token string
	req   platform.PublishRequest
}

// fakePublisher errs 按 TargetID 指定失败
type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	errs  map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, accessToken string, req *platform.PublishRequest) (*platform.PublishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{token: accessToken, req: *req})
	if err := f.errs[req.TargetID]; err != nil {
		return nil, err
	}
	return &platform.PublishResult{ExternalID: "reply-" + req.TargetID, URL: "https://example.com/" + req.TargetID}, nil
}

// fakeLLM keep 判断是否保留，failBatch 指定第几批失败（从 1 开始）
type fakeLLM struct {
	keep        func(c *llm.Candidate) bool
	failBatch   int
	failComment map[string]bool
	batches     [][]string
	generated   []string
}

func (f *fakeLLM) FilterPosts(_ context.Context, _ *llm.CampaignBrief, batch []*llm.Candidate) ([]*llm.FilterVerdict, error) {
	ids := make([]string, 0, len(batch))
	for _, c := range batch {
		ids = append(ids, c.ID)
	}
	f.batches = append(f.batches, ids)
	if f.failBatch == len(f.batches) {
		return nil, errors.New("model unavailable")
	}
	out := make([]*llm.FilterVerdict, 0)
	for _, c := range batch {
		if f.keep == nil || f.keep(c) {
			out = append(out, &llm.FilterVerdict{ID: c.ID, Score: 80, Reason: "asks for " + c.Platform + " tools"})
		}
	}
	return out, nil
}

func (f *fakeLLM) GenerateComment(_ context.Context, _ *llm.CampaignBrief, post *llm.Candidate) (string, error) {
	if f.failComment[post.ID] {
		return "", llm.ErrEmptyComment
	}
	f.generated = append(f.generated, post.ID)
	return "Have you tried BuzzDaddy for " + post.ID + "?", nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return func() {}, false, nil
	}
	f.held[key] = true
	return func() { delete(f.held, key) }, true, nil
}

type fakeLimiter struct {
	remaining map[string]int
}

func (f *fakeLimiter) Allow(_ context.Context, name string) (bool, error) {
	left, ok := f.remaining[name]
	if !ok {
		return true, nil
	}
	if left <= 0 {
		return false, nil
	}
	f.remaining[name] = left - 1
	return true, nil
}

type fakeSeen struct {
	seen map[string]bool
}

func (f *fakeSeen) Unseen(_ context.Context, _ uint64, name string, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !f.seen[name+":"+id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeSeen) MarkSeen(_ context.Context, _ uint64, name string, ids []string) error {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	for _, id := range ids {
		f.seen[name+":"+id] = true
	}
	return nil
}

type fakeArchiver struct {
	payloads []string
}

func (f *fakeArchiver) Archive(_ context.Context, _ uint64, name string, payload []byte) (string, error) {
	f.payloads = append(f.payloads, name+":"+string(payload))
	return "raw/" + name, nil
}

type fakeTokens struct {
	tokens map[string]string
}

func (f *fakeTokens) AccessToken(_ context.Context, _ uint64, name string) (string, string, error) {
	token, ok := f.tokens[name]
	if !ok {
		return "", "", ErrPlatformNotConnected
	}
	return token, "acct-" + name, nil
}

type fakeNotifier struct {
	reports []*PostReport
}

func (f *fakeNotifier) SendDigest(_ context.Context, _ *model.Campaign, report *PostReport) error {
	f.reports = append(f.reports, report)
	return nil
}

type fakeMailSender struct {
	messages []*email.Message
}

func (f *fakeMailSender) Send(_ context.Context, msg *email.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

// memoryStates 内存版 state 存储
type memoryStates struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryStates) Save(_ context.Context, state string, payload string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[state] = payload
	return nil
}

func (m *memoryStates) Take(_ context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value := m.values[state]
	delete(m.values, state)
	return value, nil
}

func rawPost(id, content string) *platform.RawPost {
	return &platform.RawPost{
		ExternalID: id,
		URL:        "https://x.com/i/web/status/" + id,
		Author:     "user_" + id,
		Content:    content,
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// flakyCommentRepo 前 failPosted 次 MarkPosted 返回错误
type flakyCommentRepo struct {
	repository.CommentRepo
	failPosted int
	posted     int
}

func (f *flakyCommentRepo) MarkPosted(ctx context.Context, comment *model.Comment, externalID string, at time.Time) error {
	f.posted++
	if f.posted <= f.failPosted {
		return errors.New("database is locked")
	}
	return f.CommentRepo.MarkPosted(ctx, comment, externalID, at)
}

// flakyPostRepo 前 failCreate 次 CreatePostIfAbsent 返回错误
type flakyPostRepo struct {
	repository.PostRepo
	failCreate int
	created    int
}

func (f *flakyPostRepo) CreatePostIfAbsent(ctx context.Context, post *model.Post) (bool, error) {
	f.created++
	if f.created <= f.failCreate {
		return false, errors.New("connection reset")
	}
	return f.PostRepo.CreatePostIfAbsent(ctx, post)
}
