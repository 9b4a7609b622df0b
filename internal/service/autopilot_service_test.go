package service

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AutopilotSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	repos     *testRepos
	searcher  *fakeSearcher
	publisher *fakePublisher
	llm       *fakeLLM
	locker    *fakeLocker
	limiter   *fakeLimiter
	seen      *fakeSeen
	archiver  *fakeArchiver
	tokens    *fakeTokens
	notifier  *fakeNotifier
	cfg       config.AutopilotConfig
	now       time.Time
}

func TestAutopilotSuite(t *testing.T) {
	suite.Run(t, new(AutopilotSuite))
}

func (s *AutopilotSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = newTestDB(s.T())
	s.repos = newTestRepos(s.db)
	s.searcher = &fakeSearcher{name: "twitter", results: map[string][]*platform.RawPost{}, errs: map[string]error{}}
	s.publisher = &fakePublisher{errs: map[string]error{}}
	s.llm = &fakeLLM{}
	s.locker = &fakeLocker{}
	s.limiter = &fakeLimiter{remaining: map[string]int{}}
	s.seen = &fakeSeen{}
	s.archiver = &fakeArchiver{}
	s.tokens = &fakeTokens{tokens: map[string]string{model.PlatformTwitter: "tw-token"}}
	s.notifier = &fakeNotifier{}
	s.cfg = config.AutopilotConfig{BatchSize: 2, MaxPostsPerKeyword: 20, DailyReplyLimit: 10, LockSeconds: 60}
	s.now = time.Now()
}

func (s *AutopilotSuite) service() *autopilotServiceImpl {
	registry := platform.NewRegistry()
	registry.RegisterSearcher(model.PlatformTwitter, s.searcher)
	registry.RegisterPublisher(model.PlatformTwitter, s.publisher)

	activity := NewActivityService(s.repos.activity, s.repos.campaign, nil)
	svc := NewAutopilotService(s.cfg, s.repos.campaign, s.repos.post, s.repos.comment, activity, registry, s.llm, AutopilotDeps{
		Locker:   s.locker,
		Limiter:  s.limiter,
		Seen:     s.seen,
		Archiver: s.archiver,
		Tokens:   s.tokens,
		Notifier: s.notifier,
	}).(*autopilotServiceImpl)
	svc.now = func() time.Time { return s.now }
	return svc
}

func (s *AutopilotSuite) twitterCampaign(pref *model.PostPreference) *model.Campaign {
	if pref == nil {
		pref = &model.PostPreference{Platforms: []string{model.PlatformTwitter}}
	}
	return createCampaign(s.T(), s.repos, 7, []string{"social listening", "reddit marketing"}, pref)
}

// seedComment 直接写入一个帖子和待发布评论
func (s *AutopilotSuite) seedComment(campaign *model.Campaign, externalID string, approved bool) *model.Comment {
	post := &model.Post{
		CampaignID: campaign.ID,
		Platform:   model.PlatformTwitter,
		ExternalID: externalID,
		URL:        "https://x.com/i/web/status/" + externalID,
		Content:    "looking for a tool",
		Status:     model.StatusPending,
	}
	created, err := s.repos.post.CreatePostIfAbsent(s.ctx, post)
	s.Require().NoError(err)
	s.Require().True(created)

	comment := &model.Comment{
		PostID:     post.ID,
		CampaignID: campaign.ID,
		Platform:   model.PlatformTwitter,
		Content:    "Try BuzzDaddy",
		Status:     model.StatusPending,
		Approved:   approved,
	}
	s.Require().NoError(s.repos.comment.CreateComment(s.ctx, comment))
	return comment
}

func (s *AutopilotSuite) commentStatus(id uint64) (string, string) {
	comment, err := s.repos.comment.GetComment(s.ctx, id)
	s.Require().NoError(err)
	return comment.Status, comment.Post.Status
}

func (s *AutopilotSuite) TestRunFetch_PersistsRelevantPosts() {
	campaign := s.twitterCampaign(&model.PostPreference{
		Platforms:    []string{model.PlatformTwitter},
		ExcludeTerms: []string{"giveaway"},
		Language:     "en",
	})
	s.searcher.results["social listening"] = []*platform.RawPost{
		rawPost("1", "which social listening tool do you use?"),
		rawPost("2", "free GIVEAWAY today"),
		rawPost("3", "unrelated cat picture"),
	}
	s.searcher.results["reddit marketing"] = []*platform.RawPost{
		rawPost("1", "which social listening tool do you use?"),
		rawPost("4", "need help with reddit marketing"),
		rawPost("5", "any tool for tracking mentions?"),
	}
	s.llm.keep = func(c *llm.Candidate) bool { return !containsFold(c.Content, "cat") }

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)

	s.Equal(6, report.Fetched)
	s.Equal(4, report.Candidates)
	s.Equal(2, report.Batches)
	s.Equal(0, report.FailedBatches)
	s.Equal(3, report.Kept)
	s.Equal(3, report.Saved)
	s.Equal(3, report.Comments)
	s.Equal([][]string{{"1", "3"}, {"4", "5"}}, s.llm.batches)

	s.Len(s.searcher.queries, 2)
	s.Equal("en", s.searcher.queries[0].Language)
	s.Equal(20, s.searcher.queries[0].Limit)
	s.Len(s.archiver.payloads, 2)

	posts, total, err := s.repos.post.ListPosts(s.ctx, &repository.PostFilter{CampaignID: campaign.ID, Limit: 10})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	for _, post := range posts {
		s.Equal(model.StatusPending, post.Status)
		s.Equal(80, post.RelevanceScore)
		s.Require().NotNil(post.Comment)
		s.Equal(model.StatusPending, post.Comment.Status)
	}

	activities, _, err := s.repos.activity.ListActivities(s.ctx, campaign.ID, 0, 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(activities)
	s.Equal(model.ActionPostsFetched, activities[0].Action)
}

func (s *AutopilotSuite) TestRunFetch_SkipsStoredAndSeenPosts() {
	campaign := s.twitterCampaign(nil)
	s.seedComment(campaign, "1", false)
	s.Require().NoError(s.seen.MarkSeen(s.ctx, campaign.ID, model.PlatformTwitter, []string{"2"}))
	s.searcher.results["social listening"] = []*platform.RawPost{
		rawPost("1", "already stored"),
		rawPost("2", "seen last run"),
		rawPost("3", "fresh"),
	}

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Candidates)
	s.Equal([][]string{{"3"}}, s.llm.batches)
	s.Equal(1, report.Saved)
}

func (s *AutopilotSuite) TestRunFetch_FailedBatchIsSkipped() {
	campaign := s.twitterCampaign(nil)
	s.searcher.results["social listening"] = []*platform.RawPost{
		rawPost("1", "a"), rawPost("2", "b"), rawPost("3", "c"),
	}
	s.llm.failBatch = 1

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(2, report.Batches)
	s.Equal(1, report.FailedBatches)
	s.Equal(1, report.Saved)

	// 失败批次不记为已见，下一轮还能重新筛选
	s.False(s.seen.seen["twitter:1"])
	s.False(s.seen.seen["twitter:2"])
	s.True(s.seen.seen["twitter:3"])
}

func (s *AutopilotSuite) TestRunFetch_SaveFailureIsRetriedNextRun() {
	campaign := s.twitterCampaign(nil)
	s.searcher.results["social listening"] = []*platform.RawPost{
		rawPost("1", "which social listening tool do you use?"),
		rawPost("2", "unrelated cat picture"),
	}
	s.llm.keep = func(c *llm.Candidate) bool { return c.ID == "1" }
	s.repos.post = &flakyPostRepo{PostRepo: s.repos.post, failCreate: 1}

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Kept)
	s.Zero(report.Saved)
	s.True(s.seen.seen["twitter:2"])
	s.False(s.seen.seen["twitter:1"])

	report, err = s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Candidates)
	s.Equal(1, report.Saved)
	s.True(s.seen.seen["twitter:1"])
}

func (s *AutopilotSuite) TestRunFetch_CommentFailureLeavesPostPending() {
	campaign := s.twitterCampaign(nil)
	s.searcher.results["social listening"] = []*platform.RawPost{rawPost("1", "a"), rawPost("2", "b")}
	s.llm.failComment = map[string]bool{"2": true}

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(2, report.Saved)
	s.Equal(1, report.Comments)
	s.Equal(1, report.CommentFailures)

	posts, _, err := s.repos.post.ListPosts(s.ctx, &repository.PostFilter{CampaignID: campaign.ID, Limit: 10})
	s.Require().NoError(err)
	withoutComment := 0
	for _, post := range posts {
		s.Equal(model.StatusPending, post.Status)
		if post.Comment == nil {
			withoutComment++
			s.Equal("2", post.ExternalID)
		}
	}
	s.Equal(1, withoutComment)
}

func (s *AutopilotSuite) TestRunFetch_RateLimitedSearchStopsPlatform() {
	campaign := s.twitterCampaign(nil)
	s.searcher.errs["social listening"] = &platform.APIError{Platform: "twitter", StatusCode: http.StatusTooManyRequests}
	s.searcher.results["reddit marketing"] = []*platform.RawPost{rawPost("1", "a")}

	report, err := s.service().RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Len(s.searcher.queries, 1)
	s.Len(report.Errors, 1)
	s.Zero(report.Saved)
}

func (s *AutopilotSuite) TestRunFetch_Errors() {
	svc := s.service()

	_, err := svc.RunFetch(s.ctx, 404)
	s.ErrorIs(err, ErrCampaignNotFound)

	campaign := s.twitterCampaign(nil)
	s.locker.held = map[string]bool{"fetch:" + strconv.FormatUint(campaign.ID, 10): true}
	_, err = svc.RunFetch(s.ctx, campaign.ID)
	s.ErrorIs(err, ErrAutopilotBusy)
}

func (s *AutopilotSuite) TestRunFetch_ReleasesLock() {
	campaign := s.twitterCampaign(nil)
	svc := s.service()

	_, err := svc.RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	_, err = svc.RunFetch(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Empty(s.locker.held)
}

func (s *AutopilotSuite) TestRunPost_PublishesAndRecordsFailures() {
	campaign := s.twitterCampaign(nil)
	ok := s.seedComment(campaign, "100", false)
	bad := s.seedComment(campaign, "200", false)
	s.publisher.errs["200"] = &platform.APIError{Platform: "twitter", StatusCode: http.StatusForbidden, Body: "duplicate content"}

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)

	s.Equal(2, report.Attempted)
	s.Equal(1, report.Posted)
	s.Equal(1, report.Failed)
	s.Equal(9, report.Remaining)
	s.Len(report.Items, 2)

	s.Require().Len(s.publisher.calls, 2)
	s.Equal("tw-token", s.publisher.calls[0].token)
	s.Equal("100", s.publisher.calls[0].req.TargetID)
	s.Equal("acct-twitter", s.publisher.calls[0].req.AccountID)
	s.Equal("Try BuzzDaddy", s.publisher.calls[0].req.Content)

	commentStatus, postStatus := s.commentStatus(ok.ID)
	s.Equal(model.StatusPosted, commentStatus)
	s.Equal(model.StatusPosted, postStatus)

	failed, err := s.repos.comment.GetComment(s.ctx, bad.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusFailed, failed.Status)
	s.Equal(model.StatusFailed, failed.Post.Status)
	s.Contains(failed.Error, "duplicate content")
	s.Equal(1, failed.Attempts)

	s.Require().Len(s.notifier.reports, 1)
	s.Equal(1, s.notifier.reports[0].Posted)
}

func (s *AutopilotSuite) TestRunPost_StatusWriteIsRetried() {
	campaign := s.twitterCampaign(nil)
	comment := s.seedComment(campaign, "100", false)
	s.repos.comment = &flakyCommentRepo{CommentRepo: s.repos.comment, failPosted: 1}

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Posted)

	report, err = s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Zero(report.Attempted)
	s.Len(s.publisher.calls, 1)

	status, _ := s.commentStatus(comment.ID)
	s.Equal(model.StatusPosted, status)
}

func (s *AutopilotSuite) TestRunPost_PublishedCommentIsNeverRepublished() {
	campaign := s.twitterCampaign(nil)
	comment := s.seedComment(campaign, "100", false)
	flaky := &flakyCommentRepo{CommentRepo: s.repos.comment, failPosted: markPostedAttempts}
	s.repos.comment = flaky

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Zero(report.Posted)
	s.Len(s.publisher.calls, 1)

	pending, err := s.repos.comment.GetComment(s.ctx, comment.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPending, pending.Status)
	s.Equal("reply-100", pending.ExternalID)

	report, err = s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Posted)
	s.Len(s.publisher.calls, 1)

	posted, err := s.repos.comment.GetComment(s.ctx, comment.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPosted, posted.Status)
	s.Equal(model.StatusPosted, posted.Post.Status)
	s.Equal("reply-100", posted.ExternalID)
}

func (s *AutopilotSuite) TestRunPost_DailyLimit() {
	campaign := s.twitterCampaign(&model.PostPreference{Platforms: []string{model.PlatformTwitter}, DailyReplyLimit: 2})
	posted := s.seedComment(campaign, "1", false)
	s.Require().NoError(s.repos.comment.MarkPosted(s.ctx, posted, "r1", s.now))
	s.seedComment(campaign, "2", false)
	s.seedComment(campaign, "3", false)

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Posted)
	s.Equal(0, report.Remaining)
	s.Len(s.publisher.calls, 1)

	report, err = s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(0, report.Attempted)
	s.Len(s.publisher.calls, 1)
}

func (s *AutopilotSuite) TestRunPost_RequireApproval() {
	campaign := s.twitterCampaign(&model.PostPreference{Platforms: []string{model.PlatformTwitter}, RequireApproval: true})
	draft := s.seedComment(campaign, "1", false)
	approved := s.seedComment(campaign, "2", true)

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Posted)

	status, _ := s.commentStatus(approved.ID)
	s.Equal(model.StatusPosted, status)
	status, _ = s.commentStatus(draft.ID)
	s.Equal(model.StatusPending, status)
}

func (s *AutopilotSuite) TestRunPost_RateLimiterBlocksPlatform() {
	campaign := s.twitterCampaign(nil)
	s.seedComment(campaign, "1", false)
	second := s.seedComment(campaign, "2", false)
	third := s.seedComment(campaign, "3", false)
	s.limiter.remaining[model.PlatformTwitter] = 1

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Posted)
	s.Equal(2, report.Skipped)
	s.Contains(report.Blocked, model.PlatformTwitter)

	for _, c := range []*model.Comment{second, third} {
		status, _ := s.commentStatus(c.ID)
		s.Equal(model.StatusPending, status)
	}
}

func (s *AutopilotSuite) TestRunPost_PlatformRateLimitKeepsCommentPending() {
	campaign := s.twitterCampaign(nil)
	comment := s.seedComment(campaign, "1", false)
	s.seedComment(campaign, "2", false)
	s.publisher.errs["1"] = &platform.APIError{Platform: "twitter", StatusCode: http.StatusTooManyRequests}

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(0, report.Failed)
	s.Equal(2, report.Skipped)
	s.Len(s.publisher.calls, 1)

	status, _ := s.commentStatus(comment.ID)
	s.Equal(model.StatusPending, status)
	s.Empty(s.notifier.reports)
}

func (s *AutopilotSuite) TestRunPost_NotConnected() {
	campaign := s.twitterCampaign(nil)
	comment := s.seedComment(campaign, "1", false)
	s.tokens.tokens = map[string]string{}

	report, err := s.service().RunPost(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.Equal(ErrPlatformNotConnected.Error(), report.Blocked[model.PlatformTwitter])
	s.Empty(s.publisher.calls)

	status, _ := s.commentStatus(comment.ID)
	s.Equal(model.StatusPending, status)
}

func (s *AutopilotSuite) TestRunTask() {
	campaign := s.twitterCampaign(nil)
	svc := s.service()

	result := svc.RunTask(s.ctx, &AutopilotTask{CampaignID: campaign.ID, Stage: consts.StageFetch})
	s.Equal(consts.ResultTypeSuccess, result.Type)
	s.IsType(&FetchReport{}, result.Data)

	result = svc.RunTask(s.ctx, &AutopilotTask{CampaignID: campaign.ID, Stage: "publish"})
	s.Equal(consts.ResultTypeError, result.Type)
	s.Equal(ErrStageInvalid.Error(), result.Message)

	result = svc.RunTask(s.ctx, &AutopilotTask{CampaignID: 999, Stage: consts.StagePost})
	s.Equal(consts.ResultTypeError, result.Type)
	s.Equal(ErrCampaignNotFound.Error(), result.Message)
	s.ErrorIs(result.Err, ErrCampaignNotFound)
	s.False(result.Retryable())

	s.True((&TaskResult{Type: consts.ResultTypeError, Err: UnExpectedError}).Retryable())
	s.False((&TaskResult{Type: consts.ResultTypeSuccess}).Retryable())
}

type recordingDispatcher struct {
	tasks []*AutopilotTask
}

func (d *recordingDispatcher) Dispatch(_ context.Context, task *AutopilotTask) (*TaskResult, error) {
	d.tasks = append(d.tasks, task)
	if task.CampaignID%2 == 0 {
		return nil, errors.New("broker down")
	}
	return &TaskResult{Type: consts.ResultTypeSuccess, Message: "queued"}, nil
}

func (s *AutopilotSuite) TestRunAll() {
	first := s.twitterCampaign(nil)
	second := s.twitterCampaign(nil)
	paused := s.twitterCampaign(nil)
	paused.Status = model.CampaignStatusPaused
	s.Require().NoError(s.repos.campaign.UpdateCampaign(s.ctx, paused))

	svc := s.service()
	dispatcher := &recordingDispatcher{}
	svc.SetDispatcher(dispatcher)

	report, err := svc.RunAll(s.ctx, consts.StagePost)
	s.Require().NoError(err)
	s.Equal(2, report.Total)
	s.Require().Len(dispatcher.tasks, 2)
	s.Equal(first.ID, dispatcher.tasks[0].CampaignID)
	s.Equal(second.ID, dispatcher.tasks[1].CampaignID)
	s.Equal(consts.StagePost, dispatcher.tasks[0].Stage)
	s.Equal(1, report.Succeeded)
	s.Equal(1, report.Failed)

	_, err = svc.RunAll(s.ctx, "bogus")
	s.ErrorIs(err, ErrStageInvalid)
}

func (s *AutopilotSuite) TestTriggerStageChecksOwnership() {
	campaign := s.twitterCampaign(nil)
	svc := s.service()

	_, err := svc.TriggerStage(s.ctx, 8, campaign.ID, consts.StageFetch)
	s.ErrorIs(err, ErrCampaignNotFound)

	result, err := svc.TriggerStage(s.ctx, 7, campaign.ID, consts.StageFetch)
	s.Require().NoError(err)
	s.Equal(consts.ResultTypeSuccess, result.Type)
}

func (s *AutopilotSuite) TestCommentOperations() {
	campaign := s.twitterCampaign(nil)
	comment := s.seedComment(campaign, "1", false)
	svc := s.service()

	_, err := svc.ApproveComment(s.ctx, 99, comment.ID)
	s.ErrorIs(err, ErrCommentNotFound)

	approved, err := svc.ApproveComment(s.ctx, 7, comment.ID)
	s.Require().NoError(err)
	s.True(approved.Approved)

	edited, err := svc.EditComment(s.ctx, 7, comment.ID, "  Better reply  ")
	s.Require().NoError(err)
	s.Equal("Better reply", edited.Content)

	_, err = svc.EditComment(s.ctx, 7, comment.ID, strings.Repeat("a", 300))
	s.ErrorIs(err, ErrParamInvalid)

	_, err = svc.RetryComment(s.ctx, 7, comment.ID)
	s.ErrorIs(err, ErrCommentNotFailed)

	stored, err := s.repos.comment.GetComment(s.ctx, comment.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.repos.comment.MarkFailed(s.ctx, stored, "boom"))

	_, err = svc.EditComment(s.ctx, 7, comment.ID, "again")
	s.ErrorIs(err, ErrCommentNotPending)

	retried, err := svc.RetryComment(s.ctx, 7, comment.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPending, retried.Status)
	_, postStatus := s.commentStatus(comment.ID)
	s.Equal(model.StatusPending, postStatus)

	page, err := svc.ListComments(s.ctx, 7, campaign.ID, model.StatusPending, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, page.Total)
	s.Equal("https://x.com/i/web/status/1", page.Items[0].PostURL)

	_, err = svc.ListComments(s.ctx, 7, campaign.ID, "DONE", 1, 10)
	s.ErrorIs(err, ErrParamInvalid)

	s.Require().NoError(svc.DeleteComment(s.ctx, 7, comment.ID))
	s.ErrorIs(svc.DeleteComment(s.ctx, 7, comment.ID), ErrCommentNotFound)
}

func (s *AutopilotSuite) TestListAndSearchPosts() {
	campaign := s.twitterCampaign(nil)
	s.seedComment(campaign, "1", false)
	svc := s.service()

	page, err := svc.ListPosts(s.ctx, 7, campaign.ID, model.PlatformTwitter, "", 0, 0)
	s.Require().NoError(err)
	s.EqualValues(1, page.Total)
	s.Equal(1, page.Page)
	s.Equal(consts.DefaultPageSize, page.PageSize)
	s.Require().NotNil(page.Items[0].Comment)

	_, err = svc.ListPosts(s.ctx, 7, campaign.ID, "myspace", "", 1, 10)
	s.ErrorIs(err, ErrParamInvalid)

	_, err = svc.SearchPosts(s.ctx, 7, campaign.ID, "tool", "", "", 1, 10)
	s.ErrorIs(err, ErrSearchUnavailable)
}
