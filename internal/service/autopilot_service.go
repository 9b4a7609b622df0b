package service

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/es"
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/logger"
	"BuzzDaddy/internal/pkg/metrics"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/pkg/util"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	defaultLockTTL      = 10 * time.Minute
	defaultBatchSize    = 10
	maxPostsPerRun      = 100
	maxErrorRunes       = 1000
	maxReasonRunes      = 1024
	enrichTimeout       = 30 * time.Second
	notifyTimeout       = 15 * time.Second
	minEnrichGainRunes  = 20
	searchErrorsPerPlat = 3
	markPostedAttempts  = 3
	markPostedBackoff   = 100 * time.Millisecond
)

// AutopilotTask 一次流水线阶段任务，Kafka 消息体与之相同
type AutopilotTask struct {
	CampaignID uint64 `json:"campaign_id"`
	Stage      string `json:"stage"`
	TraceID    string `json:"trace_id"`
}

// TaskResult 任务执行结果 {type, message, data}
type TaskResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	// Err 失败原因，只在进程内传递
	Err error `json:"-"`
}

// TaskDispatcher 分发流水线任务，可以同步执行也可以投递到队列
type TaskDispatcher interface {
	Dispatch(ctx context.Context, task *AutopilotTask) (*TaskResult, error)
}

// FetchReport 抓取阶段统计
type FetchReport struct {
	CampaignID      uint64   `json:"campaign_id"`
	Fetched         int      `json:"fetched"`
	Candidates      int      `json:"candidates"`
	Batches         int      `json:"batches"`
	FailedBatches   int      `json:"failed_batches"`
	Kept            int      `json:"kept"`
	Saved           int      `json:"saved"`
	Comments        int      `json:"comments"`
	CommentFailures int      `json:"comment_failures"`
	Errors          []string `json:"errors,omitempty"`
}

// PostItem 单条评论的发布结果
type PostItem struct {
	CommentID  uint64 `json:"comment_id"`
	PostID     uint64 `json:"post_id"`
	Platform   string `json:"platform"`
	PostURL    string `json:"post_url"`
	PostTitle  string `json:"post_title,omitempty"`
	Status     string `json:"status"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PostReport 发布阶段统计
type PostReport struct {
	CampaignID uint64            `json:"campaign_id"`
	Attempted  int               `json:"attempted"`
	Posted     int               `json:"posted"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Remaining  int               `json:"remaining"`
	Blocked    map[string]string `json:"blocked,omitempty"`
	Items      []*PostItem       `json:"items"`
}

// RunAllReport 定时任务对全部活动的执行结果
type RunAllReport struct {
	Stage     string        `json:"stage"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []*TaskResult `json:"results"`
}

type AutopilotService interface {
	RunFetch(ctx context.Context, campaignID uint64) (*FetchReport, error)
	RunPost(ctx context.Context, campaignID uint64) (*PostReport, error)
	RunTask(ctx context.Context, task *AutopilotTask) *TaskResult
	RunAll(ctx context.Context, stage string) (*RunAllReport, error)
	DispatchCampaign(ctx context.Context, campaignID uint64, stage string) (*TaskResult, error)
	TriggerStage(ctx context.Context, userID, campaignID uint64, stage string) (*TaskResult, error)
	SetDispatcher(dispatcher TaskDispatcher)

	ListPosts(ctx context.Context, userID, campaignID uint64, platform, status string, page, pageSize int) (*dto.PageDTO[*dto.PostDTO], error)
	SearchPosts(ctx context.Context, userID, campaignID uint64, text, platform, status string, page, pageSize int) (*dto.PageDTO[*dto.PostDTO], error)
	ListComments(ctx context.Context, userID, campaignID uint64, status string, page, pageSize int) (*dto.PageDTO[*dto.CommentDTO], error)
	ApproveComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDTO, error)
	EditComment(ctx context.Context, userID, commentID uint64, content string) (*dto.CommentDTO, error)
	RetryComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDTO, error)
	DeleteComment(ctx context.Context, userID, commentID uint64) error
}

type autopilotServiceImpl struct {
	cfg             config.AutopilotConfig
	campaignRepo    repository.CampaignRepo
	postRepo        repository.PostRepo
	commentRepo     repository.CommentRepo
	activityService ActivityService
	registry        *platform.Registry
	llm             llm.AutopilotLLM
	deps            AutopilotDeps
	dispatcher      TaskDispatcher
	now             func() time.Time
}

func NewAutopilotService(
	cfg config.AutopilotConfig,
	campaignRepo repository.CampaignRepo,
	postRepo repository.PostRepo,
	commentRepo repository.CommentRepo,
	activityService ActivityService,
	registry *platform.Registry,
	autopilotLLM llm.AutopilotLLM,
	deps AutopilotDeps,
) AutopilotService {
	s := &autopilotServiceImpl{
		cfg:             cfg,
		campaignRepo:    campaignRepo,
		postRepo:        postRepo,
		commentRepo:     commentRepo,
		activityService: activityService,
		registry:        registry,
		llm:             autopilotLLM,
		deps:            deps,
		now:             time.Now,
	}
	s.dispatcher = NewInlineDispatcher(s)
	return s
}

// SetDispatcher 替换任务分发方式，默认同步执行
func (s *autopilotServiceImpl) SetDispatcher(dispatcher TaskDispatcher) {
	if dispatcher != nil {
		s.dispatcher = dispatcher
	}
}

// RunFetch 搜索 -> 去重 -> 分批筛选 -> 入库 -> 生成评论
func (s *autopilotServiceImpl) RunFetch(ctx context.Context, campaignID uint64) (*FetchReport, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, consts.StageFetch, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &FetchReport{CampaignID: campaignID}
	terms := campaign.Terms()
	if len(terms) == 0 {
		log.InfoContext(ctx, "campaign has no keywords, skip fetch", "campaign_id", campaignID)
		return report, nil
	}

	brief := s.brief(campaign)
	for _, name := range enabledPlatforms(campaign.Preference) {
		if ctx.Err() != nil {
			break
		}
		searcher, ok := s.registry.Searcher(name)
		if !ok {
			log.InfoContext(ctx, "no search provider for platform, skip", "campaign_id", campaignID, "platform", name)
			continue
		}
		candidates := s.collect(ctx, campaign, name, searcher, terms, report)
		if len(candidates) == 0 {
			continue
		}
		report.Candidates += len(candidates)
		s.enrich(ctx, candidates)
		s.filterAndSave(ctx, campaign, brief, name, candidates, report)
	}

	log.InfoContext(ctx, "autopilot fetch finished",
		"campaign_id", campaignID,
		"fetched", report.Fetched,
		"candidates", report.Candidates,
		"saved", report.Saved,
		"comments", report.Comments,
	)
	s.activityService.Record(ctx, campaign.ID, campaign.UserID, model.ActionPostsFetched,
		fmt.Sprintf("fetched %d, kept %d, saved %d, comments %d", report.Fetched, report.Kept, report.Saved, report.Comments))
	return report, nil
}

// collect 搜索全部关键词并合并，去掉排除词命中、已入库和近期见过的帖子
func (s *autopilotServiceImpl) collect(
	ctx context.Context,
	campaign *model.Campaign,
	name string,
	searcher platform.Searcher,
	terms []string,
	report *FetchReport,
) []*platform.RawPost {
	var language string
	var excludeTerms []string
	if pref := campaign.Preference; pref != nil {
		language = pref.Language
		excludeTerms = pref.ExcludeTerms
	}

	merged := make([]*platform.RawPost, 0)
	seen := make(map[string]struct{})
	searchErrors := 0
	for _, term := range terms {
		result, err := searcher.Search(ctx, platform.SearchQuery{
			Keyword:  term,
			Limit:    s.cfg.MaxPostsPerKeyword,
			Language: language,
		})
		if err != nil {
			log.WarnContext(ctx, "platform search failed", "campaign_id", campaign.ID, "platform", name, "keyword", term, "err", err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", name, err.Error()))
			searchErrors++
			if errors.Is(err, platform.ErrRateLimited) || ctx.Err() != nil || searchErrors >= searchErrorsPerPlat {
				break
			}
			continue
		}

		s.archive(ctx, campaign.ID, name, result.Raw)
		report.Fetched += len(result.Posts)
		metrics.PostsFetchedTotal.WithLabelValues(name).Add(float64(len(result.Posts)))

		for _, post := range result.Posts {
			if post == nil || post.ExternalID == "" {
				continue
			}
			if _, dup := seen[post.ExternalID]; dup {
				continue
			}
			seen[post.ExternalID] = struct{}{}
			if post.Keyword == "" {
				post.Keyword = term
			}
			if util.ContainsAnyFold(post.Title+"\n"+post.Content, excludeTerms) {
				continue
			}
			merged = append(merged, post)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return s.dropKnown(ctx, campaign.ID, name, merged)
}

func (s *autopilotServiceImpl) dropKnown(ctx context.Context, campaignID uint64, name string, posts []*platform.RawPost) []*platform.RawPost {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ExternalID)
	}

	existing, err := s.postRepo.ExistingExternalIDs(ctx, campaignID, name, ids)
	if err != nil {
		log.ErrorContext(ctx, "failed to check stored posts", "campaign_id", campaignID, "platform", name, "err", err)
		return nil
	}

	fresh := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			fresh[id] = struct{}{}
		}
	}
	if s.deps.Seen != nil && len(fresh) > 0 {
		pending := make([]string, 0, len(fresh))
		for _, id := range ids {
			if _, ok := fresh[id]; ok {
				pending = append(pending, id)
			}
		}
		unseen, err := s.deps.Seen.Unseen(ctx, campaignID, name, pending)
		if err != nil {
			log.WarnContext(ctx, "seen filter unavailable", "campaign_id", campaignID, "platform", name, "err", err)
		} else {
			fresh = make(map[string]struct{}, len(unseen))
			for _, id := range unseen {
				fresh[id] = struct{}{}
			}
		}
	}

	out := make([]*platform.RawPost, 0, len(fresh))
	for _, post := range posts {
		if _, ok := fresh[post.ExternalID]; ok {
			out = append(out, post)
		}
	}
	return out
}

// enrich 用抓取到的正文替换搜索摘要
func (s *autopilotServiceImpl) enrich(ctx context.Context, posts []*platform.RawPost) {
	if s.deps.Fetcher == nil {
		return
	}
	for _, post := range posts {
		if !post.Truncated || post.URL == "" || ctx.Err() != nil {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
		page, err := s.deps.Fetcher.Fetch(fetchCtx, post.URL)
		cancel()
		if err != nil {
			log.DebugContext(ctx, "failed to enrich post", "url", post.URL, "err", err)
			continue
		}
		if utf8.RuneCountInString(page.Content) >= utf8.RuneCountInString(post.Content)+minEnrichGainRunes {
			post.Content = page.Content
			post.Truncated = false
		}
		if post.Title == "" {
			post.Title = page.Title
		}
	}
}

// filterAndSave 按批次顺序调用 LLM 筛选，失败的批次跳过且不记为已见
func (s *autopilotServiceImpl) filterAndSave(
	ctx context.Context,
	campaign *model.Campaign,
	brief *llm.CampaignBrief,
	name string,
	posts []*platform.RawPost,
	report *FetchReport,
) {
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for i, batch := range util.Chunk(posts, batchSize) {
		if ctx.Err() != nil {
			return
		}
		report.Batches++

		byID := make(map[string]*platform.RawPost, len(batch))
		candidates := make([]*llm.Candidate, 0, len(batch))
		ids := make([]string, 0, len(batch))
		for _, post := range batch {
			byID[post.ExternalID] = post
			ids = append(ids, post.ExternalID)
			candidates = append(candidates, &llm.Candidate{
				ID:       post.ExternalID,
				Platform: name,
				Title:    post.Title,
				Content:  post.Content,
				Author:   post.Author,
				URL:      post.URL,
			})
		}

		verdicts, err := s.llm.FilterPosts(ctx, brief, candidates)
		if err != nil {
			report.FailedBatches++
			log.ErrorContext(ctx, "post filter batch failed", "campaign_id", campaign.ID, "platform", name, "batch", i, "size", len(batch), "err", err)
			continue
		}
		// 被 LLM 拒绝或已落库的帖子记为已见，保存失败的留给下次运行
		kept := make(map[string]bool, len(verdicts))
		settled := make([]string, 0, len(batch))
		for _, verdict := range verdicts {
			raw, ok := byID[verdict.ID]
			if !ok || kept[verdict.ID] {
				continue
			}
			kept[verdict.ID] = true
			report.Kept++
			post := newPost(campaign.ID, name, raw, verdict)
			created, err := s.postRepo.CreatePostIfAbsent(ctx, post)
			if err != nil {
				log.ErrorContext(ctx, "failed to save post", "campaign_id", campaign.ID, "external_id", raw.ExternalID, "err", err)
				continue
			}
			settled = append(settled, raw.ExternalID)
			if !created {
				continue
			}
			report.Saved++
			metrics.PostsKeptTotal.WithLabelValues(name).Inc()
			s.indexPost(ctx, post)
			s.generateComment(ctx, brief, post, report)
		}
		for _, id := range ids {
			if !kept[id] {
				settled = append(settled, id)
			}
		}
		s.markSeen(ctx, campaign.ID, name, settled)
	}
}

func (s *autopilotServiceImpl) markSeen(ctx context.Context, campaignID uint64, name string, ids []string) {
	if s.deps.Seen == nil || len(ids) == 0 {
		return
	}
	if err := s.deps.Seen.MarkSeen(ctx, campaignID, name, ids); err != nil {
		log.WarnContext(ctx, "failed to mark posts seen", "campaign_id", campaignID, "platform", name, "err", err)
	}
}

func (s *autopilotServiceImpl) generateComment(ctx context.Context, brief *llm.CampaignBrief, post *model.Post, report *FetchReport) {
	content, err := s.llm.GenerateComment(ctx, brief, &llm.Candidate{
		ID:       post.ExternalID,
		Platform: post.Platform,
		Title:    post.Title,
		Content:  post.Content,
		Author:   post.Author,
		URL:      post.URL,
	})
	if err != nil {
		report.CommentFailures++
		log.ErrorContext(ctx, "comment generation failed", "campaign_id", post.CampaignID, "post_id", post.ID, "err", err)
		return
	}

	comment := &model.Comment{
		PostID:     post.ID,
		CampaignID: post.CampaignID,
		Platform:   post.Platform,
		Content:    content,
		Status:     model.StatusPending,
	}
	if err = s.commentRepo.CreateComment(ctx, comment); err != nil {
		report.CommentFailures++
		log.ErrorContext(ctx, "failed to save comment", "campaign_id", post.CampaignID, "post_id", post.ID, "err", err)
		return
	}
	report.Comments++
	metrics.CommentsGeneratedTotal.WithLabelValues(post.Platform).Inc()
}

// RunPost 发布待发布评论，受每日上限与平台限流约束
func (s *autopilotServiceImpl) RunPost(ctx context.Context, campaignID uint64) (*PostReport, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, consts.StagePost, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &PostReport{CampaignID: campaignID, Blocked: make(map[string]string), Items: make([]*PostItem, 0)}
	pref := campaign.Preference

	quota := maxPostsPerRun
	limit := s.cfg.DailyReplyLimit
	if pref != nil && pref.DailyReplyLimit > 0 {
		limit = pref.DailyReplyLimit
	}
	if limit > 0 {
		postedToday, err := s.commentRepo.CountPostedSince(ctx, campaignID, startOfDay(s.now()))
		if err != nil {
			log.ErrorContext(ctx, "failed to count posted comments", "campaign_id", campaignID, "err", err)
			return nil, UnExpectedError
		}
		quota = min(quota, limit-int(postedToday))
		if quota <= 0 {
			log.InfoContext(ctx, "daily reply limit reached", "campaign_id", campaignID, "limit", limit)
			return report, nil
		}
	}

	requireApproval := pref != nil && pref.RequireApproval
	comments, err := s.commentRepo.ListPostable(ctx, campaignID, requireApproval, quota)
	if err != nil {
		log.ErrorContext(ctx, "failed to list postable comments", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	enabled := make(map[string]struct{})
	for _, name := range enabledPlatforms(pref) {
		enabled[name] = struct{}{}
	}

	for _, comment := range comments {
		if ctx.Err() != nil {
			break
		}
		if _, ok := enabled[comment.Platform]; !ok {
			report.Skipped++
			continue
		}
		if _, blocked := report.Blocked[comment.Platform]; blocked {
			report.Skipped++
			continue
		}
		s.publish(ctx, campaign, comment, report)
	}
	report.Remaining = quota - report.Posted
	if limit <= 0 {
		report.Remaining = -1
	}
	if len(report.Blocked) == 0 {
		report.Blocked = nil
	}

	log.InfoContext(ctx, "autopilot post finished",
		"campaign_id", campaignID,
		"attempted", report.Attempted,
		"posted", report.Posted,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	s.notify(ctx, campaign, report)
	return report, nil
}

// publish 发布单条评论，平台级问题（未授权、限流）会阻断该平台本轮剩余评论
func (s *autopilotServiceImpl) publish(ctx context.Context, campaign *model.Campaign, comment *model.Comment, report *PostReport) {
	name := comment.Platform
	// 上次已发出但状态未写入，只补写状态
	if comment.ExternalID != "" {
		log.WarnContext(ctx, "settling comment published in an earlier run", "campaign_id", campaign.ID, "comment_id", comment.ID, "external_id", comment.ExternalID)
		item := &PostItem{CommentID: comment.ID, PostID: comment.PostID, Platform: name}
		if comment.Post != nil {
			item.PostURL = comment.Post.URL
			item.PostTitle = comment.Post.Title
		}
		report.Attempted++
		s.settlePosted(ctx, campaign, comment, item, &platform.PublishResult{ExternalID: comment.ExternalID}, report)
		return
	}
	publisher, ok := s.registry.Publisher(name)
	if !ok {
		report.Blocked[name] = ErrPlatformUnsupported.Error()
		report.Skipped++
		return
	}
	if s.deps.Tokens == nil {
		report.Blocked[name] = ErrPlatformNotConnected.Error()
		report.Skipped++
		return
	}
	token, accountID, err := s.deps.Tokens.AccessToken(ctx, campaign.UserID, name)
	if err != nil {
		log.WarnContext(ctx, "no usable platform token", "campaign_id", campaign.ID, "platform", name, "err", err)
		report.Blocked[name] = err.Error()
		report.Skipped++
		return
	}
	if s.deps.Limiter != nil {
		allowed, err := s.deps.Limiter.Allow(ctx, name)
		if err != nil {
			log.ErrorContext(ctx, "rate limiter unavailable", "platform", name, "err", err)
			report.Blocked[name] = "rate limiter unavailable"
			report.Skipped++
			return
		}
		if !allowed {
			log.InfoContext(ctx, "platform rate limit reached", "campaign_id", campaign.ID, "platform", name)
			report.Blocked[name] = platform.ErrRateLimited.Error()
			report.Skipped++
			return
		}
	}

	item := &PostItem{CommentID: comment.ID, PostID: comment.PostID, Platform: name}
	if comment.Post == nil {
		s.fail(ctx, campaign, comment, item, ErrPostNotFound, report)
		return
	}
	item.PostURL = comment.Post.URL
	item.PostTitle = comment.Post.Title

	result, err := publisher.Publish(ctx, token, &platform.PublishRequest{
		TargetID:  comment.Post.ExternalID,
		TargetURL: comment.Post.URL,
		AccountID: accountID,
		Content:   comment.Content,
	})
	if err != nil {
		// 限流和取消不算评论本身失败，保持 PENDING 下次再发
		if errors.Is(err, platform.ErrRateLimited) || ctx.Err() != nil {
			log.WarnContext(ctx, "publish interrupted", "campaign_id", campaign.ID, "comment_id", comment.ID, "platform", name, "err", err)
			report.Blocked[name] = err.Error()
			report.Skipped++
			return
		}
		report.Attempted++
		s.fail(ctx, campaign, comment, item, err, report)
		return
	}

	report.Attempted++
	s.settlePosted(ctx, campaign, comment, item, result, report)
}

// settlePosted 评论已发到平台后写入 POSTED，写入失败时至少留下 external_id 防止重发
func (s *autopilotServiceImpl) settlePosted(ctx context.Context, campaign *model.Campaign, comment *model.Comment, item *PostItem, result *platform.PublishResult, report *PostReport) {
	writeCtx := context.WithoutCancel(ctx)
	at := s.now()
	var err error
	for attempt := 1; attempt <= markPostedAttempts; attempt++ {
		err = s.commentRepo.MarkPosted(writeCtx, comment, result.ExternalID, at)
		if err == nil || errors.Is(err, repository.ErrStateConflict) || attempt == markPostedAttempts {
			break
		}
		time.Sleep(time.Duration(attempt) * markPostedBackoff)
	}
	if err != nil {
		log.ErrorContext(ctx, "comment published but status update failed",
			"campaign_id", campaign.ID, "comment_id", comment.ID, "external_id", result.ExternalID, "err", err)
		if comment.ExternalID == "" {
			if recErr := s.commentRepo.RecordExternalID(writeCtx, comment.ID, result.ExternalID); recErr != nil {
				log.ErrorContext(ctx, "failed to record external id", "comment_id", comment.ID, "err", recErr)
			}
		}
		return
	}
	item.Status = model.StatusPosted
	item.ExternalID = result.ExternalID
	report.Posted++
	report.Items = append(report.Items, item)
	metrics.CommentsPostedTotal.WithLabelValues(comment.Platform).Inc()
	s.updateIndexStatus(ctx, comment.PostID, model.StatusPosted)
	detail := result.URL
	if detail == "" {
		detail = result.ExternalID
	}
	s.activityService.Record(ctx, campaign.ID, campaign.UserID, model.ActionCommentPosted, fmt.Sprintf("%s %s", comment.Platform, detail))
}

func (s *autopilotServiceImpl) fail(ctx context.Context, campaign *model.Campaign, comment *model.Comment, item *PostItem, cause error, report *PostReport) {
	reason := util.TruncateRunes(cause.Error(), maxErrorRunes)
	log.WarnContext(ctx, "comment publish failed", "campaign_id", campaign.ID, "comment_id", comment.ID, "platform", comment.Platform, "err", cause)
	if err := s.commentRepo.MarkFailed(ctx, comment, reason); err != nil {
		log.ErrorContext(ctx, "failed to mark comment failed", "comment_id", comment.ID, "err", err)
		return
	}
	item.Status = model.StatusFailed
	item.Error = reason
	report.Failed++
	report.Items = append(report.Items, item)
	metrics.CommentsFailedTotal.WithLabelValues(comment.Platform).Inc()
	s.updateIndexStatus(ctx, comment.PostID, model.StatusFailed)
	s.activityService.Record(ctx, campaign.ID, campaign.UserID, model.ActionCommentFailed, fmt.Sprintf("%s comment %d: %s", comment.Platform, comment.ID, reason))
}

func (s *autopilotServiceImpl) notify(ctx context.Context, campaign *model.Campaign, report *PostReport) {
	if s.deps.Notifier == nil || campaign.NotifyEmail == "" || (report.Posted == 0 && report.Failed == 0) {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.deps.Notifier.SendDigest(notifyCtx, campaign, report); err != nil {
		log.WarnContext(ctx, "failed to send digest email", "campaign_id", campaign.ID, "err", err)
	}
}

// RunTask 执行一个阶段任务，错误转换为 error 类型的结果
func (s *autopilotServiceImpl) RunTask(ctx context.Context, task *AutopilotTask) *TaskResult {
	if task == nil {
		return &TaskResult{Type: consts.ResultTypeError, Message: ErrParamInvalid.Error(), Err: ErrParamInvalid}
	}
	if task.TraceID == "" {
		task.TraceID = logger.TraceID(ctx)
	}
	ctx = logger.WithTraceID(ctx, "autopilot-", task.TraceID)

	var data any
	var err error
	switch task.Stage {
	case consts.StageFetch:
		data, err = s.RunFetch(ctx, task.CampaignID)
	case consts.StagePost:
		data, err = s.RunPost(ctx, task.CampaignID)
	default:
		err = ErrStageInvalid
	}
	if err != nil {
		log.WarnContext(ctx, "autopilot task failed", "campaign_id", task.CampaignID, "stage", task.Stage, "err", err)
		return &TaskResult{Type: consts.ResultTypeError, Message: err.Error(), Data: task, Err: err}
	}
	return &TaskResult{
		Type:    consts.ResultTypeSuccess,
		Message: fmt.Sprintf("%s finished for campaign %d", task.Stage, task.CampaignID),
		Data:    data,
	}
}

// RunAll 逐个分发开启自动驾驶的活动
func (s *autopilotServiceImpl) RunAll(ctx context.Context, stage string) (*RunAllReport, error) {
	if !validStage(stage) {
		return nil, ErrStageInvalid
	}
	campaigns, err := s.campaignRepo.ListAutopilotCampaigns(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to list autopilot campaigns", "err", err)
		return nil, UnExpectedError
	}

	report := &RunAllReport{Stage: stage, Total: len(campaigns), Results: make([]*TaskResult, 0, len(campaigns))}
	for _, campaign := range campaigns {
		if ctx.Err() != nil {
			break
		}
		result := s.dispatch(ctx, campaign.ID, stage)
		if result.Type == consts.ResultTypeSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// DispatchCampaign 分发单个活动的阶段任务，不校验归属
func (s *autopilotServiceImpl) DispatchCampaign(ctx context.Context, campaignID uint64, stage string) (*TaskResult, error) {
	if !validStage(stage) {
		return nil, ErrStageInvalid
	}
	if _, err := s.loadCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.dispatch(ctx, campaignID, stage), nil
}

// TriggerStage 用户手动触发自己活动的某个阶段
func (s *autopilotServiceImpl) TriggerStage(ctx context.Context, userID, campaignID uint64, stage string) (*TaskResult, error) {
	if !validStage(stage) {
		return nil, ErrStageInvalid
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}
	return s.dispatch(ctx, campaignID, stage), nil
}

func (s *autopilotServiceImpl) dispatch(ctx context.Context, campaignID uint64, stage string) *TaskResult {
	task := &AutopilotTask{CampaignID: campaignID, Stage: stage, TraceID: logger.TraceID(ctx)}
	result, err := s.dispatcher.Dispatch(ctx, task)
	if err != nil {
		log.ErrorContext(ctx, "failed to dispatch autopilot task", "campaign_id", campaignID, "stage", stage, "err", err)
		return &TaskResult{Type: consts.ResultTypeError, Message: err.Error(), Data: task}
	}
	return result
}

func (s *autopilotServiceImpl) loadCampaign(ctx context.Context, campaignID uint64) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		log.ErrorContext(ctx, "failed to load campaign", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}
	return campaign, nil
}

func (s *autopilotServiceImpl) lock(ctx context.Context, stage string, campaignID uint64) (func(), error) {
	if s.deps.Locker == nil {
		return func() {}, nil
	}
	ttl := time.Duration(s.cfg.LockSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	unlock, ok, err := s.deps.Locker.Lock(ctx, stage+":"+strconv.FormatUint(campaignID, 10), ttl)
	if err != nil {
		log.ErrorContext(ctx, "failed to acquire autopilot lock", "campaign_id", campaignID, "stage", stage, "err", err)
		return nil, UnExpectedError
	}
	if !ok {
		return nil, ErrAutopilotBusy
	}
	return unlock, nil
}

func (s *autopilotServiceImpl) archive(ctx context.Context, campaignID uint64, name string, payload []byte) {
	if s.deps.Archiver == nil || len(payload) == 0 {
		return
	}
	if _, err := s.deps.Archiver.Archive(ctx, campaignID, name, payload); err != nil {
		log.WarnContext(ctx, "failed to archive search payload", "campaign_id", campaignID, "platform", name, "err", err)
	}
}

func (s *autopilotServiceImpl) indexPost(ctx context.Context, post *model.Post) {
	if s.deps.Indexer == nil {
		return
	}
	err := s.deps.Indexer.IndexPost(ctx, &es.PostES{
		ID:             post.ID,
		CampaignID:     post.CampaignID,
		Platform:       post.Platform,
		ExternalID:     post.ExternalID,
		URL:            post.URL,
		Author:         post.Author,
		Title:          post.Title,
		Content:        post.Content,
		Keyword:        post.Keyword,
		Status:         post.Status,
		RelevanceScore: post.RelevanceScore,
		CreatedAt:      post.CreatedAt,
	})
	if err != nil {
		log.WarnContext(ctx, "failed to index post", "post_id", post.ID, "err", err)
	}
}

func (s *autopilotServiceImpl) updateIndexStatus(ctx context.Context, postID uint64, status string) {
	if s.deps.Indexer == nil {
		return
	}
	if err := s.deps.Indexer.UpdateStatus(ctx, postID, status); err != nil {
		log.WarnContext(ctx, "failed to update indexed post status", "post_id", postID, "status", status, "err", err)
	}
}

func (s *autopilotServiceImpl) brief(campaign *model.Campaign) *llm.CampaignBrief {
	brief := &llm.CampaignBrief{
		CampaignID:         campaign.ID,
		ProductName:        campaign.ProductName,
		ProductDescription: campaign.ProductDescription,
		ProductURL:         campaign.ProductURL,
		Voice:              campaign.Voice,
		Keywords:           campaign.Terms(),
	}
	if campaign.Preference != nil {
		brief.Language = campaign.Preference.Language
	}
	return brief
}

func newPost(campaignID uint64, name string, raw *platform.RawPost, verdict *llm.FilterVerdict) *model.Post {
	return &model.Post{
		CampaignID:      campaignID,
		Platform:        name,
		ExternalID:      raw.ExternalID,
		URL:             util.TruncateRunes(raw.URL, 1024),
		Author:          util.TruncateRunes(raw.Author, 255),
		Title:           util.TruncateRunes(raw.Title, 512),
		Content:         raw.Content,
		Keyword:         util.TruncateRunes(raw.Keyword, 128),
		RelevanceScore:  verdict.Score,
		RelevanceReason: util.TruncateRunes(verdict.Reason, maxReasonRunes),
		Status:          model.StatusPending,
		PublishedAt:     raw.PublishedAt,
	}
}

// enabledPlatforms 未设置偏好或平台列表为空时启用全部平台
func enabledPlatforms(pref *model.PostPreference) []string {
	all := []string{model.PlatformTwitter, model.PlatformReddit, model.PlatformLinkedIn}
	if pref == nil || len(pref.Platforms) == 0 {
		return all
	}
	out := make([]string, 0, len(pref.Platforms))
	for _, name := range all {
		if pref.HasPlatform(name) {
			out = append(out, name)
		}
	}
	return out
}

func validStage(stage string) bool {
	return stage == consts.StageFetch || stage == consts.StagePost
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
