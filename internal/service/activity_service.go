package service

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/mongo"
	"BuzzDaddy/internal/pkg/util"
	"BuzzDaddy/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

const maxActivityDetail = 1024

type ActivityService interface {
	Record(ctx context.Context, campaignID, userID uint64, action, detail string)
	ListActivities(ctx context.Context, userID, campaignID uint64, page, pageSize int) (*dto.PageDTO[*dto.ActivityDTO], error)
	ListTraces(ctx context.Context, userID, campaignID uint64, kind string, page, pageSize int) ([]*dto.LLMTraceDTO, error)
}

type activityServiceImpl struct {
	activityRepo repository.ActivityRepo
	campaignRepo repository.CampaignRepo
	traceRepo    mongo.LLMTraceRepo
}

// NewActivityService traceRepo 为 nil 时不提供模型调用记录
func NewActivityService(
	activityRepo repository.ActivityRepo,
	campaignRepo repository.CampaignRepo,
	traceRepo mongo.LLMTraceRepo,
) ActivityService {
	return &activityServiceImpl{
		activityRepo: activityRepo,
		campaignRepo: campaignRepo,
		traceRepo:    traceRepo,
	}
}

// Record 追加一条活动记录，失败只记日志
func (s *activityServiceImpl) Record(ctx context.Context, campaignID, userID uint64, action, detail string) {
	activity := &model.ActivityLog{
		CampaignID: campaignID,
		UserID:     userID,
		Action:     action,
		Detail:     util.TruncateRunes(detail, maxActivityDetail),
	}
	if err := s.activityRepo.CreateActivity(ctx, activity); err != nil {
		log.WarnContext(ctx, "failed to record activity", "campaign_id", campaignID, "action", action, "err", err)
	}
}

func (s *activityServiceImpl) ListActivities(ctx context.Context, userID, campaignID uint64, page, pageSize int) (*dto.PageDTO[*dto.ActivityDTO], error) {
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}
	p := newPaging(page, pageSize)
	activities, total, err := s.activityRepo.ListActivities(ctx, campaignID, p.offset(), p.size)
	if err != nil {
		log.ErrorContext(ctx, "failed to list activities", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	items := make([]*dto.ActivityDTO, 0, len(activities))
	if err = copier.Copy(&items, &activities); err != nil {
		return nil, UnExpectedError
	}
	return &dto.PageDTO[*dto.ActivityDTO]{Items: items, Total: total, Page: p.page, PageSize: p.size}, nil
}

func (s *activityServiceImpl) ListTraces(ctx context.Context, userID, campaignID uint64, kind string, page, pageSize int) ([]*dto.LLMTraceDTO, error) {
	if s.traceRepo == nil {
		return nil, ErrTraceUnavailable
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}
	p := newPaging(page, pageSize)
	traces, err := s.traceRepo.ListByCampaign(ctx, campaignID, kind, int64(p.size), int64(p.offset()))
	if err != nil {
		log.ErrorContext(ctx, "failed to list llm traces", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	items := make([]*dto.LLMTraceDTO, 0, len(traces))
	for _, trace := range traces {
		items = append(items, &dto.LLMTraceDTO{
			ID:        trace.ID.Hex(),
			Kind:      trace.Kind,
			Model:     trace.Model,
			TraceID:   trace.TraceID,
			Input:     trace.Input,
			Output:    trace.Output,
			Error:     trace.Error,
			LatencyMs: trace.LatencyMs,
			CreatedAt: trace.CreatedAt,
		})
	}
	return items, nil
}
