package mongo

import (
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const traceWriteTimeout = 3 * time.Second

type LLMTraceRepo interface {
	Create(ctx context.Context, trace *LLMTrace) error
	ListByCampaign(ctx context.Context, campaignID uint64, kind string, limit, offset int64) ([]*LLMTrace, error)
}

type llmTraceRepoImpl struct {
	col *mongo.Collection
}

func NewLLMTraceRepo(db *mongo.Database) LLMTraceRepo {
	return &llmTraceRepoImpl{
		col: db.Collection(llmTraceCollection),
	}
}

func (s *llmTraceRepoImpl) Create(ctx context.Context, trace *LLMTrace) error {
	_, err := s.col.InsertOne(ctx, trace)
	return err
}

// ListByCampaign 按时间倒序分页，kind 为空时不过滤
func (s *llmTraceRepoImpl) ListByCampaign(ctx context.Context, campaignID uint64, kind string, limit, offset int64) ([]*LLMTrace, error) {
	filter := bson.M{"campaign_id": campaignID}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*LLMTrace, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// TraceRecorder 把 llm.Trace 写入 Mongo，写失败只记日志
type TraceRecorder struct {
	repo LLMTraceRepo
}

func NewTraceRecorder(repo LLMTraceRepo) *TraceRecorder {
	return &TraceRecorder{repo: repo}
}

func (r *TraceRecorder) Record(ctx context.Context, trace *llm.Trace) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), traceWriteTimeout)
	defer cancel()

	doc := &LLMTrace{
		CampaignID: trace.CampaignID,
		Kind:       trace.Kind,
		Model:      trace.Model,
		TraceID:    logger.TraceID(ctx),
		Input:      trace.Input,
		Output:     trace.Output,
		Error:      trace.Error,
		LatencyMs:  trace.Latency.Milliseconds(),
		CreatedAt:  trace.CreatedAt,
	}
	if err := r.repo.Create(writeCtx, doc); err != nil {
		log.WarnContext(ctx, "save llm trace failed", "kind", trace.Kind, "campaign_id", trace.CampaignID, "err", err)
	}
}

var _ llm.TraceRecorder = (*TraceRecorder)(nil)
