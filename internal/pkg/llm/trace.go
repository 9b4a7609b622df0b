package llm

import (
	"context"
	"time"
)

const (
	KindPostFilter      = "post_filter"
	KindCommentGenerate = "comment_generate"
)

// Trace 一次模型调用的记录
type Trace struct {
	Kind       string
	CampaignID uint64
	Model      string
	Input      string
	Output     string
	Error      string
	Latency    time.Duration
	CreatedAt  time.Time
}

// TraceRecorder 模型调用落库，实现方需自行吞掉错误，不影响主流程
type TraceRecorder interface {
	Record(ctx context.Context, trace *Trace)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *Trace) {}
