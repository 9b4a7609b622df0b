package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const llmTraceCollection = "llm_traces"

// LLMTrace 一次模型调用的输入输出
type LLMTrace struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID uint64             `bson:"campaign_id" json:"campaign_id"`
	Kind       string             `bson:"kind" json:"kind"`
	Model      string             `bson:"model" json:"model"`
	TraceID    string             `bson:"trace_id,omitempty" json:"trace_id,omitempty"`
	Input      string             `bson:"input" json:"input"`
	Output     string             `bson:"output" json:"output"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	LatencyMs  int64              `bson:"latency_ms" json:"latency_ms"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
