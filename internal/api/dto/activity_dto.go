package dto

import "time"

type ActivityDTO struct {
	ID         uint64    `json:"id"`
	CampaignID uint64    `json:"campaign_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// LLMTraceDTO 模型调用记录
type LLMTraceDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model"`
	TraceID   string    `json:"trace_id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Error     string    `json:"error"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
