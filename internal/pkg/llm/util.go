package llm

import (
	"BuzzDaddy/internal/pkg/metrics"
	"context"
	"errors"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

var ErrEmptyResponse = errors.New("llm returned no choices")
var ErrContentRejected = errors.New("llm refused the request")

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("read prompt file failed", "file", file, "err", err)
		return ""
	}
	return string(data)
}

// fetchModel 发送一轮 system+human 对话，返回首个候选文本
func fetchModel(ctx context.Context, kind string, campaignID uint64, systemPrompt string, userPrompt string, temp float64) (string, error) {
	if llmClient == nil {
		return "", errors.New("llm client not initialized")
	}
	if err := TextSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer TextSem.Release(1)

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	start := time.Now()
	resp, err := llmClient.GenerateContent(ctx, messages,
		llms.WithModel(textModel),
		llms.WithTemperature(temp),
		llms.WithJSONMode(),
	)
	elapsed := time.Since(start)
	metrics.ObserveLLM(kind, elapsed, err)

	output := ""
	if err == nil {
		switch {
		case resp == nil || len(resp.Choices) == 0:
			err = ErrEmptyResponse
		case resp.Choices[0].StopReason == "content_filter":
			err = ErrContentRejected
		default:
			output = resp.Choices[0].Content
		}
	}

	recorder.Record(ctx, &Trace{
		Kind:       kind,
		CampaignID: campaignID,
		Model:      textModel,
		Input:      userPrompt,
		Output:     output,
		Error:      errString(err),
		Latency:    elapsed,
		CreatedAt:  start,
	})

	if err != nil {
		log.ErrorContext(ctx, "llm request failed", "kind", kind, "campaign_id", campaignID, "err", err)
		return "", err
	}
	log.InfoContext(ctx, "llm request success", "kind", kind, "campaign_id", campaignID, "latency", elapsed)
	return output, nil
}

// cleanJSON 去掉模型偶尔包裹的 markdown 代码块
func cleanJSON(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
