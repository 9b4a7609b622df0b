package llm

import (
	"BuzzDaddy/internal/api/config"
	log "log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

var llmClient llms.Model

var textModel string
var minScore = 60

var postFilterPrompt string
var commentGeneratePrompt string

var recorder TraceRecorder = nopRecorder{}

// TextSem 限制同时在途的模型请求数，InitLLM 按 max_parallel 重建
var TextSem = semaphore.NewWeighted(5)

// InitLLM 初始化 OpenAI 兼容模型与 prompt
func InitLLM(cfg config.LLMConfig, traceRecorder TraceRecorder) error {
	llm, err := openai.New(
		openai.WithModel(cfg.TextModel),
		openai.WithToken(cfg.ApiKey),
		openai.WithBaseURL(cfg.URL),
	)
	if err != nil {
		log.Error("LLM client init failed", "err", err)
		return err
	}

	llmClient = llm
	textModel = cfg.TextModel
	if cfg.MinScore > 0 {
		minScore = cfg.MinScore
	}
	if cfg.MaxParallel > 0 {
		TextSem = semaphore.NewWeighted(cfg.MaxParallel)
	}
	if traceRecorder != nil {
		recorder = traceRecorder
	}

	// 从 prompt txt 文件中读取 prompt
	postFilterPrompt = readPrompt(cfg.PromptsPath.PostFilter)
	commentGeneratePrompt = readPrompt(cfg.PromptsPath.CommentGenerate)

	return nil
}
