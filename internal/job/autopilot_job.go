package job

import (
	"BuzzDaddy/internal/pkg/logger"
	"BuzzDaddy/internal/service"
	"context"
	log "log/slog"
	"time"
)

// StageRunner 对全部开启自动驾驶的活动执行某个阶段
type StageRunner interface {
	RunAll(ctx context.Context, stage string) (*service.RunAllReport, error)
}

// AutopilotJob 定时触发流水线的某个阶段
type AutopilotJob struct {
	stage  string
	runner StageRunner
}

func NewAutopilotJob(stage string, runner StageRunner) *AutopilotJob {
	return &AutopilotJob{
		stage:  stage,
		runner: runner,
	}
}

func (s *AutopilotJob) Stage() string {
	return s.stage
}

func (s *AutopilotJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-"+s.stage+"-", "")
	start := time.Now()

	report, err := s.runner.RunAll(ctx, s.stage)
	if err != nil {
		log.ErrorContext(ctx, "autopilot job failed", "stage", s.stage, "err", err)
		return
	}

	log.InfoContext(ctx, "autopilot job finished",
		"stage", s.stage,
		"campaigns", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed", time.Since(start))
}
