package service

import (
	"context"
	"errors"
)

// TaskRunner 同步执行阶段任务
type TaskRunner interface {
	RunTask(ctx context.Context, task *AutopilotTask) *TaskResult
}

// InlineDispatcher 在当前进程内顺序执行任务
type InlineDispatcher struct {
	runner TaskRunner
}

func NewInlineDispatcher(runner TaskRunner) *InlineDispatcher {
	return &InlineDispatcher{runner: runner}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task *AutopilotTask) (*TaskResult, error) {
	return d.runner.RunTask(ctx, task), nil
}

// Retryable 判断失败的任务是否值得重新执行，参数错误、活动不存在和并发冲突重试也不会成功
func (r *TaskResult) Retryable() bool {
	if r == nil || r.Err == nil {
		return false
	}
	for _, permanent := range []error{ErrParamInvalid, ErrCampaignNotFound, ErrStageInvalid, ErrAutopilotBusy} {
		if errors.Is(r.Err, permanent) {
			return false
		}
	}
	return true
}
