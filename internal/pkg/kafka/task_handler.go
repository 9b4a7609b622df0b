package kafka

import (
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/logger"
	"BuzzDaddy/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// TaskHandler 消费流水线任务并在本进程执行
type TaskHandler struct {
	runner service.TaskRunner
}

func NewTaskHandler(runner service.TaskRunner) *TaskHandler {
	return &TaskHandler{runner: runner}
}

func (s *TaskHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("autopilot task consumer setup")
	return nil
}

func (s *TaskHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("autopilot task consumer cleanup")
	return nil
}

func (s *TaskHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-autopilot consume claim", "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-autopilot process batch error", "err", err)
		return err
	}
	log.Info("topic-autopilot consume claim end")
	return nil
}

func (s *TaskHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	task, err := DecodeTask(msg.Value)
	if err != nil {
		// 格式错误的消息重试也无法恢复，直接丢弃
		log.Error("drop malformed autopilot task", "offset", msg.Offset, "err", err)
		return nil
	}

	ctx = logger.WithTraceID(ctx, "kafka-", task.TraceID)
	result := s.runner.RunTask(ctx, task)
	if result.Type == consts.ResultTypeError {
		log.WarnContext(ctx, "autopilot task finished with error",
			"campaign_id", task.CampaignID,
			"stage", task.Stage,
			"message", result.Message)
		if result.Retryable() {
			return errors.Wrapf(result.Err, "%s task for campaign %d", task.Stage, task.CampaignID)
		}
		return nil
	}
	log.InfoContext(ctx, "autopilot task finished",
		"campaign_id", task.CampaignID,
		"stage", task.Stage,
		"message", result.Message)
	return nil
}

// DecodeTask 解析任务消息
func DecodeTask(value []byte) (*service.AutopilotTask, error) {
	var task service.AutopilotTask
	if err := json.Unmarshal(value, &task); err != nil {
		return nil, errors.Wrap(err, "unmarshal autopilot task")
	}
	if task.CampaignID == 0 {
		return nil, errors.New("campaign_id is empty")
	}
	if task.Stage != consts.StageFetch && task.Stage != consts.StagePost {
		return nil, errors.Errorf("unknown stage %q", task.Stage)
	}
	return &task, nil
}
