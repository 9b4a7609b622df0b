package kafka

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// QueuedTask 投递成功后返回给调用方的数据
type QueuedTask struct {
	Task      *service.AutopilotTask `json:"task"`
	Topic     string                 `json:"topic"`
	Partition int32                  `json:"partition"`
	Offset    int64                  `json:"offset"`
}

// Dispatcher 将流水线任务投递到 Kafka，由消费者异步执行
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewDispatcher 使用配置创建同步生产者
func NewDispatcher(cfg config.KafkaConfig) (*Dispatcher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewDispatcherWithProducer(producer, cfg.Topic), nil
}

func NewDispatcherWithProducer(producer sarama.SyncProducer, topic string) *Dispatcher {
	return &Dispatcher{producer: producer, topic: topic}
}

// Dispatch 同一活动的任务使用相同 key，保证落在同一分区按序消费
func (d *Dispatcher) Dispatch(ctx context.Context, task *service.AutopilotTask) (*service.TaskResult, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, errors.Wrap(err, "marshal autopilot task")
	}

	partition, offset, err := d.producer.SendMessage(&sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(task.CampaignID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "send autopilot task for campaign %d", task.CampaignID)
	}

	log.InfoContext(ctx, "autopilot task queued",
		"campaign_id", task.CampaignID,
		"stage", task.Stage,
		"partition", partition,
		"offset", offset)

	return &service.TaskResult{
		Type:    consts.ResultTypeSuccess,
		Message: fmt.Sprintf("%s queued for campaign %d", task.Stage, task.CampaignID),
		Data: &QueuedTask{
			Task:      task,
			Topic:     d.topic,
			Partition: partition,
			Offset:    offset,
		},
	}, nil
}

func (d *Dispatcher) Close() error {
	return d.producer.Close()
}

var _ service.TaskDispatcher = (*Dispatcher)(nil)
