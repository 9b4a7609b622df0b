package kafka

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// ConsumerManager 管理流水线任务的消费者组
type ConsumerManager struct {
	topic    string
	consumer sarama.ConsumerGroup
	handler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg config.KafkaConfig, runner service.TaskRunner) (*ConsumerManager, error) {
	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, newSaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka consumer group")
	}
	return &ConsumerManager{
		topic:    cfg.Topic,
		consumer: consumer,
		handler:  NewTaskHandler(runner),
	}, nil
}

// Start 阻塞消费直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.consumer.Errors() {
			log.Error("Kafka consumer group error", "err", err)
		}
	}()

	log.Info("Autopilot task consumer started", "topic", m.topic)
	for {
		if err := m.consumer.Consume(ctx, []string{m.topic}, m.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.Error("Error from consumer", "err", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Info("Kafka Manager shutting down...")
	if err := m.consumer.Close(); err != nil {
		log.Error("Failed to close autopilot consumer", "err", err)
	}
	return nil
}
