package kafka

import (
	"BuzzDaddy/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 统一初始化生产者与消费者共用的 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "buzzdaddy-autopilot"

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Return.Successes = true
	c.Producer.Retry.Max = 3
	c.Producer.Partitioner = sarama.NewHashPartitioner

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest

	c.Consumer.Group.Session.Timeout = seconds(kafkaCfg.Consumer.SessionTimeout, c.Consumer.Group.Session.Timeout)
	c.Consumer.Group.Heartbeat.Interval = seconds(kafkaCfg.Consumer.HeartbeatInterval, c.Consumer.Group.Heartbeat.Interval)
	c.Consumer.Group.Rebalance.Timeout = seconds(kafkaCfg.Consumer.RebalanceTimeout, c.Consumer.Group.Rebalance.Timeout)
	c.Consumer.Offsets.AutoCommit.Enable = false
	c.Consumer.MaxProcessingTime = seconds(kafkaCfg.Consumer.MaxProcessingTime, c.Consumer.MaxProcessingTime)

	return c
}

// seconds 未配置时保留 sarama 默认值
func seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}
