package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

// NewMongoMonitor 只记录失败与慢命令，LLM 轨迹文档较大，不打印命令正文
func NewMongoMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if evt.Duration > 200*time.Millisecond {
				log.WarnContext(ctx, "MongoDB Slow",
					log.String("command", evt.CommandName),
					log.Duration("latency", evt.Duration),
					log.Int64("request_id", evt.RequestID),
				)
			}
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.Any("err", evt.Failure),
			)
		},
	}
}
