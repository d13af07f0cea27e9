package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const (
	defaultSlowMongo = 200 * time.Millisecond
	maxCommandLog    = 1000
)

// NewMongoMonitor 成功命令只在 debug 级别输出，慢查询与失败始终记录
func NewMongoMonitor(slow time.Duration) *event.CommandMonitor {
	if slow <= 0 {
		slow = defaultSlowMongo
	}
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			if !log.Default().Enabled(ctx, log.LevelDebug) {
				return
			}
			cmd := evt.Command.String()
			if len(cmd) > maxCommandLog {
				cmd = cmd[:maxCommandLog] + "...[truncated]"
			}
			log.DebugContext(ctx, "MongoDB Started",
				"command", evt.CommandName, "database", evt.DatabaseName, "request_id", evt.RequestID, "cmd_detail", cmd)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if evt.Duration > slow {
				log.WarnContext(ctx, "MongoDB Slow", finishedAttrs(evt.CommandFinishedEvent)...)
				return
			}
			log.DebugContext(ctx, "MongoDB Success", finishedAttrs(evt.CommandFinishedEvent)...)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error", append(finishedAttrs(evt.CommandFinishedEvent), "err", evt.Failure)...)
		},
	}
}

func finishedAttrs(evt event.CommandFinishedEvent) []any {
	return []any{"command", evt.CommandName, "latency", evt.Duration, "request_id", evt.RequestID}
}
