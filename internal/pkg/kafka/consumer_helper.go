package kafka

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/logger"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize     = 32
	batchTimeout  = 1 * time.Second
	maxAttempts   = 5
	maxRetryDelay = 5 * time.Second
)

var errEmptyEvent = errors.New("event type is empty")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session.Context(), batch, logic)
					markLast(session, batch)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session.Context(), batch, logic)
				markLast(session, batch)
				// 清空缓冲区 & 重值定时器
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session.Context(), batch, logic)
				markLast(session, batch)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，单条消息最多重试 maxAttempts 次
// 放弃的消息由定时修复任务兜底
func processBatch(ctx context.Context, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)

		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			msgCtx := logger.WithTraceID(ctx, traceIDOf(m))
			retryInterval := 100 * time.Millisecond

			for attempt := 1; ; attempt++ {
				err := logic(msgCtx, m)
				if err == nil {
					return
				}
				if attempt >= maxAttempts {
					log.ErrorContext(msgCtx, "give up message", "topic", m.Topic, "offset", m.Offset, "err", err)
					return
				}
				log.WarnContext(msgCtx, "process message error", "attempt", attempt, "err", err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(retryInterval):
				}
				retryInterval = min(retryInterval*2, maxRetryDelay)
			}
		}(msg)
	}

	wg.Wait()
}

func markLast(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage) {
	if len(messages) > 0 && session.Context().Err() == nil {
		session.MarkMessage(messages[len(messages)-1], "")
	}
}

// ToDomainEvent 将kafka消息转换为领域事件
func ToDomainEvent(msg *sarama.ConsumerMessage) (*model.DomainEvent, error) {
	var event model.DomainEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, errEmptyEvent
	}
	return &event, nil
}

func traceIDOf(msg *sarama.ConsumerMessage) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == logger.TraceIDKey {
			return string(h.Value)
		}
	}
	return ""
}
