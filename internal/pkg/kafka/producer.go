package kafka

import (
	"Rankify/internal/api/config"
	"Rankify/internal/model"
	"Rankify/internal/pkg/logger"
	"Rankify/internal/pkg/metrics"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// EventProducer 将领域事件同步写入 Kafka，失败只记录日志
type EventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewEventProducer(cfg config.KafkaConfig) (*EventProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewEventProducerWith(producer, cfg.EventTopic), nil
}

func NewEventProducerWith(producer sarama.SyncProducer, topic string) *EventProducer {
	return &EventProducer{producer: producer, topic: topic}
}

func (p *EventProducer) Publish(ctx context.Context, event model.DomainEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		log.ErrorContext(ctx, "marshal event error", "type", event.Type, "err", err)
		metrics.RecordEvent("out", event.Type, "error")
		return
	}

	// 同一主体的事件落在同一分区，保证顺序
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SubjectID),
		Value: sarama.ByteEncoder(value),
	}
	if traceID := logger.TraceID(ctx); traceID != "" {
		msg.Headers = []sarama.RecordHeader{{Key: []byte(logger.TraceIDKey), Value: []byte(traceID)}}
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		log.ErrorContext(ctx, "publish event error", "type", event.Type, "err", err)
		metrics.RecordEvent("out", event.Type, "error")
		return
	}
	metrics.RecordEvent("out", event.Type, "ok")
	log.DebugContext(ctx, "event published", "type", event.Type, "partition", partition, "offset", offset)
}

func (p *EventProducer) Close() error {
	return p.producer.Close()
}
