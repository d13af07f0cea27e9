package kafka

import (
	"Rankify/internal/api/config"
	"Rankify/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	socialConsumer sarama.ConsumerGroup
	socialHandler  sarama.ConsumerGroupHandler
	topic          string
}

func NewConsumerManager(cfg config.KafkaConfig, graph service.SocialGraphService) (*ConsumerManager, error) {
	socialConsumer, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.SocialGroupID, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		socialConsumer: socialConsumer,
		socialHandler:  NewSocialEdgeHandler(graph),
		topic:          cfg.EventTopic,
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.socialConsumer.Errors() {
			log.Error("Error from social consumer", "err", err)
		}
	}()

	go func() {
		log.Info("Social edge consumer started", "topic", m.topic)
		for {
			if err := m.socialConsumer.Consume(ctx, []string{m.topic}, m.socialHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.socialConsumer.Close(); err != nil {
		log.Error("Failed to close social consumer", "err", err)
	}
	return nil
}
