package kafka

import (
	"Rankify/internal/pkg/metrics"
	"Rankify/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// SocialEdgeHandler 消费关注类事件，逐条校正关注边的两侧
type SocialEdgeHandler struct {
	graph service.SocialGraphService
}

func NewSocialEdgeHandler(graph service.SocialGraphService) *SocialEdgeHandler {
	return &SocialEdgeHandler{graph: graph}
}

func (s *SocialEdgeHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("social edge consumer setup")
	return nil
}

func (s *SocialEdgeHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("social edge consumer cleanup")
	return nil
}

func (s *SocialEdgeHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("social edge process batch error", "err", err)
		return err
	}
	return nil
}

func (s *SocialEdgeHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := ToDomainEvent(msg)
	if err != nil {
		log.WarnContext(ctx, "skip malformed event", "offset", msg.Offset, "err", err)
		metrics.RecordEvent("in", "unknown", "malformed")
		return nil
	}
	if !event.IsSocial() {
		return nil
	}

	changed, err := s.graph.RepairEdge(ctx, event.SubjectID, event.TargetID)
	if err != nil {
		metrics.RecordEvent("in", event.Type, "error")
		if service.IsRetryable(err) {
			return err
		}
		log.WarnContext(ctx, "drop unrepairable edge", "follower_id", event.SubjectID, "target_id", event.TargetID, "err", err)
		return nil
	}

	metrics.RecordEvent("in", event.Type, "ok")
	if changed {
		metrics.RecordRepair("event", "fixed")
	} else {
		metrics.RecordRepair("event", "consistent")
	}
	return nil
}
