package kafka

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/docstore"
	"Rankify/internal/pkg/logger"
	"Rankify/internal/repository"
	"Rankify/internal/service"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"
)

func eventMessage(e model.DomainEvent) *sarama.ConsumerMessage {
	value, _ := json.Marshal(e)
	return &sarama.ConsumerMessage{Topic: "rankify.events", Value: value}
}

func TestEventProducer(t *testing.T) {
	convey.Convey("Events are published as JSON keyed by subject", t, func() {
		sp := mocks.NewSyncProducer(t, nil)
		sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var e model.DomainEvent
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			if e.Type != model.EventUserFollowed || e.TargetID != "u2" {
				return errors.New("unexpected event payload")
			}
			return nil
		})
		sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		p := NewEventProducerWith(sp, "rankify.events")
		ctx := logger.WithTraceID(context.Background(), "t-1")
		p.Publish(ctx, model.DomainEvent{Type: model.EventUserFollowed, SubjectID: "u1", TargetID: "u2", OccurredAt: time.Now()})
		// 发送失败不向调用方传播
		p.Publish(ctx, model.DomainEvent{Type: model.EventRankingLiked, SubjectID: "u1", RankingID: "r1"})

		convey.So(p.Close(), convey.ShouldBeNil)
	})
}

func TestToDomainEvent(t *testing.T) {
	convey.Convey("Malformed messages are rejected", t, func() {
		_, err := ToDomainEvent(&sarama.ConsumerMessage{Value: []byte("{")})
		convey.So(err, convey.ShouldNotBeNil)
		_, err = ToDomainEvent(&sarama.ConsumerMessage{Value: []byte(`{"subjectId":"u1"}`)})
		convey.So(errors.Is(err, errEmptyEvent), convey.ShouldBeTrue)

		e, err := ToDomainEvent(eventMessage(model.DomainEvent{Type: model.EventUserUnfollowed, SubjectID: "a", TargetID: "b"}))
		convey.So(err, convey.ShouldBeNil)
		convey.So(e.IsSocial(), convey.ShouldBeTrue)
	})

	convey.Convey("trace_id headers are picked up", t, func() {
		msg := &sarama.ConsumerMessage{Headers: []*sarama.RecordHeader{{Key: []byte("trace_id"), Value: []byte("abc")}}}
		convey.So(traceIDOf(msg), convey.ShouldEqual, "abc")
		convey.So(traceIDOf(&sarama.ConsumerMessage{}), convey.ShouldEqual, "")
	})
}

func TestSocialEdgeHandler(t *testing.T) {
	convey.Convey("Given a profile missing the follower side of an edge", t, func() {
		ctx := context.Background()
		repo := repository.NewUserProfileRepo(docstore.NewMemoryStore())
		for _, id := range []string{"a", "b"} {
			convey.So(repo.Create(ctx, &model.UserProfile{ID: id, DisplayName: id}), convey.ShouldBeNil)
		}
		convey.So(repo.AddFollowing(ctx, "a", "b"), convey.ShouldBeNil)

		graph := service.NewSocialGraphService(repo, service.NopRepairQueue, service.NopPublisher)
		h := NewSocialEdgeHandler(graph)

		convey.Convey("A follow event repairs it", func() {
			err := h.logic(ctx, eventMessage(model.DomainEvent{Type: model.EventUserFollowed, SubjectID: "a", TargetID: "b"}))
			convey.So(err, convey.ShouldBeNil)
			b, _ := repo.GetByID(ctx, "b")
			convey.So(b.Followers, convey.ShouldResemble, []string{"a"})
		})

		convey.Convey("Non-social and malformed events are skipped", func() {
			convey.So(h.logic(ctx, eventMessage(model.DomainEvent{Type: model.EventRankingLiked, SubjectID: "a"})), convey.ShouldBeNil)
			convey.So(h.logic(ctx, &sarama.ConsumerMessage{Value: []byte("nope")}), convey.ShouldBeNil)
			convey.So(h.logic(ctx, eventMessage(model.DomainEvent{Type: model.EventUserFollowed, SubjectID: "a", TargetID: "a"})), convey.ShouldBeNil)
			b, _ := repo.GetByID(ctx, "b")
			convey.So(b.Followers, convey.ShouldBeEmpty)
		})
	})
}

func TestProcessBatch(t *testing.T) {
	convey.Convey("Failed messages are retried until they succeed", t, func() {
		var calls atomic.Int32
		logic := func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		}
		processBatch(context.Background(), []*sarama.ConsumerMessage{{}}, logic)
		convey.So(calls.Load(), convey.ShouldEqual, 3)
	})

	convey.Convey("Retries stop when the session ends", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32
		logic := func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			calls.Add(1)
			cancel()
			return errors.New("down")
		}
		processBatch(ctx, []*sarama.ConsumerMessage{{}}, logic)
		convey.So(calls.Load(), convey.ShouldEqual, 1)
	})
}
