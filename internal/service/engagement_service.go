package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/metrics"
	"Rankify/internal/pkg/util"
	"Rankify/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const MaxCommentLength = 1000

type EngagementService interface {
	// Like 点赞计数 +1，不去重，重复调用会重复计数
	Like(ctx context.Context, rankingID, userID string) error
	AddComment(ctx context.Context, rankingID, authorID, text string) (*model.Comment, error)
	ListComments(ctx context.Context, rankingID string) ([]model.Comment, error)
}

type EngagementServiceImpl struct {
	rankingRepo repository.RankingRepo
	cache       RankingCache
	publisher   EventPublisher
}

func NewEngagementService(rankingRepo repository.RankingRepo, cache RankingCache, publisher EventPublisher) EngagementService {
	if cache == nil {
		cache = NopCache
	}
	if publisher == nil {
		publisher = NopPublisher
	}
	return &EngagementServiceImpl{rankingRepo: rankingRepo, cache: cache, publisher: publisher}
}

func (s *EngagementServiceImpl) Like(ctx context.Context, rankingID, userID string) error {
	if rankingID == "" {
		return errors.WithMessage(model.ErrValidation, "ranking id is required")
	}
	if err := s.rankingRepo.IncrementLikes(ctx, rankingID, 1); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, rankingID)

	metrics.RecordLike()
	s.publisher.Publish(ctx, model.DomainEvent{
		Type:       model.EventRankingLiked,
		SubjectID:  userID,
		RankingID:  rankingID,
		OccurredAt: util.Now(),
	})
	return nil
}

func (s *EngagementServiceImpl) AddComment(ctx context.Context, rankingID, authorID, text string) (*model.Comment, error) {
	if authorID == "" {
		return nil, errors.WithMessage(model.ErrValidation, "author is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.WithMessage(model.ErrValidation, "comment is empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, errors.WithMessagef(model.ErrValidation, "comment longer than %d characters", MaxCommentLength)
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: util.Now(),
	}
	if err := s.rankingRepo.AppendComment(ctx, rankingID, comment); err != nil {
		log.WarnContext(ctx, "append comment failed", "ranking_id", rankingID, "err", err)
		return nil, err
	}
	s.cache.Invalidate(ctx, rankingID)

	metrics.RecordComment()
	s.publisher.Publish(ctx, model.DomainEvent{
		Type:       model.EventCommentAdded,
		SubjectID:  authorID,
		RankingID:  rankingID,
		OccurredAt: comment.CreatedAt,
	})
	return &comment, nil
}

func (s *EngagementServiceImpl) ListComments(ctx context.Context, rankingID string) ([]model.Comment, error) {
	ranking, err := s.rankingRepo.GetByID(ctx, rankingID)
	if err != nil {
		return nil, err
	}
	if ranking.Comments == nil {
		return []model.Comment{}, nil
	}
	return ranking.Comments, nil
}
