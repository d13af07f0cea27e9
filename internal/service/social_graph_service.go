package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/metrics"
	"Rankify/internal/pkg/util"
	"Rankify/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const repairFetchConcurrency = 8

type FollowCounts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// RepairReport 一次修复中补齐与移除的 followers 记录
type RepairReport struct {
	UserID  string   `json:"userId"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

func (r *RepairReport) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

type SocialGraphService interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	// RepairEdge 以 follower.following 为准修正 target.followers，返回是否有改动
	RepairEdge(ctx context.Context, followerID, targetID string) (bool, error)
	RepairUser(ctx context.Context, userID string) (*RepairReport, error)
	ListFollowers(ctx context.Context, userID string, limit, offset int) ([]string, error)
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]string, error)
	GetCounts(ctx context.Context, userID string) (*FollowCounts, error)
}

type SocialGraphServiceImpl struct {
	profileRepo repository.UserProfileRepo
	repairQueue RepairQueue
	publisher   EventPublisher
}

func NewSocialGraphService(profileRepo repository.UserProfileRepo, repairQueue RepairQueue, publisher EventPublisher) SocialGraphService {
	if repairQueue == nil {
		repairQueue = NopRepairQueue
	}
	if publisher == nil {
		publisher = NopPublisher
	}
	return &SocialGraphServiceImpl{profileRepo: profileRepo, repairQueue: repairQueue, publisher: publisher}
}

// Follow 两阶段写入: 先写关注者的 following，再写被关注者的 followers
// 第二阶段失败时登记修复并返回 ErrStoreUnavailable
func (s *SocialGraphServiceImpl) Follow(ctx context.Context, followerID, targetID string) error {
	follower, target, err := s.loadPair(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	hasForward := follower.IsFollowing(targetID)
	hasBack := target.HasFollower(followerID)
	if hasForward && hasBack {
		metrics.RecordFollowOp("follow", "noop")
		return nil
	}

	if !hasForward {
		if err = s.profileRepo.AddFollowing(ctx, followerID, targetID); err != nil {
			return s.failed(ctx, "follow", followerID, targetID, err, false)
		}
	}
	if !hasBack {
		if err = s.profileRepo.AddFollower(ctx, targetID, followerID); err != nil {
			return s.failed(ctx, "follow", followerID, targetID, err, true)
		}
	}

	metrics.RecordFollowOp("follow", "applied")
	s.publish(ctx, model.EventUserFollowed, followerID, targetID)
	return nil
}

func (s *SocialGraphServiceImpl) Unfollow(ctx context.Context, followerID, targetID string) error {
	follower, target, err := s.loadPair(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	hasForward := follower.IsFollowing(targetID)
	hasBack := target.HasFollower(followerID)
	if !hasForward && !hasBack {
		metrics.RecordFollowOp("unfollow", "noop")
		return nil
	}

	if hasForward {
		if err = s.profileRepo.RemoveFollowing(ctx, followerID, targetID); err != nil {
			return s.failed(ctx, "unfollow", followerID, targetID, err, false)
		}
	}
	if hasBack {
		if err = s.profileRepo.RemoveFollower(ctx, targetID, followerID); err != nil {
			return s.failed(ctx, "unfollow", followerID, targetID, err, true)
		}
	}

	metrics.RecordFollowOp("unfollow", "applied")
	s.publish(ctx, model.EventUserUnfollowed, followerID, targetID)
	return nil
}

func (s *SocialGraphServiceImpl) RepairEdge(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == "" || targetID == "" || followerID == targetID {
		return false, pkgerrors.WithMessage(model.ErrValidation, "invalid edge")
	}

	target, err := s.profileRepo.GetByID(ctx, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// 关注者资料不存在时视为未关注
	following := false
	follower, err := s.profileRepo.GetByID(ctx, followerID)
	switch {
	case err == nil:
		following = follower.IsFollowing(targetID)
	case !errors.Is(err, model.ErrNotFound):
		return false, err
	}

	hasBack := target.HasFollower(followerID)
	switch {
	case following && !hasBack:
		err = s.profileRepo.AddFollower(ctx, targetID, followerID)
	case !following && hasBack:
		err = s.profileRepo.RemoveFollower(ctx, targetID, followerID)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	log.InfoContext(ctx, "follow edge repaired", "follower_id", followerID, "target_id", targetID, "following", following)
	return true, nil
}

// RepairUser 以该用户的 following 为准，修正所有相关资料的 followers
func (s *SocialGraphServiceImpl) RepairUser(ctx context.Context, userID string) (*RepairReport, error) {
	user, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := &RepairReport{UserID: userID, Added: []string{}, Removed: []string{}}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repairFetchConcurrency)
	for _, targetID := range user.Following {
		if targetID == userID {
			continue
		}
		g.Go(func() error {
			target, err := s.profileRepo.GetByID(gctx, targetID)
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if target.HasFollower(userID) {
				return nil
			}
			if err = s.profileRepo.AddFollower(gctx, targetID, userID); err != nil {
				return err
			}
			mu.Lock()
			report.Added = append(report.Added, targetID)
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	followedBy, err := s.profileRepo.ListFollowedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range followedBy {
		if user.IsFollowing(p.ID) {
			continue
		}
		if err = s.profileRepo.RemoveFollower(ctx, p.ID, userID); err != nil {
			return nil, err
		}
		report.Removed = append(report.Removed, p.ID)
	}

	if report.Changed() {
		log.InfoContext(ctx, "user follow edges repaired", "user_id", userID, "added", len(report.Added), "removed", len(report.Removed))
	}
	return report, nil
}

func (s *SocialGraphServiceImpl) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return window(profile.Followers, limit, offset), nil
}

func (s *SocialGraphServiceImpl) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return window(profile.Following, limit, offset), nil
}

func (s *SocialGraphServiceImpl) GetCounts(ctx context.Context, userID string) (*FollowCounts, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FollowCounts{Followers: len(profile.Followers), Following: len(profile.Following)}, nil
}

// loadPair 并发读取双方资料
func (s *SocialGraphServiceImpl) loadPair(ctx context.Context, followerID, targetID string) (*model.UserProfile, *model.UserProfile, error) {
	if followerID == "" || targetID == "" {
		return nil, nil, pkgerrors.WithMessage(model.ErrValidation, "user id is required")
	}
	if followerID == targetID {
		return nil, nil, pkgerrors.WithMessage(model.ErrInvalidOperation, "cannot follow yourself")
	}

	var follower, target *model.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		follower, err = s.profileRepo.GetByID(gctx, followerID)
		return err
	})
	g.Go(func() (err error) {
		target, err = s.profileRepo.GetByID(gctx, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return follower, target, nil
}

// failed 写入失败后结果未知，登记修复；第二阶段失败统一报告为存储不可用
func (s *SocialGraphServiceImpl) failed(ctx context.Context, op, followerID, targetID string, err error, partial bool) error {
	if markErr := s.repairQueue.MarkDirty(context.WithoutCancel(ctx), followerID, targetID); markErr != nil {
		log.ErrorContext(ctx, "mark follow edge dirty failed", "follower_id", followerID, "target_id", targetID, "err", markErr)
	}
	if !partial {
		metrics.RecordFollowOp(op, "error")
		return err
	}
	metrics.RecordFollowOp(op, "partial")
	log.ErrorContext(ctx, "follow edge partially applied", "op", op, "follower_id", followerID, "target_id", targetID, "err", err)
	if errors.Is(err, model.ErrStoreUnavailable) {
		return pkgerrors.WithMessage(err, op+" partially applied")
	}
	return pkgerrors.WithMessage(model.ErrStoreUnavailable, op+" partially applied: "+err.Error())
}

func (s *SocialGraphServiceImpl) publish(ctx context.Context, eventType, followerID, targetID string) {
	s.publisher.Publish(ctx, model.DomainEvent{
		Type:       eventType,
		SubjectID:  followerID,
		TargetID:   targetID,
		OccurredAt: util.Now(),
	})
}

func window(ids []string, limit, offset int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return []string{}
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]string, end-offset)
	copy(out, ids[offset:end])
	return out
}
