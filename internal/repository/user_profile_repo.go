package repository

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/docstore"
	"context"
	"time"
)

const UserProfileCollection = "user_profiles"

// ProfilePatch 资料局部更新，nil 字段保持不变
type ProfilePatch struct {
	DisplayName        *string
	Bio                *string
	FavoriteCategories []model.Category
}

type UserProfileRepo interface {
	Create(ctx context.Context, profile *model.UserProfile) error
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	Patch(ctx context.Context, id string, patch ProfilePatch) error
	SetPhoto(ctx context.Context, id, ref string) error
	TouchActive(ctx context.Context, id string, at time.Time) error
	AddFollowing(ctx context.Context, userID, targetID string) error
	RemoveFollowing(ctx context.Context, userID, targetID string) error
	AddFollower(ctx context.Context, userID, followerID string) error
	RemoveFollower(ctx context.Context, userID, followerID string) error
	// ListFollowedBy 返回 followers 中包含 userID 的全部资料
	ListFollowedBy(ctx context.Context, userID string) ([]*model.UserProfile, error)
}

type userProfileRepoImpl struct {
	store docstore.Store
}

func NewUserProfileRepo(store docstore.Store) UserProfileRepo {
	return &userProfileRepoImpl{store: store}
}

const followedByBatch = 200

func UserProfileIndexes() []docstore.IndexSpec {
	return []docstore.IndexSpec{
		{Collection: UserProfileCollection, Name: "idx_followers", Keys: []docstore.Order{{Field: "followers"}}},
	}
}

func (r *userProfileRepoImpl) Create(ctx context.Context, profile *model.UserProfile) error {
	// 数组字段必须非 null，否则后续 $addToSet 失败
	if profile.Followers == nil {
		profile.Followers = []string{}
	}
	if profile.Following == nil {
		profile.Following = []string{}
	}
	if profile.FavoriteCategories == nil {
		profile.FavoriteCategories = []model.Category{}
	}
	return translate(r.store.Put(ctx, UserProfileCollection, profile.ID, profile), "create profile "+profile.ID)
}

func (r *userProfileRepoImpl) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.store.Get(ctx, UserProfileCollection, id, &profile); err != nil {
		return nil, translate(err, "profile "+id)
	}
	return &profile, nil
}

func (r *userProfileRepoImpl) Patch(ctx context.Context, id string, patch ProfilePatch) error {
	m := docstore.NewMutation()
	if patch.DisplayName != nil {
		m.Set("display_name", *patch.DisplayName)
	}
	if patch.Bio != nil {
		m.Set("bio", *patch.Bio)
	}
	if patch.FavoriteCategories != nil {
		m.Set("favorite_categories", patch.FavoriteCategories)
	}
	if m.Empty() {
		return nil
	}
	return translate(r.store.Update(ctx, UserProfileCollection, id, m), "patch profile "+id)
}

func (r *userProfileRepoImpl) SetPhoto(ctx context.Context, id, ref string) error {
	m := docstore.NewMutation().Set("photo_ref", ref)
	return translate(r.store.Update(ctx, UserProfileCollection, id, m), "set photo "+id)
}

func (r *userProfileRepoImpl) TouchActive(ctx context.Context, id string, at time.Time) error {
	m := docstore.NewMutation().Set("last_active_at", at)
	return translate(r.store.Update(ctx, UserProfileCollection, id, m), "touch profile "+id)
}

func (r *userProfileRepoImpl) AddFollowing(ctx context.Context, userID, targetID string) error {
	return r.setOp(ctx, userID, docstore.NewMutation().AddToSet("following", targetID))
}

func (r *userProfileRepoImpl) RemoveFollowing(ctx context.Context, userID, targetID string) error {
	return r.setOp(ctx, userID, docstore.NewMutation().Pull("following", targetID))
}

func (r *userProfileRepoImpl) AddFollower(ctx context.Context, userID, followerID string) error {
	return r.setOp(ctx, userID, docstore.NewMutation().AddToSet("followers", followerID))
}

func (r *userProfileRepoImpl) RemoveFollower(ctx context.Context, userID, followerID string) error {
	return r.setOp(ctx, userID, docstore.NewMutation().Pull("followers", followerID))
}

func (r *userProfileRepoImpl) ListFollowedBy(ctx context.Context, userID string) ([]*model.UserProfile, error) {
	var (
		all   []*model.UserProfile
		after []any
	)
	for {
		var batch []*model.UserProfile
		q := docstore.Query{
			Filters:    []docstore.Filter{docstore.Where("followers", docstore.Contains, userID)},
			OrderBy:    []docstore.Order{{Field: "_id"}},
			Limit:      followedByBatch,
			StartAfter: after,
		}
		if err := r.store.Query(ctx, UserProfileCollection, q, &batch); err != nil {
			return nil, translate(err, "list profiles followed by "+userID)
		}
		all = append(all, batch...)
		if len(batch) < followedByBatch {
			return all, nil
		}
		after = []any{batch[len(batch)-1].ID}
	}
}

func (r *userProfileRepoImpl) setOp(ctx context.Context, id string, m *docstore.Mutation) error {
	return translate(r.store.Update(ctx, UserProfileCollection, id, m), "update relations "+id)
}
