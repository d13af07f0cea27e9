package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/util"
	"Rankify/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
)

const (
	MaxDisplayNameLength = 50
	MaxBioLength         = 500
)

type ProfileUpdate struct {
	DisplayName        *string
	Bio                *string
	FavoriteCategories []model.Category
}

type UserProfileService interface {
	// EnsureProfile 首次认证时创建资料，之后只刷新活跃时间
	EnsureProfile(ctx context.Context, identity model.Identity) (*model.UserProfile, bool, error)
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.UserProfile, error)
	SetPhoto(ctx context.Context, userID, ref string) (*model.UserProfile, error)
}

type UserProfileServiceImpl struct {
	profileRepo repository.UserProfileRepo
}

func NewUserProfileService(profileRepo repository.UserProfileRepo) UserProfileService {
	return &UserProfileServiceImpl{profileRepo: profileRepo}
}

func (s *UserProfileServiceImpl) EnsureProfile(ctx context.Context, identity model.Identity) (*model.UserProfile, bool, error) {
	if identity.UserID == "" {
		return nil, false, UnauthorizedError
	}
	now := util.Now()

	profile, err := s.profileRepo.GetByID(ctx, identity.UserID)
	if err == nil {
		if err = s.profileRepo.TouchActive(ctx, identity.UserID, now); err != nil {
			return nil, false, err
		}
		profile.LastActiveAt = now
		return profile, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, err
	}

	profile = &model.UserProfile{
		ID:                 identity.UserID,
		Email:              identity.Email,
		DisplayName:        defaultDisplayName(identity),
		Followers:          []string{},
		Following:          []string{},
		FavoriteCategories: []model.Category{},
		CreatedAt:          now,
		LastActiveAt:       now,
	}
	if identity.PhotoURL != "" {
		profile.PhotoRef = util.Ptr(identity.PhotoURL)
	}
	if err = s.profileRepo.Create(ctx, profile); err != nil {
		return nil, false, err
	}
	log.InfoContext(ctx, "user profile created", "user_id", profile.ID)
	return profile, true, nil
}

func (s *UserProfileServiceImpl) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, pkgerrors.WithMessage(model.ErrValidation, "user id is required")
	}
	return s.profileRepo.GetByID(ctx, userID)
}

func (s *UserProfileServiceImpl) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.UserProfile, error) {
	patch := repository.ProfilePatch{}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
			return nil, pkgerrors.WithMessagef(model.ErrValidation, "display name must be 1-%d characters", MaxDisplayNameLength)
		}
		patch.DisplayName = &name
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return nil, pkgerrors.WithMessagef(model.ErrValidation, "bio longer than %d characters", MaxBioLength)
		}
		patch.Bio = &bio
	}
	if update.FavoriteCategories != nil {
		seen := make(map[model.Category]struct{}, len(update.FavoriteCategories))
		patch.FavoriteCategories = make([]model.Category, 0, len(update.FavoriteCategories))
		for _, c := range update.FavoriteCategories {
			if !c.Valid() {
				return nil, pkgerrors.WithMessagef(model.ErrValidation, "unknown category %q", c)
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			patch.FavoriteCategories = append(patch.FavoriteCategories, c)
		}
	}

	if err := s.profileRepo.Patch(ctx, userID, patch); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, userID)
}

func (s *UserProfileServiceImpl) SetPhoto(ctx context.Context, userID, ref string) (*model.UserProfile, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, pkgerrors.WithMessage(model.ErrValidation, "photo ref is empty")
	}
	if err := s.profileRepo.SetPhoto(ctx, userID, ref); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, userID)
}

// defaultDisplayName 身份提供方未给出昵称时取邮箱前缀
func defaultDisplayName(identity model.Identity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	if at := strings.IndexByte(identity.Email, '@'); at > 0 {
		return identity.Email[:at]
	}
	return ""
}
