package dto

import (
	"Rankify/internal/model"
	"time"

	"github.com/jinzhu/copier"
)

// UpdateProfileReq 未提供的字段保持不变
type UpdateProfileReq struct {
	DisplayName        *string  `json:"displayName,omitempty" validate:"omitempty,min=1,max=50"`
	Bio                *string  `json:"bio,omitempty" validate:"omitempty,max=500"`
	FavoriteCategories []string `json:"favoriteCategories,omitempty" validate:"omitempty,max=7"`
	PhotoRef           *string  `json:"photoRef,omitempty"`
}

type ProfileDTO struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email,omitempty"`
	DisplayName        string    `json:"displayName"`
	PhotoURL           string    `json:"photoUrl,omitempty"`
	Bio                *string   `json:"bio,omitempty"`
	FollowerCount      int       `json:"followerCount"`
	FollowingCount     int       `json:"followingCount"`
	FavoriteCategories []string  `json:"favoriteCategories"`
	CreatedAt          time.Time `json:"createdAt"`
	LastActiveAt       time.Time `json:"lastActiveAt"`
	ProfileComplete    bool      `json:"profileComplete"`
}

type SessionDTO struct {
	Profile ProfileDTO `json:"profile"`
	Created bool       `json:"created"`
}

type FollowListQuery struct {
	Limit  int `form:"limit" validate:"gte=0,lte=100"`
	Offset int `form:"offset" validate:"gte=0"`
}

type RepairReportDTO struct {
	UserID  string   `json:"userId"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// ToProfileDTO public 为 true 时隐藏邮箱
func ToProfileDTO(p *model.UserProfile, resolve Resolver, public bool) ProfileDTO {
	out := ProfileDTO{}
	_ = copier.Copy(&out, p)
	out.FollowerCount = len(p.Followers)
	out.FollowingCount = len(p.Following)
	out.ProfileComplete = p.IsProfileComplete()

	out.FavoriteCategories = make([]string, 0, len(p.FavoriteCategories))
	for _, c := range p.FavoriteCategories {
		out.FavoriteCategories = append(out.FavoriteCategories, string(c))
	}
	if p.PhotoRef != nil && resolve != nil {
		out.PhotoURL = resolve(*p.PhotoRef)
	}
	if public {
		out.Email = ""
	}
	return out
}
