package model

import (
	"slices"
	"strings"
	"time"
)

// UserProfile 用户资料，关注关系以集合形式冗余在双方文档中
type UserProfile struct {
	ID                 string     `bson:"_id" json:"id"`
	Email              string     `bson:"email" json:"email"`
	DisplayName        string     `bson:"display_name" json:"displayName"`
	PhotoRef           *string    `bson:"photo_ref,omitempty" json:"photoRef,omitempty"`
	Bio                *string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Followers          []string   `bson:"followers" json:"followers"`
	Following          []string   `bson:"following" json:"following"`
	FavoriteCategories []Category `bson:"favorite_categories" json:"favoriteCategories"`
	CreatedAt          time.Time  `bson:"created_at" json:"createdAt"`
	LastActiveAt       time.Time  `bson:"last_active_at" json:"lastActiveAt"`
}

// IsProfileComplete 昵称与头像均已设置
func (p *UserProfile) IsProfileComplete() bool {
	return strings.TrimSpace(p.DisplayName) != "" && p.PhotoRef != nil && *p.PhotoRef != ""
}

func (p *UserProfile) IsFollowing(userID string) bool {
	return slices.Contains(p.Following, userID)
}

func (p *UserProfile) HasFollower(userID string) bool {
	return slices.Contains(p.Followers, userID)
}

// Identity 身份提供方给出的调用者信息
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
}
