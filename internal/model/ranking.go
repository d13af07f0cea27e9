package model

import (
	"time"
)

// Ranking 榜单聚合，点赞计数与评论串随文档一起存储
type Ranking struct {
	ID        string       `bson:"_id" json:"id"`
	Title     string       `bson:"title" json:"title"`
	Category  Category     `bson:"category" json:"category"`
	Items     ItemSequence `bson:"items" json:"items"`
	OwnerID   string       `bson:"owner_id" json:"ownerId"`
	CreatedAt time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updatedAt"`
	LikeCount int64        `bson:"like_count" json:"likeCount"`
	Comments  []Comment    `bson:"comments" json:"comments"`
	Version   int64        `bson:"version" json:"version"`
}

// Comment 评论，追加后不可修改
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	AuthorID  string    `bson:"author_id" json:"authorId"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (r *Ranking) IsOwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}

// Touch 刷新更新时间，保证 UpdatedAt 不早于 CreatedAt
func (r *Ranking) Touch(now time.Time) {
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	r.UpdatedAt = now
}
