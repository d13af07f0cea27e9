package model

import "time"

// 领域事件类型
const (
	EventRankingCreated = "ranking.created"
	EventRankingUpdated = "ranking.updated"
	EventRankingDeleted = "ranking.deleted"
	EventRankingLiked   = "ranking.liked"
	EventCommentAdded   = "ranking.commented"
	EventUserFollowed   = "user.followed"
	EventUserUnfollowed = "user.unfollowed"
)

// DomainEvent 写入 Kafka 的领域事件
// 关注类事件 SubjectID 为关注者，TargetID 为被关注者
type DomainEvent struct {
	Type       string    `json:"type"`
	SubjectID  string    `json:"subjectId"`
	TargetID   string    `json:"targetId,omitempty"`
	RankingID  string    `json:"rankingId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (e DomainEvent) IsSocial() bool {
	return e.Type == EventUserFollowed || e.Type == EventUserUnfollowed
}

// FollowEdge 关注边 FollowerID -> TargetID
type FollowEdge struct {
	FollowerID string
	TargetID   string
}
