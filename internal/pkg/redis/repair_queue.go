package redis

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/consts"
	"context"
	"strings"
)

const processingSuffix = ":processing"

func EncodeEdge(e model.FollowEdge) string {
	return e.FollowerID + consts.EdgeSeparator + e.TargetID
}

func ParseEdge(member string) (model.FollowEdge, bool) {
	follower, target, ok := strings.Cut(member, consts.EdgeSeparator)
	if !ok || follower == "" || target == "" {
		return model.FollowEdge{}, false
	}
	return model.FollowEdge{FollowerID: follower, TargetID: target}, true
}

// RepairQueue 基于 Redis 集合的关注边脏标记，由定时任务消费
type RepairQueue struct {
	key string
}

func NewRepairQueue() *RepairQueue {
	return &RepairQueue{key: consts.SocialRepairDirtyKey}
}

func (q *RepairQueue) MarkDirty(ctx context.Context, followerID, targetID string) error {
	return SAdd(ctx, q.key, EncodeEdge(model.FollowEdge{FollowerID: followerID, TargetID: targetID}))
}

// Claim 将脏集合转入处理中集合并返回其成员
// 上一轮未确认的处理中集合会优先被重新领取
func (q *RepairQueue) Claim(ctx context.Context) ([]model.FollowEdge, error) {
	processingKey := q.key + processingSuffix

	pending, err := Exists(ctx, processingKey)
	if err != nil {
		return nil, err
	}
	if !pending {
		moved, err := Rename(ctx, q.key, processingKey)
		if err != nil || !moved {
			return nil, err
		}
	}

	members, err := Members(ctx, processingKey)
	if err != nil {
		return nil, err
	}
	edges := make([]model.FollowEdge, 0, len(members))
	for _, m := range members {
		if e, ok := ParseEdge(m); ok {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// Ack 确认本轮处理完成，失败的边应在 Ack 前重新 MarkDirty
func (q *RepairQueue) Ack(ctx context.Context) error {
	return DeleteKey(ctx, q.key+processingSuffix)
}
