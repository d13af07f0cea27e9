package job

import (
	"Rankify/internal/model"
	"context"
	"sync"
)

// EdgeQueue 待修复关注边的来源，Claim 与 Ack 之间的边视为处理中
type EdgeQueue interface {
	MarkDirty(ctx context.Context, followerID, targetID string) error
	Claim(ctx context.Context) ([]model.FollowEdge, error)
	Ack(ctx context.Context) error
}

// MemoryEdgeQueue 单实例部署且未启用 Redis 时使用
type MemoryEdgeQueue struct {
	mu         sync.Mutex
	dirty      map[model.FollowEdge]struct{}
	processing []model.FollowEdge
}

func NewMemoryEdgeQueue() *MemoryEdgeQueue {
	return &MemoryEdgeQueue{dirty: map[model.FollowEdge]struct{}{}}
}

func (q *MemoryEdgeQueue) MarkDirty(_ context.Context, followerID, targetID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dirty[model.FollowEdge{FollowerID: followerID, TargetID: targetID}] = struct{}{}
	return nil
}

func (q *MemoryEdgeQueue) Claim(_ context.Context) ([]model.FollowEdge, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.processing == nil {
		q.processing = make([]model.FollowEdge, 0, len(q.dirty))
		for e := range q.dirty {
			q.processing = append(q.processing, e)
		}
		q.dirty = map[model.FollowEdge]struct{}{}
	}
	return append([]model.FollowEdge(nil), q.processing...), nil
}

func (q *MemoryEdgeQueue) Ack(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = nil
	return nil
}

func (q *MemoryEdgeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dirty) + len(q.processing)
}
