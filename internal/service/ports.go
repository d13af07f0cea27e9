package service

import (
	"Rankify/internal/model"
	"context"
	"io"
)

// RankingCache 榜单读缓存，失败只影响性能不影响正确性
// 未命中时 Get 返回当前代数，Set 仅在代数未被 Invalidate 推进时写入，
// 防止读取期间发生的写入或删除被旧数据覆盖
type RankingCache interface {
	Get(ctx context.Context, id string) (ranking *model.Ranking, generation int64, ok bool)
	Set(ctx context.Context, ranking *model.Ranking, generation int64)
	Invalidate(ctx context.Context, id string)
}

// EventPublisher 领域事件出口，发布失败不回滚业务写入
type EventPublisher interface {
	Publish(ctx context.Context, event model.DomainEvent)
}

// RepairQueue 记录需要修复的关注边
type RepairQueue interface {
	MarkDirty(ctx context.Context, followerID, targetID string) error
}

// BlobStore 图片等二进制对象的存储
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, size int64, contentType, ext string) (string, error)
	Resolve(ref string) string
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*model.Ranking, int64, bool) { return nil, 0, false }
func (nopCache) Set(context.Context, *model.Ranking, int64)               {}
func (nopCache) Invalidate(context.Context, string)                       {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.DomainEvent) {}

type nopRepairQueue struct{}

func (nopRepairQueue) MarkDirty(context.Context, string, string) error { return nil }

var (
	NopCache       RankingCache   = nopCache{}
	NopPublisher   EventPublisher = nopPublisher{}
	NopRepairQueue RepairQueue    = nopRepairQueue{}
)
