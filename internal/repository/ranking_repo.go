package repository

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/docstore"
	"context"
	"time"
)

const RankingCollection = "rankings"

// RankingKey 键集分页位置，按查询方式取用 CreatedAt 或 Title
type RankingKey struct {
	CreatedAt time.Time
	Title     string
	ID        string
}

type RankingRepo interface {
	Create(ctx context.Context, ranking *model.Ranking) error
	GetByID(ctx context.Context, id string) (*model.Ranking, error)
	UpdateContent(ctx context.Context, ranking *model.Ranking, expectedVersion int64) error
	IncrementLikes(ctx context.Context, id string, delta int64) error
	AppendComment(ctx context.Context, id string, comment model.Comment) error
	ListRecent(ctx context.Context, after *RankingKey, limit int) ([]*model.Ranking, error)
	ListByTitlePrefix(ctx context.Context, lower, upper string, after *RankingKey, limit int) ([]*model.Ranking, error)
	ListByCategory(ctx context.Context, category model.Category, after *RankingKey, limit int) ([]*model.Ranking, error)
	ListByOwner(ctx context.Context, ownerID string, after *RankingKey, limit int) ([]*model.Ranking, error)
	Delete(ctx context.Context, id string) error
}

type rankingRepoImpl struct {
	store docstore.Store
}

func NewRankingRepo(store docstore.Store) RankingRepo {
	return &rankingRepoImpl{store: store}
}

// RankingIndexes 分页查询依赖的复合索引
func RankingIndexes() []docstore.IndexSpec {
	return []docstore.IndexSpec{
		{Collection: RankingCollection, Name: "idx_recent", Keys: recentOrder},
		{Collection: RankingCollection, Name: "idx_title", Keys: titleOrder},
		{Collection: RankingCollection, Name: "idx_category_recent", Keys: append([]docstore.Order{{Field: "category"}}, recentOrder...)},
		{Collection: RankingCollection, Name: "idx_owner_recent", Keys: append([]docstore.Order{{Field: "owner_id"}}, recentOrder...)},
	}
}

var (
	recentOrder = []docstore.Order{{Field: "created_at", Desc: true}, {Field: "_id"}}
	titleOrder  = []docstore.Order{{Field: "title"}, {Field: "_id"}}
)

func (r *rankingRepoImpl) Create(ctx context.Context, ranking *model.Ranking) error {
	return translate(r.store.Put(ctx, RankingCollection, ranking.ID, ranking), "create ranking "+ranking.ID)
}

func (r *rankingRepoImpl) GetByID(ctx context.Context, id string) (*model.Ranking, error) {
	var ranking model.Ranking
	if err := r.store.Get(ctx, RankingCollection, id, &ranking); err != nil {
		return nil, translate(err, "ranking "+id)
	}
	return &ranking, nil
}

// UpdateContent 覆盖标题、分类与条目，版本号不一致时返回冲突
func (r *rankingRepoImpl) UpdateContent(ctx context.Context, ranking *model.Ranking, expectedVersion int64) error {
	m := docstore.NewMutation().
		Set("title", ranking.Title).
		Set("category", ranking.Category).
		Set("items", ranking.Items).
		Set("updated_at", ranking.UpdatedAt).
		Inc("version", 1).
		Require("version", expectedVersion)
	return translate(r.store.Update(ctx, RankingCollection, ranking.ID, m), "update ranking "+ranking.ID)
}

func (r *rankingRepoImpl) IncrementLikes(ctx context.Context, id string, delta int64) error {
	m := docstore.NewMutation().Inc("like_count", delta)
	return translate(r.store.Update(ctx, RankingCollection, id, m), "like ranking "+id)
}

func (r *rankingRepoImpl) AppendComment(ctx context.Context, id string, comment model.Comment) error {
	m := docstore.NewMutation().Push("comments", comment)
	return translate(r.store.Update(ctx, RankingCollection, id, m), "comment ranking "+id)
}

func (r *rankingRepoImpl) ListRecent(ctx context.Context, after *RankingKey, limit int) ([]*model.Ranking, error) {
	return r.list(ctx, nil, recentOrder, recentKey(after), limit)
}

// ListByTitlePrefix 标题落在 [lower, upper) 区间内，按标题升序
func (r *rankingRepoImpl) ListByTitlePrefix(ctx context.Context, lower, upper string, after *RankingKey, limit int) ([]*model.Ranking, error) {
	filters := []docstore.Filter{
		docstore.Where("title", docstore.Gte, lower),
		docstore.Where("title", docstore.Lt, upper),
	}
	var key []any
	if after != nil {
		key = []any{after.Title, after.ID}
	}
	return r.list(ctx, filters, titleOrder, key, limit)
}

func (r *rankingRepoImpl) ListByCategory(ctx context.Context, category model.Category, after *RankingKey, limit int) ([]*model.Ranking, error) {
	filters := []docstore.Filter{docstore.Where("category", docstore.Eq, string(category))}
	return r.list(ctx, filters, recentOrder, recentKey(after), limit)
}

func (r *rankingRepoImpl) ListByOwner(ctx context.Context, ownerID string, after *RankingKey, limit int) ([]*model.Ranking, error) {
	filters := []docstore.Filter{docstore.Where("owner_id", docstore.Eq, ownerID)}
	return r.list(ctx, filters, recentOrder, recentKey(after), limit)
}

func (r *rankingRepoImpl) Delete(ctx context.Context, id string) error {
	return translate(r.store.Delete(ctx, RankingCollection, id), "delete ranking "+id)
}

func (r *rankingRepoImpl) list(ctx context.Context, filters []docstore.Filter, order []docstore.Order, after []any, limit int) ([]*model.Ranking, error) {
	var rankings []*model.Ranking
	q := docstore.Query{Filters: filters, OrderBy: order, Limit: limit, StartAfter: after}
	if err := r.store.Query(ctx, RankingCollection, q, &rankings); err != nil {
		return nil, translate(err, "list rankings")
	}
	return rankings, nil
}

func recentKey(after *RankingKey) []any {
	if after == nil {
		return nil
	}
	return []any{after.CreatedAt, after.ID}
}
