package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/metrics"
	"Rankify/internal/pkg/util"
	"Rankify/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// titleSentinel 大于任何合法 UTF-8 后缀，用于构造前缀区间上界
	titleSentinel = "\U0010FFFF"
)

// 查询方式，写入游标防止跨查询复用
const (
	modeRecent   = "recent"
	modeSearch   = "search"
	modeCategory = "category"
	modeOwner    = "owner"
)

type RankingInput struct {
	Title    string
	Category model.Category
	Items    []model.RankingItem
	// Version 非零时要求与存储中的版本一致
	Version int64
}

type PageRequest struct {
	PageSize int
	Cursor   string
}

type Page struct {
	Items      []*model.Ranking
	NextCursor string
	HasMore    bool
}

// Guard 写操作鉴权钩子，返回错误即拒绝
type Guard func(ctx context.Context, requesterID string, ranking *model.Ranking) error

// OwnerOnly 默认策略，仅创建者可修改或删除
func OwnerOnly(_ context.Context, requesterID string, ranking *model.Ranking) error {
	if !ranking.IsOwnedBy(requesterID) {
		return errors.WithMessagef(model.ErrForbidden, "user %q does not own ranking %s", requesterID, ranking.ID)
	}
	return nil
}

type RankingService interface {
	CreateRanking(ctx context.Context, ownerID string, input RankingInput) (*model.Ranking, error)
	GetRanking(ctx context.Context, id string) (*model.Ranking, error)
	ListRecent(ctx context.Context, req PageRequest) (*Page, error)
	SearchByTitlePrefix(ctx context.Context, prefix string, req PageRequest) (*Page, error)
	FilterByCategory(ctx context.Context, category *model.Category, req PageRequest) (*Page, error)
	ListByOwner(ctx context.Context, ownerID string, req PageRequest) (*Page, error)
	UpdateRanking(ctx context.Context, id, requesterID string, input RankingInput) (*model.Ranking, error)
	InsertItem(ctx context.Context, id, requesterID string, item model.RankingItem, at *int) (*model.Ranking, error)
	MoveItem(ctx context.Context, id, requesterID, itemID string, to int) (*model.Ranking, error)
	DeleteRanking(ctx context.Context, id, requesterID string) error
}

type RankingServiceImpl struct {
	rankingRepo     repository.RankingRepo
	cache           RankingCache
	publisher       EventPublisher
	guard           Guard
	defaultPageSize int
	maxPageSize     int
}

type RankingOption func(*RankingServiceImpl)

func WithGuard(guard Guard) RankingOption {
	return func(s *RankingServiceImpl) {
		if guard != nil {
			s.guard = guard
		}
	}
}

func WithRankingCache(cache RankingCache) RankingOption {
	return func(s *RankingServiceImpl) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithEventPublisher(publisher EventPublisher) RankingOption {
	return func(s *RankingServiceImpl) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

func WithPageSizes(defaultSize, maxSize int) RankingOption {
	return func(s *RankingServiceImpl) {
		if defaultSize > 0 {
			s.defaultPageSize = defaultSize
		}
		if maxSize >= s.defaultPageSize {
			s.maxPageSize = maxSize
		}
	}
}

func NewRankingService(rankingRepo repository.RankingRepo, opts ...RankingOption) RankingService {
	s := &RankingServiceImpl{
		rankingRepo:     rankingRepo,
		cache:           NopCache,
		publisher:       NopPublisher,
		guard:           OwnerOnly,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RankingServiceImpl) CreateRanking(ctx context.Context, ownerID string, input RankingInput) (*model.Ranking, error) {
	if ownerID == "" {
		return nil, errors.WithMessage(model.ErrValidation, "owner is required")
	}
	title, err := validateRankingMeta(input)
	if err != nil {
		return nil, err
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	now := util.Now()
	ranking := &model.Ranking{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  input.Category,
		Items:     items,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
		LikeCount: 0,
		Comments:  []model.Comment{},
		Version:   1,
	}
	if err = s.rankingRepo.Create(ctx, ranking); err != nil {
		log.ErrorContext(ctx, "create ranking failed", "owner_id", ownerID, "err", err)
		return nil, err
	}

	metrics.RecordRankingCreated(string(ranking.Category))
	s.publish(ctx, model.EventRankingCreated, ownerID, ranking.ID)
	log.InfoContext(ctx, "ranking created", "ranking_id", ranking.ID, "owner_id", ownerID, "items", items.Len())
	return ranking, nil
}

func (s *RankingServiceImpl) GetRanking(ctx context.Context, id string) (*model.Ranking, error) {
	if id == "" {
		return nil, errors.WithMessage(model.ErrValidation, "ranking id is required")
	}
	cached, generation, ok := s.cache.Get(ctx, id)
	if ok {
		return cached, nil
	}
	ranking, err := s.rankingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ranking, generation)
	return ranking, nil
}

func (s *RankingServiceImpl) ListRecent(ctx context.Context, req PageRequest) (*Page, error) {
	after, limit, err := s.prepare(req, modeRecent, "")
	if err != nil {
		return nil, err
	}
	rankings, err := s.rankingRepo.ListRecent(ctx, after, limit+1)
	return s.page(ctx, modeRecent, "", rankings, limit, err)
}

// SearchByTitlePrefix 前缀按原样匹配，空白前缀等同于 ListRecent
func (s *RankingServiceImpl) SearchByTitlePrefix(ctx context.Context, prefix string, req PageRequest) (*Page, error) {
	if strings.TrimSpace(prefix) == "" {
		return s.ListRecent(ctx, req)
	}
	after, limit, err := s.prepare(req, modeSearch, prefix)
	if err != nil {
		return nil, err
	}
	rankings, err := s.rankingRepo.ListByTitlePrefix(ctx, prefix, prefix+titleSentinel, after, limit+1)
	return s.page(ctx, modeSearch, prefix, rankings, limit, err)
}

// FilterByCategory category 为 nil 时等同于 ListRecent
func (s *RankingServiceImpl) FilterByCategory(ctx context.Context, category *model.Category, req PageRequest) (*Page, error) {
	if category == nil {
		return s.ListRecent(ctx, req)
	}
	if !category.Valid() {
		return nil, errors.WithMessagef(model.ErrValidation, "unknown category %q", *category)
	}
	scope := string(*category)
	after, limit, err := s.prepare(req, modeCategory, scope)
	if err != nil {
		return nil, err
	}
	rankings, err := s.rankingRepo.ListByCategory(ctx, *category, after, limit+1)
	return s.page(ctx, modeCategory, scope, rankings, limit, err)
}

func (s *RankingServiceImpl) ListByOwner(ctx context.Context, ownerID string, req PageRequest) (*Page, error) {
	if ownerID == "" {
		return nil, errors.WithMessage(model.ErrValidation, "owner is required")
	}
	after, limit, err := s.prepare(req, modeOwner, ownerID)
	if err != nil {
		return nil, err
	}
	rankings, err := s.rankingRepo.ListByOwner(ctx, ownerID, after, limit+1)
	return s.page(ctx, modeOwner, ownerID, rankings, limit, err)
}

func (s *RankingServiceImpl) UpdateRanking(ctx context.Context, id, requesterID string, input RankingInput) (*model.Ranking, error) {
	title, err := validateRankingMeta(input)
	if err != nil {
		return nil, err
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, requesterID, input.Version, func(r *model.Ranking) error {
		r.Title = title
		r.Category = input.Category
		r.Items = items
		return nil
	})
}

func (s *RankingServiceImpl) InsertItem(ctx context.Context, id, requesterID string, item model.RankingItem, at *int) (*model.Ranking, error) {
	return s.mutate(ctx, id, requesterID, 0, func(r *model.Ranking) error {
		return r.Items.Insert(item, at)
	})
}

func (s *RankingServiceImpl) MoveItem(ctx context.Context, id, requesterID, itemID string, to int) (*model.Ranking, error) {
	return s.mutate(ctx, id, requesterID, 0, func(r *model.Ranking) error {
		return r.Items.Move(itemID, to)
	})
}

func (s *RankingServiceImpl) DeleteRanking(ctx context.Context, id, requesterID string) error {
	ranking, err := s.rankingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = s.guard(ctx, requesterID, ranking); err != nil {
		log.WarnContext(ctx, "delete ranking rejected", "ranking_id", id, "requester_id", requesterID)
		return err
	}
	if err = s.rankingRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)

	metrics.RecordRankingDeleted()
	s.publish(ctx, model.EventRankingDeleted, requesterID, id)
	log.InfoContext(ctx, "ranking deleted", "ranking_id", id, "requester_id", requesterID)
	return nil
}

// mutate 读取-修改-写回，依靠版本号检测并发写入
func (s *RankingServiceImpl) mutate(ctx context.Context, id, requesterID string, expectedVersion int64, apply func(*model.Ranking) error) (*model.Ranking, error) {
	ranking, err := s.rankingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.guard(ctx, requesterID, ranking); err != nil {
		return nil, err
	}
	if expectedVersion != 0 && expectedVersion != ranking.Version {
		return nil, errors.WithMessagef(model.ErrConflict, "ranking %s is at version %d", id, ranking.Version)
	}

	version := ranking.Version
	if err = apply(ranking); err != nil {
		return nil, err
	}
	ranking.Touch(util.Now())
	if err = s.rankingRepo.UpdateContent(ctx, ranking, version); err != nil {
		return nil, err
	}
	ranking.Version = version + 1

	s.cache.Invalidate(ctx, id)
	metrics.RecordRankingUpdated()
	s.publish(ctx, model.EventRankingUpdated, requesterID, id)
	return ranking, nil
}

func (s *RankingServiceImpl) prepare(req PageRequest, mode, scope string) (*repository.RankingKey, int, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if req.Cursor == "" {
		return nil, limit, nil
	}

	var c pageCursor
	if err := util.DecodeCursor(req.Cursor, &c); err != nil {
		return nil, 0, errors.WithMessage(model.ErrValidation, "malformed cursor")
	}
	if c.Mode != mode || c.Scope != scope || c.ID == "" {
		return nil, 0, errors.WithMessage(model.ErrValidation, "cursor does not belong to this query")
	}
	return &repository.RankingKey{
		CreatedAt: time.UnixMilli(c.CreatedAt).UTC(),
		Title:     c.Title,
		ID:        c.ID,
	}, limit, nil
}

// page 多取一条判断是否还有下一页；取消时丢弃已取到的结果
func (s *RankingServiceImpl) page(ctx context.Context, mode, scope string, rankings []*model.Ranking, limit int, err error) (*Page, error) {
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	metrics.RecordCatalogQuery(mode)

	p := &Page{Items: rankings}
	if p.Items == nil {
		p.Items = []*model.Ranking{}
	}
	if len(rankings) > limit {
		p.Items = rankings[:limit]
		p.HasMore = true
		last := p.Items[limit-1]
		p.NextCursor, err = util.EncodeCursor(pageCursor{
			Mode:      mode,
			Scope:     scope,
			CreatedAt: last.CreatedAt.UnixMilli(),
			Title:     last.Title,
			ID:        last.ID,
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *RankingServiceImpl) publish(ctx context.Context, eventType, subjectID, rankingID string) {
	s.publisher.Publish(ctx, model.DomainEvent{
		Type:       eventType,
		SubjectID:  subjectID,
		RankingID:  rankingID,
		OccurredAt: util.Now(),
	})
}

type pageCursor struct {
	Mode      string `json:"m"`
	Scope     string `json:"s,omitempty"`
	CreatedAt int64  `json:"t,omitempty"`
	Title     string `json:"k,omitempty"`
	ID        string `json:"id"`
}

func validateRankingMeta(input RankingInput) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", errors.WithMessage(model.ErrValidation, "title is empty")
	}
	if !input.Category.Valid() {
		return "", errors.WithMessagef(model.ErrValidation, "unknown category %q", input.Category)
	}
	return title, nil
}

func buildItems(items []model.RankingItem) (model.ItemSequence, error) {
	if len(items) == 0 {
		return nil, errors.WithMessage(model.ErrValidation, "a ranking needs at least one item")
	}
	return model.NewItemSequence(items)
}
