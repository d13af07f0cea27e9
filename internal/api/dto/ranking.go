package dto

import (
	"Rankify/internal/model"
	"time"

	"github.com/jinzhu/copier"
)

// RankingItemReq 提交的条目，Position 由顺序决定
type RankingItemReq struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageRef    *string `json:"imageRef,omitempty"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// RankingReq 创建与整体更新共用
type RankingReq struct {
	Title    string           `json:"title" validate:"required,max=100"`
	Category string           `json:"category" validate:"required"`
	Items    []RankingItemReq `json:"items" validate:"required,min=1,dive"`
	Version  int64            `json:"version,omitempty" validate:"gte=0"`
}

type InsertItemReq struct {
	Item RankingItemReq `json:"item"`
	At   *int           `json:"at,omitempty" validate:"omitempty,gte=0"`
}

type MoveItemReq struct {
	To *int `json:"to" validate:"required,gte=0"`
}

type PageQuery struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type SearchQuery struct {
	PageQuery
	Q string `form:"q"`
}

type CategoryQuery struct {
	PageQuery
	Category string `form:"category"`
}

type RankingItemDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ImageRef    *string `json:"imageRef,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Rating      float64 `json:"rating"`
	Position    int     `json:"position"`
}

type RankingDTO struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Category     string           `json:"category"`
	Items        []RankingItemDTO `json:"items"`
	OwnerID      string           `json:"ownerId"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	LikeCount    int64            `json:"likeCount"`
	CommentCount int              `json:"commentCount"`
	Comments     []CommentDTO     `json:"comments,omitempty"`
	Version      int64            `json:"version"`
}

type RankingPageDTO struct {
	Items      []RankingDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	HasMore    bool         `json:"hasMore"`
}

// Resolver 将存储引用转换为可访问的 URL
type Resolver func(ref string) string

func (r RankingReq) ToItems() []model.RankingItem {
	items := make([]model.RankingItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, it.ToModel())
	}
	return items
}

func (r RankingItemReq) ToModel() model.RankingItem {
	item := model.RankingItem{}
	_ = copier.Copy(&item, &r)
	return item
}

// ToRankingDTO withComments 为 false 时只返回评论数
func ToRankingDTO(r *model.Ranking, resolve Resolver, withComments bool) RankingDTO {
	out := RankingDTO{}
	_ = copier.Copy(&out, r)
	out.Category = string(r.Category)
	out.CommentCount = len(r.Comments)

	out.Items = make([]RankingItemDTO, 0, r.Items.Len())
	for _, it := range r.Items {
		item := RankingItemDTO{}
		_ = copier.Copy(&item, &it)
		if it.ImageRef != nil && resolve != nil {
			item.ImageURL = resolve(*it.ImageRef)
		}
		out.Items = append(out.Items, item)
	}

	out.Comments = nil
	if withComments {
		out.Comments = ToCommentDTOs(r.Comments)
	}
	return out
}

func ToRankingPageDTO(items []*model.Ranking, nextCursor string, hasMore bool, resolve Resolver) RankingPageDTO {
	out := RankingPageDTO{Items: make([]RankingDTO, 0, len(items)), NextCursor: nextCursor, HasMore: hasMore}
	for _, r := range items {
		out.Items = append(out.Items, ToRankingDTO(r, resolve, false))
	}
	return out
}
