package model

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

// RankingItem 榜单中的单个条目
type RankingItem struct {
	ID          string  `bson:"id" json:"id"`
	Title       string  `bson:"title" json:"title"`
	Description *string `bson:"description,omitempty" json:"description,omitempty"`
	ImageRef    *string `bson:"image_ref,omitempty" json:"imageRef,omitempty"`
	Rating      float64 `bson:"rating" json:"rating"`
	Position    int     `bson:"position" json:"position"`
}

func (i *RankingItem) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return errors.WithMessage(ErrValidation, "item title is empty")
	}
	if math.IsNaN(i.Rating) || i.Rating < MinRating || i.Rating > MaxRating {
		return errors.WithMessagef(ErrValidation, "item rating %v out of range [%v, %v]", i.Rating, MinRating, MaxRating)
	}
	return nil
}

// ItemSequence 有序条目集合，下标即 Position
// 不变式: Position 恒为 0..n-1 的连续排列
type ItemSequence []RankingItem

// NewItemSequence 按提交顺序构建序列，忽略传入的 Position
func NewItemSequence(items []RankingItem) (ItemSequence, error) {
	seq := make(ItemSequence, 0, len(items))
	for _, item := range items {
		if err := seq.Insert(item, nil); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

func (s ItemSequence) Len() int {
	return len(s)
}

func (s ItemSequence) Get(itemID string) (RankingItem, bool) {
	idx := s.indexOf(itemID)
	if idx < 0 {
		return RankingItem{}, false
	}
	return s[idx], true
}

// Items 返回副本，调用方修改不影响序列
func (s ItemSequence) Items() []RankingItem {
	out := make([]RankingItem, len(s))
	copy(out, s)
	return out
}

// Insert at 为 nil 时追加到末尾，否则插入到 at 并将其后条目后移
func (s *ItemSequence) Insert(item RankingItem, at *int) error {
	n := len(*s)
	idx := n
	if at != nil {
		if *at < 0 || *at > n {
			return errors.WithMessagef(ErrInvalidPosition, "insert at %d, length %d", *at, n)
		}
		idx = *at
	}

	if err := item.Validate(); err != nil {
		return err
	}
	item.Title = strings.TrimSpace(item.Title)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if s.indexOf(item.ID) >= 0 {
		return errors.WithMessagef(ErrValidation, "duplicate item id %s", item.ID)
	}

	seq := append(*s, RankingItem{})
	copy(seq[idx+1:], seq[idx:n])
	seq[idx] = item
	*s = seq
	s.renumber(idx)
	return nil
}

// Move 将条目移动到 to，区间内其余条目整体平移
func (s *ItemSequence) Move(itemID string, to int) error {
	from := s.indexOf(itemID)
	if from < 0 {
		return errors.WithMessagef(ErrItemNotFound, "item %s", itemID)
	}
	seq := *s
	if to < 0 || to >= len(seq) {
		return errors.WithMessagef(ErrInvalidPosition, "move to %d, length %d", to, len(seq))
	}
	if from == to {
		return nil
	}

	item := seq[from]
	if from < to {
		copy(seq[from:to], seq[from+1:to+1])
	} else {
		copy(seq[to+1:from+1], seq[to:from])
	}
	seq[to] = item
	s.renumber(min(from, to))
	return nil
}

func (s *ItemSequence) Remove(itemID string) error {
	idx := s.indexOf(itemID)
	if idx < 0 {
		return errors.WithMessagef(ErrItemNotFound, "item %s", itemID)
	}
	seq := *s
	*s = append(seq[:idx], seq[idx+1:]...)
	s.renumber(idx)
	return nil
}

func (s *ItemSequence) RemoveAll() {
	*s = ItemSequence{}
}

// Validate 校验位置连续且 ID 唯一，用于检查从存储读出的数据
func (s ItemSequence) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, item := range s {
		if item.Position != i {
			return errors.WithMessagef(ErrInvalidPosition, "item %s at index %d has position %d", item.ID, i, item.Position)
		}
		if _, ok := seen[item.ID]; ok {
			return errors.WithMessagef(ErrValidation, "duplicate item id %s", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func (s ItemSequence) indexOf(itemID string) int {
	for i := range s {
		if s[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s ItemSequence) renumber(from int) {
	for i := from; i < len(s); i++ {
		s[i].Position = i
	}
}
