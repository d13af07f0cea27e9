package model

import (
	"strings"
)

// Category 榜单分类，取值沿用客户端展示文案
type Category string

const (
	CategoryMovies      Category = "Movies"
	CategoryTVShows     Category = "TV Shows"
	CategoryMusic       Category = "Music"
	CategoryBooks       Category = "Books"
	CategoryGames       Category = "Games"
	CategoryRestaurants Category = "Restaurants"
	CategoryOther       Category = "Other"
)

// Categories 全部合法分类，顺序即客户端展示顺序
var Categories = []Category{
	CategoryMovies,
	CategoryTVShows,
	CategoryMusic,
	CategoryBooks,
	CategoryGames,
	CategoryRestaurants,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCategory 大小写与空白不敏感，"tvshows" 与 "TV Shows" 等价
func ParseCategory(raw string) (Category, error) {
	key := normalizeCategory(raw)
	for _, v := range Categories {
		if normalizeCategory(string(v)) == key {
			return v, nil
		}
	}
	return "", ErrValidation
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
