package util

import (
	"strings"
	"time"
)

// Ptr 取任意值的指针
func Ptr[T any](v T) *T {
	return &v
}

// TrimPtr 去除首尾空白，nil 原样返回
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Now 存储层精度为毫秒，统一截断避免读写不一致
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
