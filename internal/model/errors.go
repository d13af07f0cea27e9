package model

import (
	"errors"
	"fmt"
)

// 领域错误分类，调用方统一使用 errors.Is 判定
var (
	ErrValidation       = errors.New("参数错误")
	ErrNotFound         = errors.New("资源不存在")
	ErrInvalidPosition  = errors.New("位置越界")
	ErrItemNotFound     = fmt.Errorf("条目%w", ErrNotFound)
	ErrForbidden        = errors.New("权限不足")
	ErrInvalidOperation = errors.New("非法操作")
	ErrConflict         = errors.New("版本冲突，请刷新后重试")
	ErrStoreUnavailable = errors.New("存储服务不可用，请稍后重试")
)
