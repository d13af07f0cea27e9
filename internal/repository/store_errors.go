package repository

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/docstore"
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// translate 将存储层错误映射为领域错误
// 取消与超时原样返回，由调用方按"结果未知"处理
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return pkgerrors.WithMessage(model.ErrNotFound, msg)
	case errors.Is(err, docstore.ErrPreconditionFailed):
		return pkgerrors.WithMessage(model.ErrConflict, msg)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.WithMessage(err, msg)
	default:
		return pkgerrors.WithMessage(model.ErrStoreUnavailable, pkgerrors.Wrap(err, msg).Error())
	}
}
