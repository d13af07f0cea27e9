package service

import (
	"Rankify/internal/model"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid     = model.ErrValidation
	ErrFileNotSupported = errors.New("不支持的文件类型")
	ErrFileTooLarge     = errors.New("文件过大")
	ErrMediaDisabled    = errors.New("未启用对象存储")
	UnauthorizedError   = errors.New("未登录或登录已过期")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

// ErrorMap 错误类别到业务码，以 errors.Is 匹配
var ErrorMap = map[error]int{
	model.ErrValidation:       BadRequest,
	model.ErrInvalidPosition:  BadRequest,
	model.ErrInvalidOperation: BadRequest,
	ErrFileNotSupported:       BadRequest,
	ErrFileTooLarge:           BadRequest,
	UnauthorizedError:         Unauthorized,
	model.ErrForbidden:        Forbidden,
	model.ErrNotFound:         NotFound,
	model.ErrConflict:         Conflict,
	model.ErrStoreUnavailable: ServiceUnavailable,
	ErrMediaDisabled:          ServiceUnavailable,
	UnExpectedError:           InternalServerError,
}

// CodeOf 返回错误对应的业务码，未归类的错误返回 false
func CodeOf(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return InternalServerError, false
}

// IsRetryable 仅存储不可用可重试，调用方应做有限次指数退避
func IsRetryable(err error) bool {
	return errors.Is(err, model.ErrStoreUnavailable)
}
