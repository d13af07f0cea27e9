package handler

import (
	"Rankify/internal/api/dto"
	"Rankify/internal/pkg/util"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

// bindJSON 解析并校验请求体
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return pkgerrors.WithMessage(service.ErrParamInvalid, err.Error())
	}
	return util.ValidateDTO(req)
}

func bindQuery(c *gin.Context, req any) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return pkgerrors.WithMessage(service.ErrParamInvalid, err.Error())
	}
	return nil
}

func pageRequest(q dto.PageQuery) service.PageRequest {
	return service.PageRequest{PageSize: q.PageSize, Cursor: q.Cursor}
}
