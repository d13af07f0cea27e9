package handler

import (
	"Rankify/internal/pkg/response"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaSvc service.MediaService
}

func NewMediaHandler(mediaSvc service.MediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// Upload 上传条目图片或头像，返回引用供后续写入榜单或资料
func (s *MediaHandler) Upload(c *gin.Context) {
	userID := c.GetString("user_id")

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	ref, err := s.mediaSvc.UploadImage(c.Request.Context(), userID, reader, file.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ref)
}
