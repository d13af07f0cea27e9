package handler

import (
	"Rankify/internal/api/dto"
	"Rankify/internal/pkg/response"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type EngagementHandler struct {
	engagementSvc service.EngagementService
}

func NewEngagementHandler(engagementSvc service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementSvc: engagementSvc}
}

func (s *EngagementHandler) Like(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := s.engagementSvc.Like(c.Request.Context(), c.Param("ranking_id"), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *EngagementHandler) AddComment(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.CommentReq
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	comment, err := s.engagementSvc.AddComment(c.Request.Context(), c.Param("ranking_id"), userID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := dto.CommentDTO{}
	_ = copier.Copy(&out, comment)
	response.Success(c, out)
}

func (s *EngagementHandler) ListComments(c *gin.Context) {
	comments, err := s.engagementSvc.ListComments(c.Request.Context(), c.Param("ranking_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToCommentDTOs(comments))
}
