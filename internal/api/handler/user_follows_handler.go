package handler

import (
	"Rankify/internal/api/dto"
	"Rankify/internal/pkg/response"
	"Rankify/internal/pkg/util"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultFollowPageSize = 20

type UserFollowHandler struct {
	graphSvc service.SocialGraphService
}

func NewUserFollowHandler(graphSvc service.SocialGraphService) *UserFollowHandler {
	return &UserFollowHandler{graphSvc: graphSvc}
}

func (s *UserFollowHandler) Follow(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := s.graphSvc.Follow(c.Request.Context(), userID, c.Param("target_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) Unfollow(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := s.graphSvc.Unfollow(c.Request.Context(), userID, c.Param("target_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) GetUserFollowers(c *gin.Context) {
	userID := c.GetString("user_id")

	limit, offset, err := s.getPagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	followers, err := s.graphSvc.ListFollowers(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followers)
}

func (s *UserFollowHandler) GetUserFollowings(c *gin.Context) {
	userID := c.GetString("user_id")

	limit, offset, err := s.getPagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	followings, err := s.graphSvc.ListFollowing(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followings)
}

func (s *UserFollowHandler) GetCounts(c *gin.Context) {
	counts, err := s.graphSvc.GetCounts(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, counts)
}

// Repair 校正当前用户关注关系的另一侧
func (s *UserFollowHandler) Repair(c *gin.Context) {
	report, err := s.graphSvc.RepairUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.RepairReportDTO{UserID: report.UserID, Added: report.Added, Removed: report.Removed})
}

func (s *UserFollowHandler) getPagination(c *gin.Context) (int, int, error) {
	var q dto.FollowListQuery
	if err := bindQuery(c, &q); err != nil {
		return 0, 0, err
	}
	if err := util.ValidateDTO(&q); err != nil {
		return 0, 0, err
	}
	if q.Limit == 0 {
		q.Limit = defaultFollowPageSize
	}
	return q.Limit, q.Offset, nil
}
