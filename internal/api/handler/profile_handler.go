package handler

import (
	"Rankify/internal/api/dto"
	"Rankify/internal/api/middleware"
	"Rankify/internal/model"
	"Rankify/internal/pkg/response"
	"Rankify/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileSvc service.UserProfileService
	mediaSvc   service.MediaService
}

func NewProfileHandler(profileSvc service.UserProfileService, mediaSvc service.MediaService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc, mediaSvc: mediaSvc}
}

// Session 客户端完成登录后调用，首次调用时创建资料
func (s *ProfileHandler) Session(c *gin.Context) {
	profile, created, err := s.profileSvc.EnsureProfile(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.SessionDTO{
		Profile: dto.ToProfileDTO(profile, s.mediaSvc.ResolveRef, false),
		Created: created,
	})
}

func (s *ProfileHandler) GetUserInfo(c *gin.Context) {
	profile, err := s.profileSvc.GetProfile(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileDTO(profile, s.mediaSvc.ResolveRef, false))
}

func (s *ProfileHandler) UpdateUserInfo(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.UpdateProfileReq
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	update := service.ProfileUpdate{DisplayName: req.DisplayName, Bio: req.Bio}
	if req.FavoriteCategories != nil {
		update.FavoriteCategories = make([]model.Category, 0, len(req.FavoriteCategories))
		for _, raw := range req.FavoriteCategories {
			category, err := model.ParseCategory(raw)
			if err != nil {
				response.Error(c, err)
				return
			}
			update.FavoriteCategories = append(update.FavoriteCategories, category)
		}
	}

	profile, err := s.profileSvc.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.PhotoRef != nil {
		if profile, err = s.profileSvc.SetPhoto(c.Request.Context(), userID, *req.PhotoRef); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, dto.ToProfileDTO(profile, s.mediaSvc.ResolveRef, false))
}

// GetPublicProfile 本人查看时包含邮箱
func (s *ProfileHandler) GetPublicProfile(c *gin.Context) {
	userID := c.Param("user_id")
	profile, err := s.profileSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	public := c.GetString(middleware.UserIDKey) != userID
	response.Success(c, dto.ToProfileDTO(profile, s.mediaSvc.ResolveRef, public))
}
