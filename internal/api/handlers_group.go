package api

import (
	"Rankify/internal/api/handler"
	"Rankify/internal/pkg/security"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	RankingHandler    *handler.RankingHandler
	EngagementHandler *handler.EngagementHandler
	UserFollowHandler *handler.UserFollowHandler
	ProfileHandler    *handler.ProfileHandler
	MediaHandler      *handler.MediaHandler
	TokenValidator    *security.TokenValidator
}
