package api

import (
	"Rankify/internal/api/middleware"
	"Rankify/internal/pkg/logger"
	"Rankify/internal/pkg/metrics"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	auth := middleware.AuthMiddleware(group.TokenValidator)
	authOpt := middleware.AuthOptionalMiddleware(group.TokenValidator)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		rankingGroup := apiGroup.Group("/rankings")
		{
			publicGroup := rankingGroup.Group("")
			publicGroup.Use(authOpt)
			{
				publicGroup.GET("/recent", group.RankingHandler.ListRecent)
				publicGroup.GET("/search", group.RankingHandler.Search)
				publicGroup.GET("/category", group.RankingHandler.FilterByCategory)
				publicGroup.GET("/user/:user_id", group.RankingHandler.ListByOwner)
				publicGroup.GET("/:ranking_id", group.RankingHandler.GetRanking)
				publicGroup.GET("/:ranking_id/comments", group.EngagementHandler.ListComments)
			}

			authGroup := rankingGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.RankingHandler.CreateRanking)
				authGroup.PUT("/:ranking_id", group.RankingHandler.UpdateRanking)
				authGroup.DELETE("/:ranking_id", group.RankingHandler.DeleteRanking)
				authGroup.POST("/:ranking_id/items", group.RankingHandler.InsertItem)
				authGroup.PUT("/:ranking_id/items/:item_id/position", group.RankingHandler.MoveItem)
				authGroup.POST("/:ranking_id/likes", group.EngagementHandler.Like)
				authGroup.POST("/:ranking_id/comments", group.EngagementHandler.AddComment)
			}
		}

		userGroup := apiGroup.Group("/user")
		{
			userGroup.GET("/:user_id/profile", authOpt, group.ProfileHandler.GetPublicProfile)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/session", group.ProfileHandler.Session)
				authGroup.GET("/info", group.ProfileHandler.GetUserInfo)
				authGroup.PUT("/info", group.ProfileHandler.UpdateUserInfo)
			}
		}

		userFollowGroup := apiGroup.Group("/user-relation")
		{
			userFollowGroup.Use(auth)
			{
				userFollowGroup.GET("/followers", group.UserFollowHandler.GetUserFollowers)
				userFollowGroup.GET("/followings", group.UserFollowHandler.GetUserFollowings)
				userFollowGroup.GET("/counts", group.UserFollowHandler.GetCounts)
				userFollowGroup.POST("/follow/:target_id", group.UserFollowHandler.Follow)
				userFollowGroup.DELETE("/follow/:target_id", group.UserFollowHandler.Unfollow)
				userFollowGroup.POST("/repair", group.UserFollowHandler.Repair)
			}
		}

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(auth)
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}
	}

	return r
}
