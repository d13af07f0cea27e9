package middleware

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/response"
	"Rankify/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey   = "user_id"
	IdentityKey = "identity"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(validator *security.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		claims, err := validator.Validate(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		setIdentity(c, claims.Identity())
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func setIdentity(c *gin.Context, identity model.Identity) {
	c.Set(UserIDKey, identity.UserID)
	c.Set(IdentityKey, identity)

	newCtx := context.WithValue(c.Request.Context(), UserIDKey, identity.UserID)
	c.Request = c.Request.WithContext(newCtx)
}

// GetIdentity 未经过鉴权中间件时返回零值
func GetIdentity(c *gin.Context) model.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(model.Identity); ok {
			return identity
		}
	}
	return model.Identity{}
}
