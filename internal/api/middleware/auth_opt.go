package middleware

import (
	"Rankify/internal/pkg/security"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入身份，失败或缺失则 user_id 为空串
func AuthOptionalMiddleware(validator *security.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserIDKey, "")

		if token, ok := bearerToken(c); ok {
			if claims, err := validator.Validate(token); err == nil {
				setIdentity(c, claims.Identity())
			}
		}

		c.Next()
	}
}
