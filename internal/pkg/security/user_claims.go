package security

import (
	"Rankify/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 身份提供方签发的 Token 中的用户信息，sub 即用户 ID
type UserClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c *UserClaims) Identity() model.Identity {
	return model.Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		PhotoURL:    c.Picture,
	}
}
