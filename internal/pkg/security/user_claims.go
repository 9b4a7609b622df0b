package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTIssuer         = "BuzzDaddy"
	JWTExpirationTime = time.Hour * 24
)

// UserClaims 由 Web 端签发的登录令牌载荷
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
