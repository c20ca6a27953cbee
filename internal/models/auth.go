package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of bearer tokens.
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}
