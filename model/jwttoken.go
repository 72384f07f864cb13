package model

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the bearer token payload accepted on the API routes.
type AccessClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
