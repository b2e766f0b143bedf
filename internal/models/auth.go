package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by access tokens issued by this service.
type TokenClaims struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Admin    bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}
