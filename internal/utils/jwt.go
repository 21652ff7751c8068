package utils

import (
	"github.com/golang-jwt/jwt/v5"
)

// ParseJWTClaims décode les claims d'un JWT (sans validation de signature)
func ParseJWTClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return jwt.MapClaims{}
	}
	return claims
}
