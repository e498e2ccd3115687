package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"bookdesk/models"

	"github.com/golang-jwt/jwt"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
)

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PrincipalFromToken reads the identity claims of a backend-issued token.
// The signature is not checked here: the gateway does not hold the
// backend's key, and the backend verifies the token on every forwarded call.
func PrincipalFromToken(tokenString string, now time.Time) (models.Principal, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return models.Principal{}, ErrMalformedToken
	}
	if !claims.VerifyExpiresAt(now.Unix(), false) {
		return models.Principal{}, ErrTokenExpired
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Principal{}, errors.New("token does not contain a valid 'sub' claim")
	}
	p := models.Principal{Email: sub, Role: roleFromClaims(claims)}
	if !p.Role.Valid() {
		return models.Principal{}, errors.New("token does not carry a known role")
	}
	if exp, ok := claims["exp"].(float64); ok {
		p.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if id, ok := claims["userId"].(float64); ok {
		p.UserID = int64(id)
	}
	return p, nil
}

// roleFromClaims accepts either a "role" claim or Spring-style
// "authorities": ["ROLE_USER"].
func roleFromClaims(claims jwt.MapClaims) models.Role {
	if r, ok := claims["role"].(string); ok && r != "" {
		return models.Role(strings.ToUpper(strings.TrimPrefix(r, "ROLE_")))
	}
	if auths, ok := claims["authorities"].([]interface{}); ok {
		for _, a := range auths {
			s, _ := a.(string)
			if role := models.Role(strings.TrimPrefix(s, "ROLE_")); role.Valid() {
				return role
			}
		}
	}
	return ""
}
