package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

var errInvalidToken = errors.New("invalid token")

// ParseToken validates an HS256 token and returns the user id of its sub claim.
func ParseToken(secret []byte, tok string) (string, error) {
	t, err := jwt.Parse(tok, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", errInvalidToken
	}
	uid, err := t.Claims.GetSubject()
	if err != nil || uid == "" {
		return "", errInvalidToken
	}
	return uid, nil
}

// IssueToken signs a token for uid. Token issuing belongs to the login flow;
// it is exposed for tooling and tests.
func IssueToken(secret []byte, uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// OptionalAuth resolves the viewer when a valid token is sent and lets
// anonymous requests through.
func OptionalAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if tok := bearer(c); tok != "" {
			if uid, err := ParseToken(key, tok); err == nil {
				c.Set(UserIDKey, uid)
			}
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
			return
		}
		uid, err := ParseToken(key, tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}
