package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

/**
 * Bearer token authentication for mutating endpoints
 * @param {func() string} secretSource - Returns the current jwtSecret of the
 *   installation; resolved per request so a rotated secret takes effect
 *   without restarting the server
 * @description
 * - Tokens are HS256 signed with the installation's jwtSecret
 * - Read-only endpoints stay open; only state changing routes mount this
 * - An installation without a configured secret rejects all tokens
 */
func AuthMiddleware(secretSource func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := secretSource()
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no credential configured"})
			return
		}

		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
