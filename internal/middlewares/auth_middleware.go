package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dbfixture/internal/responses"
)

// Authenticate requires "Authorization: Bearer <token>". An empty token
// disables the check.
func Authenticate(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Missing Authorization header")
			return
		}

		// Expected format: "Bearer <token>"
		scheme, given, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || given == "" {
			unauthorized(c, "Invalid Authorization format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			unauthorized(c, "Invalid API token")
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="dbfixture"`)
	responses.Fail(c, http.StatusUnauthorized, nil, message)
	c.Abort()
}
