package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dbfixture/internal/responses"
)

// RequireWritable rejects requests that would modify the database when the
// server runs read-only.
func RequireWritable(readOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if readOnly {
			responses.Fail(c, http.StatusForbidden, nil, "Access denied. Server is read-only.")
			c.Abort()
			return
		}
		c.Next()
	}
}
