package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/gin-gonic/gin"
)

// CronSecret guards scheduler endpoints with a shared bearer secret.
// An empty secret disables the endpoint with 503.
func CronSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			response.Abort(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "Cron endpoint is not configured")
			return
		}

		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
			return
		}

		c.Next()
	}
}
