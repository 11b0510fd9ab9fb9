package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/infrastructure/auth"
)

const (
	headerDevUserID   = "X-Dev-User-Id"
	headerDevUserRole = "X-Dev-User-Role"
)

// credentialsMiddleware copies identity headers into the request context.
// Dev headers are ignored unless devMode is set.
func credentialsMiddleware(devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds auth.Credentials

		if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			creds.BearerToken = strings.TrimSpace(h[7:])
		}
		if devMode {
			creds.DevUserID = strings.TrimSpace(c.GetHeader(headerDevUserID))
			creds.DevRole = strings.TrimSpace(c.GetHeader(headerDevUserRole))
		}

		c.Request = c.Request.WithContext(auth.WithCredentials(c.Request.Context(), creds))
		c.Next()
	}
}
