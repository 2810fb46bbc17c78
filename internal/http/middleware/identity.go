// Package middleware contains shared Gin middleware used by the HTTP layer.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller identity until real authentication lands.
const HeaderUserID = "X-User-ID"

// Identity copies the X-User-ID header into the Gin context under "userID"
// so downstream middleware (rate limiting, logging) and handlers share one
// notion of the caller. No validation is performed; the value is an opaque
// client-chosen identifier.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	}
}
