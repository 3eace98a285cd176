// Package requestid tags every request with an ID so a booking or settlement
// call can be traced across the access log and error reports.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header is echoed back so API clients can quote the ID in support tickets.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware propagates the caller-supplied X-Request-ID, or mints a UUID
// when the caller sent none, and echoes it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request ID for the current request, or "" outside the
// middleware chain.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
