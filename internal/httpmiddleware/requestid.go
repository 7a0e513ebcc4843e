// Package httpmiddleware holds small gin middlewares shared by both
// binaries.
package httpmiddleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns a UUID to every request lacking one, echoing it back
// on the response so log lines on both sides of the proxy can be
// correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, reqID)
		}
		c.Writer.Header().Set(requestIDHeader, reqID)
		c.Next()
	}
}
