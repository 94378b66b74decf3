package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"Yatube/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses a sane incoming X-Request-ID or generates one, and puts it
// on the response and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
