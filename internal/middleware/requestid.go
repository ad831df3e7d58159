package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CtxRequestID = "requestID"

// RequestID tags every request with a fresh id, echoed back in the
// X-Request-Id header and carried into the access log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := uuid.NewString()
		c.Set(CtxRequestID, rid)
		c.Header("X-Request-Id", rid)
		c.Next()
	}
}
