package middlewares

import (
	"github.com/gin-gonic/gin"
)

// RequestIDFrom returns the id set by RequestID, falling back to the inbound header.
func RequestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ctx.GetHeader(requestIDHeader)
}

// abortError writes the same error envelope the handlers use and stops the chain.
func abortError(ctx *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := RequestIDFrom(ctx); id != "" {
		body["requestId"] = id
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": body})
}
