package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	ctxUser      = "middlewares.user"
)
