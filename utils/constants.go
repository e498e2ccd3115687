// File: utils/constants.go
package utils

// PrincipalCachePrefix is the prefix used for Redis principal cache keys.
const PrincipalCachePrefix = "principal:"

// Gin context keys.
const (
	LoggerContextKey    = "logger"
	RequestIDContextKey = "requestID"
	PrincipalContextKey = "principal"
	TokenContextKey     = "token"
)

// RequestIDHeader carries the request id back to the browser.
const RequestIDHeader = "X-Request-ID"
