package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/conduitedeprojet/testrunner/internal/shared/id"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

const (
	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"
	// RunIDHeader names the run created by a request
	RunIDHeader = "X-Run-ID"

	requestIDKey = "request_id"
)

// RequestID propagates a valid incoming request ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" || utils.ValidateID(reqID, "request id", true) != nil {
			reqID = id.NewRequestID().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
