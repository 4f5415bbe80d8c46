package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey 上下文中请求 ID 的键名
const RequestIDKey = "request_id"

// RequestIDHeader 请求 ID 响应头名称
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配唯一 ID
//
// 客户端传入的 X-Request-ID 会被透传，否则生成新的 UUID。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
