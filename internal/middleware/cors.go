package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 响应头取值
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// corsExempt 判断路径是否跳过 CORS 响应头。
//
// 图片接口和静态页面直接被浏览器同源引用，不参与跨域协商。
func corsExempt(path string) bool {
	if path == "/" || path == "/index.html" {
		return true
	}
	return strings.HasPrefix(path, "/api/images/")
}

// CORS 跨域中间件
//
// 所有 OPTIONS 预检请求在路由匹配之前直接以 200 结束，
// 其余请求按路径决定是否附加 CORS 响应头。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			ApplyCORSHeaders(c)
			c.AbortWithStatus(http.StatusOK)
			return
		}

		if !corsExempt(c.Request.URL.Path) {
			ApplyCORSHeaders(c)
		}

		c.Next()
	}
}

// ApplyCORSHeaders 写入全部 CORS 响应头。
func ApplyCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", corsAllowOrigin)
	c.Header("Access-Control-Allow-Methods", corsAllowMethods)
	c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
}
