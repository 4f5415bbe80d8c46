package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guestbook/backend/internal/health"
	"guestbook/backend/internal/middleware"
	"guestbook/backend/internal/monitoring"
	"guestbook/backend/internal/service"
	"guestbook/backend/internal/web"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	MessageService *service.MessageService
	Metrics        *monitoring.Metrics
	HealthChecker  *health.HealthChecker
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var mm *middleware.MonitoringMiddleware
	if deps.Metrics != nil {
		mm = middleware.NewMonitoringMiddleware(deps.Metrics, logger)
		router.Use(mm.PanicRecovery())
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))
	router.Use(middleware.ErrorHandler(logger))

	if mm != nil {
		router.Use(mm.HTTPMetrics())
		router.Use(mm.BusinessMetrics())
	}

	handler := NewHandler(deps.MessageService)

	// 留言接口
	api := router.Group("/api")
	{
		api.GET("/messages", handler.ListMessages)
		api.POST("/messages", handler.CreateMessage)
		api.DELETE("/messages/:id", handler.DeleteMessage)
		api.GET("/images/:id", handler.GetImage)
	}

	// 静态首页
	router.GET("/", serveIndex)
	router.GET("/index.html", serveIndex)

	// 运维接口
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}
	if deps.HealthChecker != nil {
		router.GET("/health", gin.WrapF(deps.HealthChecker.LiveEndpoint()))
		router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint()))
		router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint()))
	}

	// 未匹配路由统一返回纯文本 404
	router.NoRoute(func(c *gin.Context) {
		middleware.ApplyCORSHeaders(c)
		c.String(http.StatusNotFound, MsgRouteNotFound)
	})

	return router
}

func serveIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML())
}
