package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/handler"
	"github.com/LENAX/capability-tree/pkg/api/middleware"
	"github.com/LENAX/capability-tree/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	// 设置gin模式（测试模式由调用方设置，这里不覆盖）
	if gin.Mode() != gin.TestMode {
		if eng.Config().IsDebug() {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	router := gin.New()
	router.SetHTMLTemplate(handler.ViewTemplate())

	// 全局中间件
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	healthHandler := handler.NewHealthHandler(eng, version)
	treeHandler := handler.NewTreeHandler(eng)
	nodeHandler := handler.NewNodeHandler(eng)
	queryHandler := handler.NewQueryHandler(eng)
	watchHandler := handler.NewWatchHandler(eng)
	viewHandler := handler.NewViewHandler(eng)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)
		v1.GET("/ready", healthHandler.Ready)

		trees := v1.Group("/trees")
		{
			trees.GET("", treeHandler.List)
			trees.POST("", treeHandler.Create)
			trees.POST("/import", treeHandler.Import)
			trees.GET("/:id", treeHandler.Get)
			trees.GET("/:id/raw", treeHandler.GetRaw)
			trees.PUT("/:id", treeHandler.Replace)
			trees.DELETE("/:id", treeHandler.Delete)

			// 节点变更
			trees.POST("/:id/nodes", nodeHandler.Add)
			trees.PATCH("/:id/nodes/:nodeId", nodeHandler.Update)
			trees.DELETE("/:id/nodes/:nodeId", nodeHandler.Remove)

			// 查询
			trees.GET("/:id/nodes/:nodeId/ancestors", queryHandler.Ancestors)
			trees.GET("/:id/nodes/:nodeId/descendants", queryHandler.Descendants)
			trees.GET("/:id/nodes/:nodeId/can-start", queryHandler.CanStart)
			trees.GET("/:id/ready", queryHandler.Ready)
			trees.GET("/:id/progress", queryHandler.Progress)
			trees.GET("/:id/check", queryHandler.Check)

			// 实时推送与视图
			trees.GET("/:id/watch", watchHandler.Watch)
			trees.GET("/:id/view", viewHandler.View)
		}
	}

	return router
}
