package router

import (
	"galleria-go/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	videoHandler *handler.VideoHandler,
	adminHandler *handler.AdminHandler,
	adminRequired gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1")

	// --- 视频目录 ---
	videos := v1.Group("/videos")
	{
		// 公开接口
		videos.GET("", videoHandler.List)
		videos.GET("/intro", videoHandler.GetIntro)
		videos.GET("/:id", videoHandler.GetByID)

		// 管理员接口
		admin := videos.Group("", adminRequired)
		{
			admin.POST("", videoHandler.Create)
			admin.POST("/upload", videoHandler.Upload)
			admin.PATCH("/:id", videoHandler.Update)
			admin.POST("/:id/visibility", videoHandler.SetVisibility)
			admin.DELETE("/:id", videoHandler.Delete)
			admin.POST("/sync-blob", videoHandler.SyncBlob)
		}
	}

	// --- 管理员认证 ---
	adminGroup := v1.Group("/admin")
	{
		adminGroup.POST("/login", adminHandler.Login)
		adminGroup.DELETE("/login", adminHandler.Logout)

		adminGroup.POST("/migrate", adminRequired, adminHandler.Migrate)
	}
}
