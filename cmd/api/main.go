package main

import (
	"fmt"
	"net/http"
	"time"

	"galleria-go/internal/api/handler"
	"galleria-go/internal/api/middleware"
	"galleria-go/internal/api/router"
	"galleria-go/internal/config"
	"galleria-go/internal/infra/database"
	infraMinio "galleria-go/internal/infra/minio"
	infraRedis "galleria-go/internal/infra/redis"
	"galleria-go/internal/model"
	"galleria-go/internal/repository"
	"galleria-go/internal/service"
	"galleria-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 加载配置文件（启动即校验 intro/admin 必填项）
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	// 自动迁移数据库表
	// 失败（常见于账号无 DDL 权限）允许降级启动，按现有表结构提供服务，
	// 缺失的可选列之后可经 POST /api/v1/admin/migrate 补齐
	if err := database.AutoMigrate(&model.Video{}); err != nil {
		logger.Warn("Auto migrate failed, starting with the existing schema", zap.Error(err))
	}

	// 能力探测：进程生命周期内只做一次，之后按缓存分支
	db := database.Get()
	caps := repository.DetectCapabilities(db)
	if !caps.HasVisible || !caps.HasDisplayDate || !caps.HasThumbnailURL {
		logger.Warn("Optional columns missing, running with reduced catalog features",
			zap.Bool("visible", caps.HasVisible),
			zap.Bool("display_date", caps.HasDisplayDate),
			zap.Bool("thumbnail_url", caps.HasThumbnailURL),
		)
	}

	// Redis 承担会话撤销和开场视频缓存，连不上允许降级启动
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis init failed, session revocation and intro cache disabled", zap.Error(err))
	} else {
		defer infraRedis.Close()
	}

	// 初始化MinIO
	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// 初始化依赖（Repository -> Service -> Handler）
	videoRepo := repository.NewVideoRepository(db, caps)
	blobStore := infraMinio.Get()

	videoService := service.NewVideoService(videoRepo, blobStore, &cfg.Intro)
	syncService := service.NewSyncService(videoRepo, blobStore, cfg.Blob.MaxList)
	authService := service.NewAuthService(&cfg.Admin, cfg.App.Name)

	videoHandler := handler.NewVideoHandler(videoService, syncService, cfg.Blob.MaxUploadSize)
	adminHandler := handler.NewAdminHandler(authService, videoRepo, &cfg.Admin)

	adminRequired := middleware.AdminRequired(authService.Verify)

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler)
	r.GET("/", rootHandler)

	// 注册业务路由
	router.Setup(r, videoHandler, adminHandler, adminRequired)

	// 启动HTTP服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("minio", cfg.MinIO.Endpoint),
		zap.String("bucket", cfg.MinIO.Bucket),
	)

	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}

// rootHandler 根路径处理器
func rootHandler(c *gin.Context) {
	cfg := config.Get()

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome to %s API", cfg.App.Name),
		"project": cfg.App.Name,
		"version": cfg.App.Version,
		"mode":    cfg.App.Mode,
	})
}
