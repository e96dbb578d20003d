package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"galleria-go/internal/config"
	"galleria-go/internal/infra/database"
	infraMinio "galleria-go/internal/infra/minio"
	"galleria-go/internal/repository"
	"galleria-go/internal/service"
	"galleria-go/pkg/logger"

	"go.uber.org/zap"
)

// 一次性对账工具：把对象存储里没有目录记录的视频补录进数据库
// 与管理端的 POST /videos/sync-blob 等价，适合在部署或迁移后手动执行
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	db := database.Get()
	caps := repository.DetectCapabilities(db)
	videoRepo := repository.NewVideoRepository(db, caps)
	syncService := service.NewSyncService(videoRepo, infraMinio.Get(), cfg.Blob.MaxList)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal, aborting sync", zap.String("signal", sig.String()))
		cancel()
	}()

	result, err := syncService.Run(ctx)
	if err != nil {
		logger.Fatal("Blob sync failed", zap.Error(err))
	}

	fmt.Printf("imported=%d skipped=%d errors=%d total=%d\n",
		result.Imported, result.Skipped, result.Errors, result.Total)
	fmt.Println(result.Message)

	if result.Errors > 0 {
		os.Exit(1)
	}
}
