package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindspire-notifier/common/logger"
	"mindspire-notifier/internal/config"
	httpapi "mindspire-notifier/internal/http"
	"mindspire-notifier/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "mindspire-notifier")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建服务
	notifierService, err := service.NewNotifierService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create notifier service",
			zap.Error(err),
		)
	}
	defer notifierService.Stop()

	// 4. 创建 HTTP 路由
	router := httpapi.NewRouter(log)
	router.RegisterNotificationRoutes(httpapi.NewNotificationHandler(notifierService, log))
	router.RegisterStatsRoutes(httpapi.NewStatsHandler(notifierService, log))
	router.RegisterSystemRoutes()
	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	// 5. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. 启动服务（在 goroutine 中）
	errChan := make(chan error, 2)
	go func() {
		if err := notifierService.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// 7. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-errChan:
		log.Error("Service error",
			zap.Error(err),
		)
	}
	cancel() // 取消上下文，停止服务

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}

	log.Info("Notifier service stopped")
}
