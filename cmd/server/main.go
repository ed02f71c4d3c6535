package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dryshift/config"
	"dryshift/internal/api/handler"
	"dryshift/internal/api/middleware"
	"dryshift/internal/api/router"
	"dryshift/internal/notify"
	"dryshift/internal/repository"
	"dryshift/internal/service"
	"dryshift/internal/worker"
	"dryshift/pkg/clock"
	"dryshift/pkg/database"
	"dryshift/pkg/jwt"
	applogger "dryshift/pkg/logger"
	"dryshift/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config/config.yaml")
	issueToken := flag.String("issue-token", "", "为指定客户端签发服务令牌后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	if *issueToken != "" {
		token, err := jwtMgr.GenerateServiceToken(*issueToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "签发令牌失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Ints("drying_units", cfg.Drying.Units),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, &cfg.Log, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：未配置或连接失败时不加锁、不限流）
	var (
		rdb     *redis.Client
		locker  worker.Locker
		limiter middleware.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，清扫锁与限流将不可用", zap.Error(err))
			rdb = nil
		} else {
			locker = rdb
			limiter = rdb
		}
	}

	// 5. 依赖注入: Repository → Service → Handler
	loc, _ := cfg.Database.Location()
	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, clock.NewSystem(loc), logger)
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}

	notifier, err := notify.NewNotifier(&cfg.Notify, logger)
	if err != nil {
		logger.Fatal("初始化通知通道失败", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(notifier, &cfg.Notify, logger)
	h := handler.NewHandler(svc, dispatcher)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, limiter, db, logger)

	// 7. 启动烘干到期清扫
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweeper := worker.NewSweeper(svc.Drying, dispatcher, locker, cfg.Drying.SweepInterval, logger)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(sweepCtx)
	}()

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	stopSweep()
	<-sweepDone

	if closer, ok := notifier.(*notify.MQTTNotifier); ok {
		closer.Close()
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
