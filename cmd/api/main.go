package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jobseek-dev/job-board/backend/internal/config"
	"github.com/jobseek-dev/job-board/backend/internal/handler"
	"github.com/jobseek-dev/job-board/backend/internal/migrations"
	"github.com/jobseek-dev/job-board/backend/internal/queue"
	"github.com/jobseek-dev/job-board/backend/internal/repository"
	"github.com/jobseek-dev/job-board/backend/internal/search"
	"github.com/jobseek-dev/job-board/backend/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func main() {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法加载配置文件", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 执行数据库迁移
	 **********************************************/
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.DSN); err != nil {
			logger.Error("数据库迁移失败", "error", err)
			return
		}
		logger.Info("数据库迁移完成")
	}

	/**********************************************
	 * 创建 repository 和 service
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithPageSizes(cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize),
	}

	// 连接 rabbitmq，未配置时不发送邮件通知
	if cfg.RabbitMQ.DSN != "" {
		publisher, err := queue.NewPublisher(cfg.RabbitMQ.DSN, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", "error", err)
			return
		}
		defer publisher.Close()
		opts = append(opts, service.WithNotifier(publisher))
	} else {
		logger.Warn("未配置 rabbitmq，邮件通知已禁用")
	}

	// 连接 elasticsearch，未配置时使用数据库的全文检索
	if cfg.SearchEnabled() {
		es, err := search.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
		if err != nil {
			logger.Error("无法创建 elasticsearch 客户端", "error", err)
			return
		}
		index := search.NewJobIndex(es, cfg.Elasticsearch.JobsIndex, time.Duration(cfg.Elasticsearch.Timeout)*time.Second)
		opts = append(opts, service.WithSearcher(index))
	}

	svc := service.New(repo, opts...)

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	if err := svc.EnsureAdmin(context.Background(), cfg.InitialAdmin.Name, cfg.InitialAdmin.Email, cfg.InitialAdmin.Password); err != nil {
		logger.Error("无法创建初始管理员", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// redis 不可用时不限流，也不检查令牌是否已注销
		logger.Warn("无法连接到 redis", "error", err)
		rdb = nil
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, svc, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("无法优雅地关闭服务器", slog.String("error", err.Error()))
		return
	}

	logger.Info("服务器已关闭")
}
