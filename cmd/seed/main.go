package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobseek-dev/job-board/backend/internal/config"
	"github.com/jobseek-dev/job-board/backend/internal/migrations"
	"github.com/jobseek-dev/job-board/backend/internal/repository"
	"github.com/jobseek-dev/job-board/backend/internal/seed"
	"github.com/jobseek-dev/job-board/backend/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var opts seed.Options
	var randomSeed int64

	flag.IntVar(&opts.Employers, "employers", 5, "要插入的雇主数量")
	flag.IntVar(&opts.JobSeekers, "seekers", 20, "要插入的求职者数量")
	flag.IntVar(&opts.JobsPerEmployer, "jobs", 4, "每个雇主发布的职位数量")
	flag.IntVar(&opts.ApplicationsPerSeeker, "applications", 3, "每个求职者提交的申请数量")
	flag.Int64Var(&randomSeed, "seed", time.Now().UnixNano(), "随机数种子")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if opts.Employers < 0 || opts.JobSeekers < 0 || opts.JobsPerEmployer < 0 || opts.ApplicationsPerSeeker < 0 {
		logger.Error("数量不能为负数")
		os.Exit(1)
	}

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
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

	if err := migrations.Up(cfg.Database.DSN); err != nil {
		logger.Error("数据库迁移失败", "error", err)
		return
	}

	// 不发送邮件，也不写入检索引擎
	repo := repository.NewRepository(cfg, dbpool)
	svc := service.New(repo, service.WithLogger(logger))

	s := seed.New(svc, cfg.Seed.User.Password, cfg.Seed.EmailDomain, rand.New(rand.NewSource(randomSeed)))
	res, err := s.Run(context.Background(), opts)
	if err != nil {
		logger.Error("插入数据失败", slog.String("error", err.Error()))
	}
	if res != nil {
		logger.Info("插入数据完成",
			slog.Int("users", res.Users),
			slog.Int("jobs", res.Jobs),
			slog.Int("applications", res.Applications),
			slog.Int64("seed", randomSeed),
		)
	}
}
