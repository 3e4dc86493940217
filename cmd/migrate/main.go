package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jobseek-dev/job-board/backend/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 只读取数据库连接串
	var cfg struct {
		DSN string `env:"DATABASE_DSN,required"`
	}
	if err := env.Parse(&cfg); err != nil {
		fatalf("无法读取配置: %v", err)
	}
	dsn := cfg.DSN

	switch args[0] {
	case "up":
		if err := migrations.Up(dsn); err != nil {
			fatalf("迁移失败: %v", err)
		}
		slog.Info("迁移完成")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fatalf("down: 非法的步数 %q", args[1])
			}
			steps = n
		}
		if err := migrations.Down(dsn, steps); err != nil {
			fatalf("回滚失败: %v", err)
		}
		slog.Info("回滚完成", "steps", steps)

	case "version":
		v, dirty, err := migrations.Version(dsn)
		if err != nil {
			fatalf("无法获取版本号: %v", err)
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			fatalf("force: 需要指定版本号")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			fatalf("force: 非法的版本号 %q", args[1])
		}
		if err := migrations.Force(dsn, v); err != nil {
			fatalf("force 失败: %v", err)
		}
		slog.Info("已强制设置版本号", "version", v)

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Roll back N migrations (default: 1)
  version      Print the current migration version
  force <V>    Force the migration version (clears the dirty flag)

The database is read from DATABASE_DSN (a .env file is loaded when present).`)
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
