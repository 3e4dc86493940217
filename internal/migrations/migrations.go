// Package migrations 内嵌了数据库的建表语句，并用 golang-migrate 执行它们
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var files embed.FS

// open 使用单独的连接，migrate 在 Close 时会关闭它持有的 *sql.DB
func open(dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	source, err := iofs.New(files, "sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m.Log = &logger{}

	return m, nil
}

func Up(dsn string) error {
	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("数据库已是最新版本")
			return nil
		}
		return err
	}

	return nil
}

// Down 回滚 steps 个版本
func Down(dsn string, steps int) error {
	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Version 返回当前的版本号，数据库还没有执行过迁移时返回 0
func Version(dsn string) (uint, bool, error) {
	m, err := open(dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return v, dirty, nil
}

func Force(dsn string, version int) error {
	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Force(version)
}

type logger struct{}

func (l *logger) Printf(format string, v ...any) {
	slog.Debug("migrate", slog.String("msg", fmt.Sprintf(format, v...)))
}

func (l *logger) Verbose() bool {
	return false
}
