package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobseek-dev/job-board/backend/internal/config"
	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// withTx 在一个事务中执行 fn，fn 返回错误时回滚
func (r *Repository) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// translateError 把违反约束的错误转换成业务错误，其余错误原样返回
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.ConstraintName {
	case "users_email_key":
		return domain.Conflict("user already exists with this email")
	case "applications_job_id_fkey":
		// 写入申请时职位已经被删除
		return sql.ErrNoRows
	case "users_role_check":
		return domain.Invalid("invalid role")
	case "jobs_type_check":
		return domain.Invalid("invalid job type")
	case "jobs_status_check":
		return domain.Invalid("invalid job status")
	case "applications_status_check":
		return domain.Invalid("invalid application status")
	}

	return err
}

// jsonColumn 把 v 指向的值作为 JSONB 读写
type jsonColumn struct {
	v any
}

func asJSON(v any) *jsonColumn {
	return &jsonColumn{v: v}
}

func (c *jsonColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(c.v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *jsonColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.v)
}

func (c *jsonColumn) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, c.v)
	case string:
		return json.Unmarshal([]byte(data), c.v)
	}
	return fmt.Errorf("cannot scan %T into jsonb column", src)
}
