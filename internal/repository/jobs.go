package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

const jobColumns = `
	j.id,
	j.title,
	j.description,
	j.company,
	j.location,
	j.type,
	j.category,
	j.salary,
	j.requirements,
	j.benefits,
	j.application_deadline,
	j.posted_by,
	j.status,
	j.applications_count,
	j.created_at,
	j.updated_at,
	j.version,
	u.name,
	u.company
`

// 排序字段到数据库列的映射，同时作为白名单
var jobSortColumns = map[string]string{
	"createdAt":           "j.created_at",
	"title":               "j.title",
	"company":             "j.company",
	"location":            "j.location",
	"applicationDeadline": "j.application_deadline",
	"applicationsCount":   "j.applications_count",
	"salaryMin":           "(j.salary->>'min')::numeric",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	job := &domain.Job{
		Poster: &domain.UserSummary{Company: &domain.Company{}},
	}

	dst := []any{
		&job.ID,
		&job.Title,
		&job.Description,
		&job.Company,
		&job.Location,
		&job.Type,
		&job.Category,
		asJSON(&job.Salary),
		asJSON(&job.Requirements),
		asJSON(&job.Benefits),
		&job.ApplicationDeadline,
		&job.PostedBy,
		&job.Status,
		&job.ApplicationsCount,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Version,
		&job.Poster.Name,
		asJSON(job.Poster.Company),
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	job.Poster.ID = job.PostedBy

	return job, nil
}

func (r *Repository) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			title,
			description,
			company,
			location,
			type,
			category,
			salary,
			requirements,
			benefits,
			application_deadline,
			posted_by,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, applications_count, created_at, updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		job.Type,
		job.Category,
		asJSON(&job.Salary),
		asJSON(&job.Requirements),
		asJSON(&job.Benefits),
		job.ApplicationDeadline,
		job.PostedBy,
		job.Status,
	}
	dst := []any{&job.ID, &job.ApplicationsCount, &job.CreatedAt, &job.UpdatedAt, &job.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return translateError(err)
	}

	return nil
}

func (r *Repository) GetJobByID(ctx context.Context, id int64) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs j
		JOIN users u ON u.id = j.posted_by
		WHERE j.id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanJob(r.dbpool.QueryRowContext(ctx, query, id))
}

// UpdateJob 不会修改 posted_by 和 applications_count
func (r *Repository) UpdateJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET
			title = $1,
			description = $2,
			company = $3,
			location = $4,
			type = $5,
			category = $6,
			salary = $7,
			requirements = $8,
			benefits = $9,
			application_deadline = $10,
			status = $11,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING applications_count, updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		job.Title,
		job.Description,
		job.Company,
		job.Location,
		job.Type,
		job.Category,
		asJSON(&job.Salary),
		asJSON(&job.Requirements),
		asJSON(&job.Benefits),
		job.ApplicationDeadline,
		job.Status,
		job.ID,
		job.Version,
	}
	dst := []any{&job.ApplicationsCount, &job.UpdatedAt, &job.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return translateError(err)
	}

	return nil
}

// DeleteJob 删除职位，外键上的 ON DELETE CASCADE 会一并删除它的申请
func (r *Repository) DeleteJob(ctx context.Context, id int64) error {
	query := `
		DELETE FROM jobs WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildJobFilter 生成 WHERE 子句和对应的参数，总是只查询 active 的职位
func buildJobFilter(f *domain.JobFilter) (string, []any) {
	conds := []string{"j.status = 'active'"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		conds = append(conds, "j.search_vector @@ plainto_tsquery('english', "+arg(f.Search)+")")
	}
	if f.Location != "" {
		conds = append(conds, "j.location ILIKE '%' || "+arg(escapeLike(f.Location))+" || '%'")
	}
	if f.Type != "" {
		conds = append(conds, "j.type = "+arg(f.Type))
	}
	if f.Category != "" {
		conds = append(conds, "j.category ILIKE '%' || "+arg(escapeLike(f.Category))+" || '%'")
	}
	if f.IDs != nil {
		conds = append(conds, "j.id = ANY("+arg(f.IDs)+")")
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func jobOrderBy(f *domain.JobFilter) string {
	column, ok := jobSortColumns[f.SortBy]
	if !ok {
		column = jobSortColumns["createdAt"]
	}
	direction := "DESC"
	if f.SortOrder == domain.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, j.id %s", column, direction, direction)
}

func (r *Repository) ListJobs(ctx context.Context, f *domain.JobFilter) ([]*domain.Job, int, error) {
	where, args := buildJobFilter(f)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	total := 0
	countQuery := `SELECT COUNT(*) FROM jobs j` + where
	if err := r.dbpool.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobColumns + `
		FROM jobs j
		JOIN users u ON u.id = j.posted_by` +
		where +
		jobOrderBy(f) +
		fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset())

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// ListJobsByOwner 返回某个用户发布的全部职位，申请数量是实时统计的
func (r *Repository) ListJobsByOwner(ctx context.Context, ownerID int64) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + `,
			(SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.posted_by
		WHERE j.posted_by = $1
		ORDER BY j.created_at DESC, j.id DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		var live int32
		job, err := scanJob(scannerWithExtra{rows: rows, extra: []any{&live}})
		if err != nil {
			return nil, err
		}
		job.ApplicationsCount = live
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

// scannerWithExtra 在 scanJob 的列之后额外扫描几列
type scannerWithExtra struct {
	rows  scanner
	extra []any
}

func (s scannerWithExtra) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.extra...)...)
}
