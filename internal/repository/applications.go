package repository

import (
	"context"
	"database/sql"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

const applicationColumns = `
	a.id,
	a.job_id,
	a.applicant_id,
	a.cover_letter,
	a.resume,
	a.status,
	a.notes,
	a.applied_at,
	a.reviewed_at,
	a.updated_at,
	a.version,
	j.title,
	j.company,
	j.location,
	j.type,
	j.status,
	j.posted_by,
	u.name,
	u.email,
	u.profile
`

const applicationJoins = `
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN users u ON u.id = a.applicant_id
`

func scanApplication(row scanner) (*domain.Application, error) {
	app := &domain.Application{
		Job:       &domain.JobSummary{},
		Applicant: &domain.UserSummary{Profile: &domain.Profile{}},
	}

	dst := []any{
		&app.ID,
		&app.JobID,
		&app.ApplicantID,
		&app.CoverLetter,
		&app.Resume,
		&app.Status,
		&app.Notes,
		&app.AppliedAt,
		&app.ReviewedAt,
		&app.UpdatedAt,
		&app.Version,
		&app.Job.Title,
		&app.Job.Company,
		&app.Job.Location,
		&app.Job.Type,
		&app.Job.Status,
		&app.Job.PostedBy,
		&app.Applicant.Name,
		&app.Applicant.Email,
		asJSON(app.Applicant.Profile),
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	app.Job.ID = app.JobID
	app.Applicant.ID = app.ApplicantID

	return app, nil
}

func (r *Repository) GetApplicationByID(ctx context.Context, id int64) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + applicationJoins + `WHERE a.id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanApplication(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) ApplicationExists(ctx context.Context, jobID, applicantID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND applicant_id = $2)
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	exists := false
	if err := r.dbpool.QueryRowContext(ctx, query, jobID, applicantID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// CreateApplication 插入申请并增加职位的申请计数，两步在同一个事务中完成
func (r *Repository) CreateApplication(ctx context.Context, app *domain.Application) error {
	return r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		insert := `
			INSERT INTO applications (job_id, applicant_id, cover_letter, resume, status, applied_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id, version
		`
		params := []any{app.JobID, app.ApplicantID, app.CoverLetter, app.Resume, app.Status, app.AppliedAt}
		if err := tx.QueryRowContext(ctx, insert, params...).Scan(&app.ID, &app.Version); err != nil {
			return translateError(err)
		}

		increment := `
			UPDATE jobs SET applications_count = applications_count + 1 WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, increment, app.JobID)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}

		return nil
	})
}

// DeleteApplication 只会删除 pending 状态的申请，没有删除任何行时返回 sql.ErrNoRows 且计数不变
func (r *Repository) DeleteApplication(ctx context.Context, app *domain.Application) error {
	return r.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		del := `
			DELETE FROM applications WHERE id = $1 AND status = 'pending'
			RETURNING job_id
		`
		var jobID int64
		if err := tx.QueryRowContext(ctx, del, app.ID).Scan(&jobID); err != nil {
			return err
		}

		decrement := `
			UPDATE jobs SET applications_count = GREATEST(applications_count - 1, 0) WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, decrement, jobID); err != nil {
			return err
		}

		return nil
	})
}

func (r *Repository) UpdateApplicationReview(ctx context.Context, app *domain.Application) error {
	query := `
		UPDATE applications
		SET
			status = $1,
			notes = $2,
			reviewed_at = $3,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{app.Status, app.Notes, app.ReviewedAt, app.ID, app.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&app.UpdatedAt, &app.Version); err != nil {
		return translateError(err)
	}

	return nil
}

func (r *Repository) listApplications(ctx context.Context, where string, arg int64) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + applicationJoins + where + `
		ORDER BY a.applied_at DESC, a.id DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]*domain.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *Repository) ListApplicationsByJob(ctx context.Context, jobID int64) ([]*domain.Application, error) {
	return r.listApplications(ctx, "WHERE a.job_id = $1", jobID)
}

func (r *Repository) ListApplicationsByApplicant(ctx context.Context, applicantID int64) ([]*domain.Application, error) {
	return r.listApplications(ctx, "WHERE a.applicant_id = $1", applicantID)
}
