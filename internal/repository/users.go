package repository

import (
	"context"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT name, email, password_hash, role, profile, company, created_at, updated_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Name, &user.Email, &user.PasswordHash, &user.Role, asJSON(&user.Profile), asJSON(&user.Company), &user.CreatedAt, &user.UpdatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, password_hash, role, profile, company, created_at, updated_at, version
		FROM users WHERE email = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		Email: email,
	}

	dst := []any{&user.ID, &user.Name, &user.PasswordHash, &user.Role, asJSON(&user.Profile), asJSON(&user.Company), &user.CreatedAt, &user.UpdatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, profile, company)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{user.Name, user.Email, user.PasswordHash, user.Role, asJSON(&user.Profile), asJSON(&user.Company)}
	dst := []any{&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return translateError(err)
	}

	return nil
}

// UpdateUser 只更新资料，邮箱、密码和角色不可修改
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET
			name = $1,
			profile = $2,
			company = $3,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING updated_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{user.Name, asJSON(&user.Profile), asJSON(&user.Company), user.ID, user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.UpdatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	count := 0
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
