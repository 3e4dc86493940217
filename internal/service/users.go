package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Profile  domain.Profile
	Company  domain.Company
}

type ProfileInput struct {
	Name    *string
	Profile *domain.Profile
	Company *domain.Company
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	// 管理员只能通过配置创建
	if in.Role != domain.RoleJobSeeker && in.Role != domain.RoleEmployer {
		return nil, domain.Invalid("role must be jobseeker or employer")
	}

	email := normalizeEmail(in.Email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("user already exists with this email")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Profile:      in.Profile,
		Company:      in.Company,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   user.Email,
		Data: domain.WelcomeMailData{Name: user.Name, Role: user.Role},
	})

	return user, nil
}

// Authenticate 校验邮箱和密码，用户不存在和密码错误返回同样的错误
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotAuthenticated("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.NotAuthenticated("invalid email or password")
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor *domain.User, in ProfileInput) (*domain.User, error) {
	if actor == nil {
		return nil, domain.NotAuthenticated("not authenticated")
	}

	user := *actor
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Profile != nil {
		user.Profile = *in.Profile
	}
	if in.Company != nil {
		user.Company = *in.Company
	}

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflict("profile was modified concurrently, please retry")
		}
		return nil, err
	}

	return &user, nil
}

// EnsureAdmin 在管理员账号不存在时创建它，已存在则什么也不做
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("已创建初始管理员", slog.String("email", email))
	return nil
}
