// Package service 实现职位和申请的业务规则。
// 权限判断委托给 policy 包，持久化委托给 Store。
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

// Store 是业务层需要的持久化能力。
// 查不到记录或者乐观锁版本不匹配时返回 sql.ErrNoRows。
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error

	CreateJob(ctx context.Context, job *domain.Job) error
	GetJobByID(ctx context.Context, id int64) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, id int64) error
	ListJobs(ctx context.Context, filter *domain.JobFilter) ([]*domain.Job, int, error)
	ListJobsByOwner(ctx context.Context, ownerID int64) ([]*domain.Job, error)

	GetApplicationByID(ctx context.Context, id int64) (*domain.Application, error)
	ApplicationExists(ctx context.Context, jobID, applicantID int64) (bool, error)
	// CreateApplication 插入申请并把职位的 applications_count 加一，两者在同一个事务中完成
	CreateApplication(ctx context.Context, app *domain.Application) error
	// DeleteApplication 只删除仍处于 pending 的申请，并把计数减一
	DeleteApplication(ctx context.Context, app *domain.Application) error
	UpdateApplicationReview(ctx context.Context, app *domain.Application) error
	ListApplicationsByJob(ctx context.Context, jobID int64) ([]*domain.Application, error)
	ListApplicationsByApplicant(ctx context.Context, applicantID int64) ([]*domain.Application, error)
}

// Notifier 把邮件消息投递到消息队列
type Notifier interface {
	Publish(ctx context.Context, msg *domain.MailMessage) error
}

// Searcher 是可选的全文检索引擎
type Searcher interface {
	IndexJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, id int64) error
	SearchJobIDs(ctx context.Context, query string, limit int) ([]int64, error)
}

type Service struct {
	store    Store
	notifier Notifier
	searcher Searcher
	logger   *slog.Logger
	now      func() time.Time

	defaultPageSize int
	maxPageSize     int
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithSearcher(sr Searcher) Option {
	return func(s *Service) { s.searcher = sr }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock 替换当前时间的来源，测试中用来固定时间
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		s.defaultPageSize = defaultSize
		s.maxPageSize = maxSize
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		logger:          slog.Default(),
		now:             time.Now,
		defaultPageSize: 10,
		maxPageSize:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notify 发送通知失败只记录日志，不影响请求本身
func (s *Service) notify(ctx context.Context, msg *domain.MailMessage) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, msg); err != nil {
		s.logger.Error("投递邮件消息失败", slog.String("type", msg.Type), slog.String("to", msg.To), slog.String("error", err.Error()))
	}
}

func (s *Service) indexJob(ctx context.Context, job *domain.Job) {
	if s.searcher == nil {
		return
	}
	if err := s.searcher.IndexJob(ctx, job); err != nil {
		s.logger.Error("更新职位索引失败", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) unindexJob(ctx context.Context, id int64) {
	if s.searcher == nil {
		return
	}
	if err := s.searcher.DeleteJob(ctx, id); err != nil {
		s.logger.Error("删除职位索引失败", slog.Int64("job_id", id), slog.String("error", err.Error()))
	}
}
