package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/policy"
)

type ApplyInput struct {
	JobID       int64
	CoverLetter string
	Resume      string
}

// Apply 为 actor 创建一份申请。
// 同一个 (job, applicant) 只允许存在一份申请，这是先查后写的检查，
// 两个同时到达的请求可能都会成功。
func (s *Service) Apply(ctx context.Context, actor *domain.User, in ApplyInput) (*domain.Application, error) {
	if err := policy.Decide(actor, policy.CreateApplication, policy.Target{}); err != nil {
		return nil, err
	}

	job, err := s.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}

	if job.Status != domain.JobStatusActive {
		return nil, domain.NotFound("job not found or no longer active")
	}

	now := s.now()
	if job.DeadlinePassed(now) {
		return nil, domain.Violation("application deadline has passed")
	}

	exists, err := s.store.ApplicationExists(ctx, job.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Violation("you have already applied for this job")
	}

	app := &domain.Application{
		JobID:       job.ID,
		ApplicantID: actor.ID,
		CoverLetter: in.CoverLetter,
		Resume:      in.Resume,
		Status:      domain.ApplicationStatusPending,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 职位在检查之后被删除
			return nil, domain.NotFound("job not found")
		}
		return nil, err
	}

	app.Job = summarizeJob(job)
	app.Applicant = &domain.UserSummary{ID: actor.ID, Name: actor.Name, Email: actor.Email}

	s.notifyEmployer(ctx, job, actor, app)

	return app, nil
}

func (s *Service) notifyEmployer(ctx context.Context, job *domain.Job, applicant *domain.User, app *domain.Application) {
	if s.notifier == nil {
		return
	}

	employer, err := s.store.GetUserByID(ctx, job.PostedBy)
	if err != nil {
		s.logger.Error("查询职位发布者失败", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
		return
	}

	s.notify(ctx, &domain.MailMessage{
		Type: domain.MailTypeNewApplication,
		To:   employer.Email,
		Data: domain.NewApplicationMailData{
			EmployerName:  employer.Name,
			ApplicantName: applicant.Name,
			JobTitle:      job.Title,
			ApplicationID: app.ID,
			JobID:         job.ID,
		},
	})
}

// loadApplication 同时返回申请和它所属的职位
func (s *Service) loadApplication(ctx context.Context, id int64) (*domain.Application, *domain.Job, error) {
	app, err := s.store.GetApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound("application not found")
		}
		return nil, nil, err
	}

	job, err := s.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, nil, err
	}

	return app, job, nil
}

func (s *Service) GetApplication(ctx context.Context, actor *domain.User, id int64) (*domain.Application, error) {
	app, job, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Decide(actor, policy.ReadApplication, policy.Target{Job: job, Application: app}); err != nil {
		return nil, err
	}

	return app, nil
}

func (s *Service) ListMyApplications(ctx context.Context, actor *domain.User) ([]*domain.Application, error) {
	if actor == nil {
		return nil, domain.NotAuthenticated("not authenticated")
	}
	return s.store.ListApplicationsByApplicant(ctx, actor.ID)
}

func (s *Service) ListJobApplications(ctx context.Context, actor *domain.User, jobID int64) ([]*domain.Application, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := policy.Decide(actor, policy.ListJobApplications, policy.Target{Job: job}); err != nil {
		return nil, err
	}

	return s.store.ListApplicationsByJob(ctx, job.ID)
}

// UpdateApplicationStatus 允许设置为任意状态，除 pending 以外都会记录审核时间
func (s *Service) UpdateApplicationStatus(ctx context.Context, actor *domain.User, id int64, status domain.ApplicationStatus, notes string) (*domain.Application, error) {
	app, job, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Decide(actor, policy.ReviewApplication, policy.Target{Job: job, Application: app}); err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, domain.Invalid("invalid status")
	}

	app.Review(status, notes, s.now())
	app.UpdatedAt = s.now()

	if err := s.store.UpdateApplicationReview(ctx, app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflict("application was modified concurrently, please retry")
		}
		return nil, err
	}

	s.notifyApplicant(ctx, job, app)

	return app, nil
}

func (s *Service) AcceptApplication(ctx context.Context, actor *domain.User, id int64, notes string) (*domain.Application, error) {
	return s.UpdateApplicationStatus(ctx, actor, id, domain.ApplicationStatusHired, notes)
}

func (s *Service) RejectApplication(ctx context.Context, actor *domain.User, id int64, notes string) (*domain.Application, error) {
	return s.UpdateApplicationStatus(ctx, actor, id, domain.ApplicationStatusRejected, notes)
}

func (s *Service) notifyApplicant(ctx context.Context, job *domain.Job, app *domain.Application) {
	if s.notifier == nil {
		return
	}

	applicant, err := s.store.GetUserByID(ctx, app.ApplicantID)
	if err != nil {
		s.logger.Error("查询申请人失败", slog.Int64("application_id", app.ID), slog.String("error", err.Error()))
		return
	}

	s.notify(ctx, &domain.MailMessage{
		Type: domain.MailTypeApplicationStatus,
		To:   applicant.Email,
		Data: domain.ApplicationStatusMailData{
			ApplicantName: applicant.Name,
			JobTitle:      job.Title,
			Company:       job.Company,
			Status:        app.Status,
			Notes:         app.Notes,
		},
	})
}

// DeleteApplication 只有申请人本人可以删除，并且申请必须仍是 pending
func (s *Service) DeleteApplication(ctx context.Context, actor *domain.User, id int64) error {
	app, job, err := s.loadApplication(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Decide(actor, policy.DeleteApplication, policy.Target{Job: job, Application: app}); err != nil {
		return err
	}

	if err := s.store.DeleteApplication(ctx, app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 检查之后申请被审核或者已被删除
			return domain.Violation("cannot delete an application that has been reviewed")
		}
		return err
	}

	return nil
}

func summarizeJob(job *domain.Job) *domain.JobSummary {
	return &domain.JobSummary{
		ID:       job.ID,
		Title:    job.Title,
		Company:  job.Company,
		Location: job.Location,
		Type:     job.Type,
		Status:   job.Status,
		PostedBy: job.PostedBy,
	}
}
