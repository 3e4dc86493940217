package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/policy"
)

type JobInput struct {
	Title               string
	Description         string
	Company             string
	Location            string
	Type                domain.JobType
	Category            string
	Salary              domain.Salary
	Requirements        domain.Requirements
	Benefits            []string
	ApplicationDeadline *time.Time
	Status              domain.JobStatus
}

// JobPatch 中为 nil 的字段保持不变
type JobPatch struct {
	Title               *string
	Description         *string
	Company             *string
	Location            *string
	Type                *domain.JobType
	Category            *string
	Salary              *domain.Salary
	Requirements        *domain.Requirements
	Benefits            *[]string
	ApplicationDeadline *time.Time
	ClearDeadline       bool
	Status              *domain.JobStatus
}

func (s *Service) CreateJob(ctx context.Context, actor *domain.User, in JobInput) (*domain.Job, error) {
	if err := policy.Decide(actor, policy.CreateJob, policy.Target{}); err != nil {
		return nil, err
	}

	job := &domain.Job{
		Title:               strings.TrimSpace(in.Title),
		Description:         in.Description,
		Company:             in.Company,
		Location:            in.Location,
		Type:                in.Type,
		Category:            in.Category,
		Salary:              in.Salary,
		Requirements:        in.Requirements,
		Benefits:            in.Benefits,
		ApplicationDeadline: in.ApplicationDeadline,
		PostedBy:            actor.ID,
		Status:              in.Status,
	}
	if job.Status == "" {
		job.Status = domain.JobStatusActive
	}
	if job.Salary.Currency == "" {
		job.Salary.Currency = domain.DefaultCurrency
	}
	if job.Benefits == nil {
		job.Benefits = []string{}
	}
	if job.Requirements.Skills == nil {
		job.Requirements.Skills = []string{}
	}

	if err := validateSalary(job.Salary); err != nil {
		return nil, err
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.indexJob(ctx, job)

	return job, nil
}

func validateSalary(salary domain.Salary) error {
	if salary.Min != nil && salary.Max != nil && *salary.Min > *salary.Max {
		return domain.Invalid("salary min must not exceed salary max")
	}
	return nil
}

func (s *Service) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("job not found")
		}
		return nil, err
	}
	return job, nil
}

func (s *Service) UpdateJob(ctx context.Context, actor *domain.User, id int64, patch JobPatch) (*domain.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Decide(actor, policy.UpdateJob, policy.Target{Job: job}); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		job.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Company != nil {
		job.Company = *patch.Company
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Type != nil {
		job.Type = *patch.Type
	}
	if patch.Category != nil {
		job.Category = *patch.Category
	}
	if patch.Salary != nil {
		job.Salary = *patch.Salary
		if job.Salary.Currency == "" {
			job.Salary.Currency = domain.DefaultCurrency
		}
	}
	if patch.Requirements != nil {
		job.Requirements = *patch.Requirements
	}
	if patch.Benefits != nil {
		job.Benefits = *patch.Benefits
	}
	if patch.ApplicationDeadline != nil {
		job.ApplicationDeadline = patch.ApplicationDeadline
	} else if patch.ClearDeadline {
		job.ApplicationDeadline = nil
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}

	if err := validateSalary(job.Salary); err != nil {
		return nil, err
	}

	if err := s.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflict("job was modified concurrently, please retry")
		}
		return nil, err
	}

	s.indexJob(ctx, job)

	return job, nil
}

// DeleteJob 删除职位，该职位下的申请会一并删除
func (s *Service) DeleteJob(ctx context.Context, actor *domain.User, id int64) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.Decide(actor, policy.DeleteJob, policy.Target{Job: job}); err != nil {
		return err
	}

	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}

	s.unindexJob(ctx, id)

	return nil
}

// ListJobs 只返回 active 状态的职位
func (s *Service) ListJobs(ctx context.Context, filter domain.JobFilter) (*domain.JobPage, error) {
	if err := s.normalizeFilter(&filter); err != nil {
		return nil, err
	}

	if filter.Search != "" && s.searcher != nil {
		// 检索引擎最多返回 maxPageSize*10 个候选职位，超出部分不会出现在结果和 total 中
		ids, err := s.searcher.SearchJobIDs(ctx, filter.Search, s.searchCandidateLimit())
		if err != nil {
			// 检索引擎不可用时退回到数据库的全文检索
			s.logger.Warn("全文检索失败，使用数据库查询", slog.String("error", err.Error()))
		} else {
			filter.IDs = ids
			filter.Search = ""
		}
	}

	if filter.IDs != nil && len(filter.IDs) == 0 {
		return domain.NewJobPage([]*domain.Job{}, 0, &filter), nil
	}

	jobs, total, err := s.store.ListJobs(ctx, &filter)
	if err != nil {
		return nil, err
	}

	return domain.NewJobPage(jobs, total, &filter), nil
}

func (s *Service) searchCandidateLimit() int {
	return s.maxPageSize * 10
}

func (s *Service) normalizeFilter(f *domain.JobFilter) error {
	f.Search = strings.TrimSpace(f.Search)
	f.Location = strings.TrimSpace(f.Location)
	f.Category = strings.TrimSpace(f.Category)

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = s.defaultPageSize
	}
	if f.Limit > s.maxPageSize {
		f.Limit = s.maxPageSize
	}

	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if !slices.Contains(domain.JobSortFields, f.SortBy) {
		return domain.Invalid("invalid sortBy: " + f.SortBy)
	}

	switch f.SortOrder {
	case "":
		f.SortOrder = domain.SortDesc
	case domain.SortAsc, domain.SortDesc:
	default:
		return domain.Invalid("sortOrder must be asc or desc")
	}

	return nil
}

// ListMyJobs 返回当前用户发布的全部职位，applicationsCount 为实时统计的值
func (s *Service) ListMyJobs(ctx context.Context, actor *domain.User) ([]*domain.Job, error) {
	if actor == nil {
		return nil, domain.NotAuthenticated("not authenticated")
	}
	return s.store.ListJobsByOwner(ctx, actor.ID)
}
