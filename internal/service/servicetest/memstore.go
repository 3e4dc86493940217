// Package servicetest 提供一个内存中的 Store，供业务层和接口层的测试使用
package servicetest

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type MemStore struct {
	mu sync.Mutex

	users        map[int64]*domain.User
	jobs         map[int64]*domain.Job
	applications map[int64]*domain.Application
	nextID       int64

	// AfterExistenceCheck 在 ApplicationExists 返回之前调用（不持有锁），
	// 测试用它让并发的申请请求在检查和写入之间对齐
	AfterExistenceCheck func()
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:        make(map[int64]*domain.User),
		jobs:         make(map[int64]*domain.Job),
		applications: make(map[int64]*domain.Application),
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Profile.Skills = slices.Clone(u.Profile.Skills)
	return &c
}

func copyJob(j *domain.Job) *domain.Job {
	c := *j
	c.Benefits = slices.Clone(j.Benefits)
	c.Requirements.Skills = slices.Clone(j.Requirements.Skills)
	if j.ApplicationDeadline != nil {
		d := *j.ApplicationDeadline
		c.ApplicationDeadline = &d
	}
	return &c
}

func copyApplication(a *domain.Application) *domain.Application {
	c := *a
	if a.ReviewedAt != nil {
		r := *a.ReviewedAt
		c.ReviewedAt = &r
	}
	c.Job = nil
	c.Applicant = nil
	return &c
}

// ---------------------------------------------- 用户 ----------------------------------------------

func (m *MemStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyUser(u), nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStore) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.Conflict("user already exists with this email")
		}
	}

	now := time.Now()
	user.ID = m.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 1
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *MemStore) UpdateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok || stored.Version != user.Version {
		return sql.ErrNoRows
	}

	user.Version++
	user.UpdatedAt = time.Now()
	m.users[user.ID] = copyUser(user)
	return nil
}

// ---------------------------------------------- 职位 ----------------------------------------------

func (m *MemStore) poster(id int64) *domain.UserSummary {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	company := u.Company
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Company: &company}
}

func (m *MemStore) CreateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	job.ID = m.id()
	job.ApplicationsCount = 0
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Version = 1
	job.Poster = m.poster(job.PostedBy)
	m.jobs[job.ID] = copyJob(job)
	return nil
}

func (m *MemStore) GetJobByID(_ context.Context, id int64) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := copyJob(j)
	c.Poster = m.poster(j.PostedBy)
	return c, nil
}

func (m *MemStore) UpdateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.jobs[job.ID]
	if !ok || stored.Version != job.Version {
		return sql.ErrNoRows
	}

	// 计数只由申请的增删维护
	job.ApplicationsCount = stored.ApplicationsCount
	job.PostedBy = stored.PostedBy
	job.Version++
	job.UpdatedAt = time.Now()
	m.jobs[job.ID] = copyJob(job)
	return nil
}

func (m *MemStore) DeleteJob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.jobs, id)
	for appID, a := range m.applications {
		if a.JobID == id {
			delete(m.applications, appID)
		}
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (m *MemStore) ListJobs(_ context.Context, f *domain.JobFilter) ([]*domain.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*domain.Job, 0)
	for _, j := range m.jobs {
		if j.Status != domain.JobStatusActive {
			continue
		}
		if f.IDs != nil && !slices.Contains(f.IDs, j.ID) {
			continue
		}
		if f.Search != "" {
			fields := []string{j.Title, j.Description, j.Company, j.Location, j.Category}
			if !slices.ContainsFunc(fields, func(s string) bool { return containsFold(s, f.Search) }) {
				continue
			}
		}
		if f.Location != "" && !containsFold(j.Location, f.Location) {
			continue
		}
		if f.Type != "" && j.Type != f.Type {
			continue
		}
		if f.Category != "" && !containsFold(j.Category, f.Category) {
			continue
		}
		c := copyJob(j)
		c.Poster = m.poster(j.PostedBy)
		matched = append(matched, c)
	}

	slices.SortStableFunc(matched, func(a, b *domain.Job) int {
		r := compareJobs(a, b, f.SortBy)
		if r == 0 {
			r = cmp.Compare(a.ID, b.ID)
		}
		if f.SortOrder == domain.SortDesc {
			return -r
		}
		return r
	})

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func compareJobs(a, b *domain.Job, sortBy string) int {
	switch sortBy {
	case "title":
		return cmp.Compare(a.Title, b.Title)
	case "company":
		return cmp.Compare(a.Company, b.Company)
	case "location":
		return cmp.Compare(a.Location, b.Location)
	case "applicationsCount":
		return cmp.Compare(a.ApplicationsCount, b.ApplicationsCount)
	case "applicationDeadline":
		return compareTimePtr(a.ApplicationDeadline, b.ApplicationDeadline)
	case "salaryMin":
		return compareFloatPtr(a.Salary.Min, b.Salary.Min)
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func (m *MemStore) ListJobsByOwner(_ context.Context, ownerID int64) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]*domain.Job, 0)
	for _, j := range m.jobs {
		if j.PostedBy != ownerID {
			continue
		}
		c := copyJob(j)
		c.Poster = m.poster(j.PostedBy)
		c.ApplicationsCount = int32(m.countApplications(j.ID))
		jobs = append(jobs, c)
	}
	slices.SortFunc(jobs, func(a, b *domain.Job) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return jobs, nil
}

func (m *MemStore) countApplications(jobID int64) int {
	n := 0
	for _, a := range m.applications {
		if a.JobID == jobID {
			n++
		}
	}
	return n
}

// CountApplications 返回某个职位下现存申请的数量
func (m *MemStore) CountApplications(jobID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countApplications(jobID)
}

// ---------------------------------------------- 申请 ----------------------------------------------

func (m *MemStore) populate(a *domain.Application) *domain.Application {
	c := copyApplication(a)
	if j, ok := m.jobs[a.JobID]; ok {
		c.Job = &domain.JobSummary{
			ID:       j.ID,
			Title:    j.Title,
			Company:  j.Company,
			Location: j.Location,
			Type:     j.Type,
			Status:   j.Status,
			PostedBy: j.PostedBy,
		}
	}
	if u, ok := m.users[a.ApplicantID]; ok {
		profile := u.Profile
		c.Applicant = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Profile: &profile}
	}
	return c
}

func (m *MemStore) GetApplicationByID(_ context.Context, id int64) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.populate(a), nil
}

func (m *MemStore) ApplicationExists(_ context.Context, jobID, applicantID int64) (bool, error) {
	m.mu.Lock()
	exists := false
	for _, a := range m.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			exists = true
			break
		}
	}
	m.mu.Unlock()

	if m.AfterExistenceCheck != nil {
		m.AfterExistenceCheck()
	}
	return exists, nil
}

func (m *MemStore) CreateApplication(_ context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[app.JobID]
	if !ok {
		return sql.ErrNoRows
	}

	app.ID = m.id()
	app.Version = 1
	m.applications[app.ID] = copyApplication(app)
	job.ApplicationsCount++
	return nil
}

func (m *MemStore) DeleteApplication(_ context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.applications[app.ID]
	if !ok || stored.Status != domain.ApplicationStatusPending {
		return sql.ErrNoRows
	}

	delete(m.applications, app.ID)
	if job, ok := m.jobs[stored.JobID]; ok && job.ApplicationsCount > 0 {
		job.ApplicationsCount--
	}
	return nil
}

func (m *MemStore) UpdateApplicationReview(_ context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.applications[app.ID]
	if !ok || stored.Version != app.Version {
		return sql.ErrNoRows
	}

	app.Version++
	m.applications[app.ID] = copyApplication(app)
	return nil
}

func (m *MemStore) listApplications(match func(*domain.Application) bool) []*domain.Application {
	apps := make([]*domain.Application, 0)
	for _, a := range m.applications {
		if match(a) {
			apps = append(apps, m.populate(a))
		}
	}
	slices.SortFunc(apps, func(a, b *domain.Application) int {
		return cmp.Or(b.AppliedAt.Compare(a.AppliedAt), cmp.Compare(b.ID, a.ID))
	})
	return apps
}

func (m *MemStore) ListApplicationsByJob(_ context.Context, jobID int64) ([]*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listApplications(func(a *domain.Application) bool { return a.JobID == jobID }), nil
}

func (m *MemStore) ListApplicationsByApplicant(_ context.Context, applicantID int64) ([]*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listApplications(func(a *domain.Application) bool { return a.ApplicantID == applicantID }), nil
}

// Notifier 记录所有投递过的消息
type Notifier struct {
	mu       sync.Mutex
	Messages []*domain.MailMessage
	Err      error
}

func (n *Notifier) Publish(_ context.Context, msg *domain.MailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Messages = append(n.Messages, msg)
	return nil
}

func (n *Notifier) Sent() []*domain.MailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.Messages)
}
