package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
	"github.com/jobseek-dev/job-board/backend/internal/service/servicetest"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service.Service
	store    *servicetest.MemStore
	notifier *servicetest.Notifier

	admin    *domain.User
	employer *domain.User
	rival    *domain.User
	seeker   *domain.User
	seeker2  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := servicetest.NewMemStore()
	notifier := &servicetest.Notifier{}
	f := &fixture{
		svc:      service.New(store, service.WithNotifier(notifier), service.WithClock(func() time.Time { return fixedNow })),
		store:    store,
		notifier: notifier,
	}

	f.admin = f.user(t, "Admin", "admin@example.com", domain.RoleAdmin)
	f.employer = f.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	f.rival = f.user(t, "Globex HR", "hr@globex.test", domain.RoleEmployer)
	f.seeker = f.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)
	f.seeker2 = f.user(t, "Han Meimei", "hanmeimei@example.com", domain.RoleJobSeeker)

	return f
}

func (f *fixture) user(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email, Role: role, PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) job(t *testing.T, mutate ...func(*service.JobInput)) *domain.Job {
	t.Helper()
	in := service.JobInput{
		Title:       "Backend Engineer",
		Description: "Build APIs in Go",
		Company:     "Acme",
		Location:    "Shanghai",
		Type:        domain.JobTypeFullTime,
		Category:    "Engineering",
	}
	for _, m := range mutate {
		m(&in)
	}
	job, err := f.svc.CreateJob(context.Background(), f.employer, in)
	require.NoError(t, err)
	return job
}

func (f *fixture) count(t *testing.T, jobID int64) int32 {
	t.Helper()
	job, err := f.store.GetJobByID(context.Background(), jobID)
	require.NoError(t, err)
	return job.ApplicationsCount
}

func (f *fixture) apply(t *testing.T, actor *domain.User, jobID int64) *domain.Application {
	t.Helper()
	app, err := f.svc.Apply(context.Background(), actor, service.ApplyInput{
		JobID:       jobID,
		CoverLetter: "I would love to join.",
		Resume:      "https://example.com/resume.pdf",
	})
	require.NoError(t, err)
	return app
}

func ptr[T any](v T) *T {
	return &v
}
