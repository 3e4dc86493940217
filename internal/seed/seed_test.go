package seed

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
	"github.com/jobseek-dev/job-board/backend/internal/service/servicetest"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestEmailFromChineseName(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	email := emailFromChineseName("王伟", "example.com", rnd)

	assert.True(t, strings.HasPrefix(email, "wangwei"), email)
	assert.True(t, strings.HasSuffix(email, "@example.com"), email)
}

func TestRandomJobInputIsValid(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))

	for range 50 {
		in := randomJobInput(rnd, "星辰科技", fixedNow)
		assert.NotEmpty(t, in.Title)
		assert.Contains(t, categories, in.Category)
		assert.NotEmpty(t, in.Requirements.Skills)
		require.NotNil(t, in.Salary.Min)
		require.NotNil(t, in.Salary.Max)
		assert.LessOrEqual(t, *in.Salary.Min, *in.Salary.Max)
		if in.ApplicationDeadline != nil {
			assert.True(t, in.ApplicationDeadline.After(fixedNow))
		}
	}
}

func TestRun(t *testing.T) {
	store := servicetest.NewMemStore()
	svc := service.New(store)
	s := New(svc, "password123", "example.com", rand.New(rand.NewSource(3)))

	res, err := s.Run(context.Background(), Options{
		Employers:             2,
		JobSeekers:            3,
		JobsPerEmployer:       2,
		ApplicationsPerSeeker: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 4, res.Jobs)
	assert.Equal(t, 6, res.Applications)

	page, err := svc.ListJobs(context.Background(), domain.JobFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)

	var counted int
	for _, job := range page.Jobs {
		assert.EqualValues(t, store.CountApplications(job.ID), job.ApplicationsCount)
		counted += int(job.ApplicationsCount)
	}
	assert.Equal(t, res.Applications, counted)
}
