package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/policy"
)

var (
	admin    = &domain.User{ID: 1, Role: domain.RoleAdmin}
	owner    = &domain.User{ID: 2, Role: domain.RoleEmployer}
	stranger = &domain.User{ID: 3, Role: domain.RoleEmployer}
	seeker   = &domain.User{ID: 4, Role: domain.RoleJobSeeker}
	other    = &domain.User{ID: 5, Role: domain.RoleJobSeeker}
)

func target(status domain.ApplicationStatus) policy.Target {
	return policy.Target{
		Job:         &domain.Job{ID: 10, PostedBy: owner.ID},
		Application: &domain.Application{ID: 100, JobID: 10, ApplicantID: seeker.ID, Status: status},
	}
}

func TestDecide(t *testing.T) {
	pending := target(domain.ApplicationStatusPending)
	reviewed := target(domain.ApplicationStatusReviewed)

	tests := []struct {
		name   string
		actor  *domain.User
		action policy.Action
		target policy.Target
		want   error
	}{
		{"employer creates job", owner, policy.CreateJob, policy.Target{}, nil},
		{"admin creates job", admin, policy.CreateJob, policy.Target{}, nil},
		{"jobseeker creates job", seeker, policy.CreateJob, policy.Target{}, domain.ErrForbidden},

		{"owner updates job", owner, policy.UpdateJob, pending, nil},
		{"admin updates job", admin, policy.UpdateJob, pending, nil},
		{"other employer updates job", stranger, policy.UpdateJob, pending, domain.ErrForbidden},
		{"owner deletes job", owner, policy.DeleteJob, pending, nil},
		{"other employer deletes job", stranger, policy.DeleteJob, pending, domain.ErrForbidden},

		{"jobseeker applies", seeker, policy.CreateApplication, policy.Target{Job: pending.Job}, nil},
		{"employer applies", owner, policy.CreateApplication, policy.Target{Job: pending.Job}, domain.ErrForbidden},
		{"admin applies", admin, policy.CreateApplication, policy.Target{Job: pending.Job}, domain.ErrForbidden},

		{"owner reviews", owner, policy.ReviewApplication, pending, nil},
		{"admin reviews", admin, policy.ReviewApplication, pending, nil},
		{"other employer reviews", stranger, policy.ReviewApplication, pending, domain.ErrForbidden},
		{"applicant reviews own application", seeker, policy.ReviewApplication, pending, domain.ErrForbidden},

		{"applicant deletes pending", seeker, policy.DeleteApplication, pending, nil},
		{"applicant deletes reviewed", seeker, policy.DeleteApplication, reviewed, domain.ErrRuleViolation},
		{"other jobseeker deletes", other, policy.DeleteApplication, pending, domain.ErrForbidden},
		{"owner deletes application", owner, policy.DeleteApplication, pending, domain.ErrForbidden},
		{"admin deletes application", admin, policy.DeleteApplication, pending, domain.ErrForbidden},

		{"applicant reads", seeker, policy.ReadApplication, reviewed, nil},
		{"owner reads", owner, policy.ReadApplication, reviewed, nil},
		{"admin reads", admin, policy.ReadApplication, reviewed, nil},
		{"other jobseeker reads", other, policy.ReadApplication, reviewed, domain.ErrForbidden},
		{"other employer reads", stranger, policy.ReadApplication, reviewed, domain.ErrForbidden},

		{"owner lists job applications", owner, policy.ListJobApplications, policy.Target{Job: pending.Job}, nil},
		{"admin lists job applications", admin, policy.ListJobApplications, policy.Target{Job: pending.Job}, nil},
		{"other employer lists job applications", stranger, policy.ListJobApplications, policy.Target{Job: pending.Job}, domain.ErrForbidden},

		{"anonymous", nil, policy.CreateJob, policy.Target{}, domain.ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Decide(tt.actor, tt.action, tt.target)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecideKindsAreDistinct(t *testing.T) {
	err := policy.Decide(stranger, policy.ListJobApplications, target(domain.ApplicationStatusPending))

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrNotAuthenticated))
}
