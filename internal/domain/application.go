package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusReviewed    ApplicationStatus = "reviewed"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusHired       ApplicationStatus = "hired"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending,
		ApplicationStatusReviewed,
		ApplicationStatusShortlisted,
		ApplicationStatusRejected,
		ApplicationStatusHired:
		return true
	}
	return false
}

type Application struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"jobId"`
	ApplicantID int64             `json:"applicantId"`
	CoverLetter string            `json:"coverLetter"`
	Resume      string            `json:"resume"`
	Status      ApplicationStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	AppliedAt   time.Time         `json:"appliedAt"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Version     int32             `json:"-"`

	Job       *JobSummary  `json:"job,omitempty"`
	Applicant *UserSummary `json:"applicant,omitempty"`
}

// Review 把申请设置为新的状态。
// 除了回到 pending 以外的任何状态变更都会记录 reviewedAt；notes 只在非空时覆盖。
func (a *Application) Review(status ApplicationStatus, notes string, now time.Time) {
	a.Status = status
	if notes != "" {
		a.Notes = notes
	}
	if status != ApplicationStatusPending {
		reviewedAt := now
		a.ReviewedAt = &reviewedAt
	}
}
