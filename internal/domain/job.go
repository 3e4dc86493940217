package domain

import "time"

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeFreelance  JobType = "freelance"
)

type JobStatus string

const (
	JobStatusActive JobStatus = "active"
	JobStatusClosed JobStatus = "closed"
	JobStatusDraft  JobStatus = "draft"
)

const DefaultCurrency = "USD"

type Salary struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency"`
}

type Requirements struct {
	Experience string   `json:"experience,omitempty"`
	Education  string   `json:"education,omitempty"`
	Skills     []string `json:"skills"`
}

type Job struct {
	ID                  int64        `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Company             string       `json:"company"`
	Location            string       `json:"location"`
	Type                JobType      `json:"type"`
	Category            string       `json:"category"`
	Salary              Salary       `json:"salary"`
	Requirements        Requirements `json:"requirements"`
	Benefits            []string     `json:"benefits"`
	ApplicationDeadline *time.Time   `json:"applicationDeadline,omitempty"`
	PostedBy            int64        `json:"postedBy"`
	Status              JobStatus    `json:"status"`
	ApplicationsCount   int32        `json:"applicationsCount"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
	Version             int32        `json:"-"`

	Poster *UserSummary `json:"poster,omitempty"`
}

// DeadlinePassed 判断在给定时刻该职位的申请截止时间是否已过。
// 截止时间等于 now 时仍然允许申请，只有 now 严格晚于截止时间才算过期。
func (j *Job) DeadlinePassed(now time.Time) bool {
	return j.ApplicationDeadline != nil && now.After(*j.ApplicationDeadline)
}

// JobSummary 是嵌入在申请中的职位信息
type JobSummary struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
	Type     JobType   `json:"type"`
	Status   JobStatus `json:"status"`
	PostedBy int64     `json:"postedBy"`
}
