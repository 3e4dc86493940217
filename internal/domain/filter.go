package domain

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// JobSortFields 是列表查询允许的排序字段
var JobSortFields = []string{
	"createdAt",
	"title",
	"company",
	"location",
	"applicationDeadline",
	"applicationsCount",
	"salaryMin",
}

type JobFilter struct {
	Search    string
	Location  string
	Type      JobType
	Category  string
	SortBy    string
	SortOrder SortOrder
	Page      int
	Limit     int

	// IDs 不为 nil 时，只在这些职位中查询（由全文检索引擎给出的候选集）
	IDs []int64
}

func (f *JobFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type JobPage struct {
	Jobs        []*Job `json:"jobs"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Total       int    `json:"total"`
}

// NewJobPage 计算总页数，totalPages = ceil(total / limit)
func NewJobPage(jobs []*Job, total int, f *JobFilter) *JobPage {
	totalPages := 0
	if f.Limit > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}
	return &JobPage{
		Jobs:        jobs,
		TotalPages:  totalPages,
		CurrentPage: f.Page,
		Total:       total,
	}
}
