package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

// dateValue 接受 "2006-01-02" 或 RFC3339 格式的时间，JSON 中为 null 时表示清除
type dateValue struct {
	set  bool
	time *time.Time
}

func (d *dateValue) UnmarshalJSON(data []byte) error {
	d.set = true
	if bytes.Equal(data, []byte("null")) {
		d.time = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Invalid("applicationDeadline must be a date string")
	}
	if s == "" {
		d.time = nil
		return nil
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			d.time = &t
			return nil
		}
	}
	return domain.Invalid("applicationDeadline must be formatted as YYYY-MM-DD or RFC3339")
}

type salaryRequest struct {
	Min      *float64 `json:"min" validate:"omitempty,gte=0"`
	Max      *float64 `json:"max" validate:"omitempty,gte=0"`
	Currency string   `json:"currency" validate:"omitempty,len=3"`
}

func (s *salaryRequest) toDomain() domain.Salary {
	return domain.Salary{Min: s.Min, Max: s.Max, Currency: s.Currency}
}

type requirementsRequest struct {
	Experience string   `json:"experience" validate:"max=500"`
	Education  string   `json:"education" validate:"max=500"`
	Skills     []string `json:"skills" validate:"max=50,dive,required,max=100"`
}

func (q *requirementsRequest) toDomain() domain.Requirements {
	return domain.Requirements{Experience: q.Experience, Education: q.Education, Skills: q.Skills}
}

type createJobRequest struct {
	Title               string               `json:"title" validate:"required,max=200"`
	Description         string               `json:"description" validate:"required"`
	Company             string               `json:"company" validate:"required,max=200"`
	Location            string               `json:"location" validate:"required,max=200"`
	Type                string               `json:"type" validate:"required,oneof=full-time part-time contract internship freelance"`
	Category            string               `json:"category" validate:"required,max=100"`
	Salary              *salaryRequest       `json:"salary"`
	Requirements        *requirementsRequest `json:"requirements"`
	Benefits            []string             `json:"benefits" validate:"max=50,dive,required,max=200"`
	ApplicationDeadline dateValue            `json:"applicationDeadline"`
	Status              string               `json:"status" validate:"omitempty,oneof=active closed draft"`
}

type updateJobRequest struct {
	Title               *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description         *string              `json:"description" validate:"omitempty,min=1"`
	Company             *string              `json:"company" validate:"omitempty,min=1,max=200"`
	Location            *string              `json:"location" validate:"omitempty,min=1,max=200"`
	Type                *string              `json:"type" validate:"omitempty,oneof=full-time part-time contract internship freelance"`
	Category            *string              `json:"category" validate:"omitempty,min=1,max=100"`
	Salary              *salaryRequest       `json:"salary"`
	Requirements        *requirementsRequest `json:"requirements"`
	Benefits            *[]string            `json:"benefits" validate:"omitempty,max=50,dive,required,max=200"`
	ApplicationDeadline dateValue            `json:"applicationDeadline"`
	Status              *string              `json:"status" validate:"omitempty,oneof=active closed draft"`
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.JobFilter{
		Search:    query.Get("search"),
		Location:  query.Get("location"),
		Type:      domain.JobType(query.Get("type")),
		Category:  query.Get("category"),
		SortBy:    query.Get("sortBy"),
		SortOrder: domain.SortOrder(query.Get("sortOrder")),
	}

	var err error
	if filter.Page, err = readIntQuery(r, "page"); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if filter.Limit, err = readIntQuery(r, "limit"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	page, err := h.service.ListJobs(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched jobs", page)
}

// readIntQuery 读取整数查询参数，缺省时返回 0
func readIntQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name + " must be an integer")
	}
	return v, nil
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched job", job)
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	in := service.JobInput{
		Title:               req.Title,
		Description:         req.Description,
		Company:             req.Company,
		Location:            req.Location,
		Type:                domain.JobType(req.Type),
		Category:            req.Category,
		Benefits:            req.Benefits,
		ApplicationDeadline: req.ApplicationDeadline.time,
		Status:              domain.JobStatus(req.Status),
	}
	if req.Salary != nil {
		in.Salary = req.Salary.toDomain()
	}
	if req.Requirements != nil {
		in.Requirements = req.Requirements.toDomain()
	}

	job, err := h.service.CreateJob(r.Context(), myInfoFrom(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.createdResponse(w, r, "job created", job)
}

func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req updateJobRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	patch := service.JobPatch{
		Title:       req.Title,
		Description: req.Description,
		Company:     req.Company,
		Location:    req.Location,
		Category:    req.Category,
		Benefits:    req.Benefits,
	}
	if req.Type != nil {
		t := domain.JobType(*req.Type)
		patch.Type = &t
	}
	if req.Status != nil {
		s := domain.JobStatus(*req.Status)
		patch.Status = &s
	}
	if req.Salary != nil {
		salary := req.Salary.toDomain()
		patch.Salary = &salary
	}
	if req.Requirements != nil {
		requirements := req.Requirements.toDomain()
		patch.Requirements = &requirements
	}
	if req.ApplicationDeadline.set {
		patch.ApplicationDeadline = req.ApplicationDeadline.time
		patch.ClearDeadline = req.ApplicationDeadline.time == nil
	}

	job, err := h.service.UpdateJob(r.Context(), myInfoFrom(r), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "job updated", job)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.service.DeleteJob(r.Context(), myInfoFrom(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "job deleted", nil)
}

func (h *Handler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListMyJobs(r.Context(), myInfoFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched my jobs", jobs)
}
