package handler

import (
	"net/http"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

type reviewRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID       int64  `json:"jobId" validate:"required,gt=0"`
		CoverLetter string `json:"coverLetter" validate:"required,max=5000"`
		Resume      string `json:"resume" validate:"required,url"`
	}

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	app, err := h.service.Apply(r.Context(), myInfoFrom(r), service.ApplyInput{
		JobID:       req.JobID,
		CoverLetter: req.CoverLetter,
		Resume:      req.Resume,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.createdResponse(w, r, "application submitted", app)
}

func (h *Handler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListMyApplications(r.Context(), myInfoFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched my applications", apps)
}

func (h *Handler) ListJobApplications(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.readIDParam(r, "jobId")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	apps, err := h.service.ListJobApplications(r.Context(), myInfoFrom(r), jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched job applications", apps)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	app, err := h.service.GetApplication(r.Context(), myInfoFrom(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched application", app)
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending reviewed shortlisted rejected hired"`
		Notes  string `json:"notes" validate:"max=2000"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	app, err := h.service.UpdateApplicationStatus(r.Context(), myInfoFrom(r), id, domain.ApplicationStatus(req.Status), req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "application status updated", app)
}

// readReview 读取 accept / reject 的可选请求体
func (h *Handler) readReview(w http.ResponseWriter, r *http.Request) (*reviewRequest, bool) {
	var req reviewRequest
	if err := h.readOptionalJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	return &req, true
}

func (h *Handler) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	req, ok := h.readReview(w, r)
	if !ok {
		return
	}

	app, err := h.service.AcceptApplication(r.Context(), myInfoFrom(r), id, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "application accepted", app)
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	req, ok := h.readReview(w, r)
	if !ok {
		return
	}

	app, err := h.service.RejectApplication(r.Context(), myInfoFrom(r), id, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "application rejected", app)
}

func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.service.DeleteApplication(r.Context(), myInfoFrom(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "application withdrawn", nil)
}
