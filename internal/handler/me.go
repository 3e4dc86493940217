package handler

import (
	"net/http"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", map[string]string{"status": "ok"})
}

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched current user", myInfoFrom(r))
}

func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string         `json:"name" validate:"omitempty,min=1,max=100"`
		Profile *domain.Profile `json:"profile"`
		Company *domain.Company `json:"company"`
	}

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), myInfoFrom(r), service.ProfileInput{
		Name:    req.Name,
		Profile: req.Profile,
		Company: req.Company,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "profile updated", user)
}
