package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/visitgate-api/internal/application/registration"
	"github.com/visitgate-api/internal/pkg/validate"
)

// RegistrationHandler exposes registration submission and the client-driven
// polling endpoint for in-flight verification transactions.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req registration.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	resp, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *RegistrationHandler) Poll(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Correlate(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
