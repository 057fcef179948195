package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/visitgate-api/internal/application/invite"
	"github.com/visitgate-api/internal/pkg/validate"
)

// InvitationHandler exposes single-use registration invitations.
type InvitationHandler struct {
	svc invite.Service
}

func NewInvitationHandler(svc invite.Service) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type createInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type invitationEnvelope struct {
	Token string `json:"token,omitempty"`
	Email string `json:"email,omitempty"`
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, err := h.svc.Create(r.Context(), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invitationEnvelope{Token: token, Email: req.Email})
}

// Resolve pre-fills the registration form: it reads the bound email without
// consuming the invitation.
func (h *InvitationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	email, err := h.svc.Resolve(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitationEnvelope{Token: token, Email: email})
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.svc.Outstanding(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}
