package handler

import (
	"net/http"

	"github.com/visitgate-api/internal/application/dailytask"
)

// DailyTaskHandler lets an administrator trigger the daily task manually.
// The trigger races the scheduler safely: both paths contend on the same
// distributed lock.
type DailyTaskHandler struct {
	svc dailytask.Service
}

func NewDailyTaskHandler(svc dailytask.Service) *DailyTaskHandler {
	return &DailyTaskHandler{svc: svc}
}

func (h *DailyTaskHandler) Run(w http.ResponseWriter, r *http.Request) {
	ran, err := h.svc.Run(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if !ran {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "skipped: another instance holds the lock"})
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "daily task completed"})
}
