package handler

import (
	"net/http"

	"github.com/Dan9191/finflow/internal/service"
)

// Projection simulates the caller's balance. An empty body uses the default horizon.
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req projectionRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Projection(r.Context(), ownerID, service.ProjectionRequest{
		HorizonMonths:                  req.HorizonMonths,
		UseFullBudgetProvisionOverride: req.UseFullBudgetProvisionOverride,
		SkipBudgetProvision:            req.SkipBudgetProvision,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectionResponse(p))
}

// Alerts lists due-date reminders, most urgent first.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	alerts, err := h.svc.Alerts(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{Level: a.Level, Date: Day{a.Date}, Message: a.Message})
	}
	writeJSON(w, http.StatusOK, out)
}
