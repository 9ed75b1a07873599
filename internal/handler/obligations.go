package handler

import (
	"net/http"
)

func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	obs, err := h.svc.ListObligations(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]obligationResponse, 0, len(obs))
	for _, ob := range obs {
		out = append(out, newObligationResponse(ob))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req obligationRequest
	if !decode(w, r, &req) {
		return
	}
	ob, err := h.svc.CreateObligation(r.Context(), ownerID, req.model())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newObligationResponse(*ob))
}

func (h *Handler) UpdateObligation(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req obligationRequest
	if !decode(w, r, &req) {
		return
	}
	model := req.model()
	model.ID = id
	ob, err := h.svc.UpdateObligation(r.Context(), ownerID, model)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newObligationResponse(*ob))
}

func (h *Handler) DeleteObligation(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteObligation(r.Context(), ownerID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostObligations records pending entries for the month's unposted obligations.
func (h *Handler) PostObligations(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	period, ok := monthQuery(w, r)
	if !ok {
		return
	}
	created, err := h.svc.PostObligations(r.Context(), ownerID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryResponses(created))
}

func (h *Handler) ObligationStatuses(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	period, ok := monthQuery(w, r)
	if !ok {
		return
	}
	statuses, err := h.svc.ObligationStatuses(r.Context(), ownerID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]obligationStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, obligationStatusResponse{
			Obligation: newObligationResponse(st.Obligation),
			Date:       Day{st.Date},
			Status:     st.Status,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
