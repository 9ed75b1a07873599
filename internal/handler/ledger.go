package handler

import (
	"net/http"

	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/service"
)

// ListEntries returns the caller's ledger, optionally narrowed by
// ?from, ?to, ?kind and ?status.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, ok := parseOptionalDate(w, q.Get("from"))
	if !ok {
		return
	}
	to, ok := parseOptionalDate(w, q.Get("to"))
	if !ok {
		return
	}
	filter := service.EntryFilter{
		From:   from,
		To:     to,
		Kind:   models.Kind(q.Get("kind")),
		Status: models.EntryStatus(q.Get("status")),
	}

	entries, err := h.svc.ListEntries(r.Context(), ownerID, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryResponses(entries))
}

// CreateEntry records a ledger entry
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req entryRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.svc.CreateEntry(r.Context(), ownerID, req.model())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEntryResponse(*entry))
}

// DeleteEntry removes a ledger entry
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), ownerID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportStatement imports a CAMT.053 document sent as the request body.
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := service.ImportOptions{
		ExpenseCategory: q.Get("expenseCategory"),
		IncomeCategory:  q.Get("incomeCategory"),
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := h.svc.ImportStatement(r.Context(), ownerID, body, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Account:  res.Account,
		Imported: newEntryResponses(res.Imported),
		Skipped:  res.Skipped,
	})
}

// Balance reports the settled balance as of today.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	balance, err := h.svc.Balance(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance.Decimal()})
}
