package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/service"
)

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	cards, err := h.svc.ListCards(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, newCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req cardRequest
	if !decode(w, r, &req) {
		return
	}
	card, err := h.svc.CreateCard(r.Context(), ownerID, models.CreditCard{
		Name:       req.Name,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCardResponse(*card))
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCard(r.Context(), ownerID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPurchase splits a purchase on the card in the path into installments.
func (h *Handler) AddPurchase(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req purchaseRequest
	if !decode(w, r, &req) {
		return
	}
	p := req.purchase()
	p.CardID = cardID
	charges, err := h.svc.AddPurchase(r.Context(), ownerID, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newChargeResponses(charges))
}

// UpdatePurchase re-allocates an existing purchase batch.
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if !decode(w, r, &req) {
		return
	}
	charges, err := h.svc.UpdatePurchase(r.Context(), ownerID, mux.Vars(r)["batch"], req.purchase())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChargeResponses(charges))
}

func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePurchase(r.Context(), ownerID, mux.Vars(r)["batch"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statements lists every statement with charges, ordered by due date.
func (h *Handler) Statements(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	views, err := h.svc.Statements(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]statementResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newStatementResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// statementKey reads the card id and period of a statement route.
func statementKey(w http.ResponseWriter, r *http.Request) (int64, time.Time, bool) {
	cardID, ok := pathID(w, r, "id")
	if !ok {
		return 0, time.Time{}, false
	}
	period, ok := parsePeriod(w, mux.Vars(r)["period"])
	return cardID, period, ok
}

func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	cardID, period, ok := statementKey(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Statement(r.Context(), ownerID, cardID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatementResponse(*view))
}

// PayStatement marks a statement paid. An empty body pays today from the ledger.
func (h *Handler) PayStatement(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	cardID, period, ok := statementKey(w, r)
	if !ok {
		return
	}
	var req payRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	view, err := h.svc.PayStatement(r.Context(), ownerID, cardID, period, service.Payment{
		External: req.External,
		Account:  req.Account,
		Date:     req.Date.Time,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatementResponse(*view))
}

// ReopenStatement clears a statement's payment.
func (h *Handler) ReopenStatement(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	cardID, period, ok := statementKey(w, r)
	if !ok {
		return
	}
	view, err := h.svc.ReopenStatement(r.Context(), ownerID, cardID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatementResponse(*view))
}
