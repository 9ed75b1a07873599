package handler

import (
	"net/http"
	"time"

	"github.com/Dan9191/finflow/internal/models"
)

// ListGoals returns budget goals; ?month=YYYY-MM keeps a single month.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var period time.Time
	if raw := r.URL.Query().Get("month"); raw != "" {
		if period, ok = parsePeriod(w, raw); !ok {
			return
		}
	}
	goals, err := h.svc.ListGoals(r.Context(), ownerID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	goal, err := h.svc.SetGoal(r.Context(), ownerID, models.BudgetGoal{
		Category:     req.Category,
		Year:         req.Year,
		Month:        req.Month,
		TargetAmount: amount(req.TargetAmount),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(*goal))
}

// DeleteGoal removes the goal named by ?category and ?month=YYYY-MM.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	period, ok := parsePeriod(w, q.Get("month"))
	if !ok {
		return
	}
	if err := h.svc.DeleteGoal(r.Context(), ownerID, category, period.Year(), int(period.Month())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GoalProgress compares the month's goals with its expenses.
func (h *Handler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	period, ok := monthQuery(w, r)
	if !ok {
		return
	}
	progress, err := h.svc.GoalProgress(r.Context(), ownerID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]progressResponse, 0, len(progress))
	for _, p := range progress {
		out = append(out, progressResponse{
			Category: p.Category,
			Target:   p.Target.Decimal(),
			Spent:    p.Spent.Decimal(),
			Balance:  p.Balance.Decimal(),
			Progress: p.Progress,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
