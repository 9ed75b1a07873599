// Package budget estimates the outflow to reserve for per-category budget goals.
package budget

import (
	"sort"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

// Mode selects how a month's provision is estimated.
type Mode int

const (
	// ModeRemaining reserves what is left of each goal after month-to-date spend.
	ModeRemaining Mode = iota
	// ModeFull reserves every goal in full.
	ModeFull
)

func (m Mode) String() string {
	if m == ModeFull {
		return "full"
	}
	return "remaining"
}

// Provision is the reserved outflow for one month.
type Provision struct {
	Month      time.Time
	Mode       Mode
	Total      models.Cents
	ByCategory map[string]models.Cents
}

// Categories returns the provisioned categories in name order.
func (p Provision) Categories() []string {
	out := make([]string, 0, len(p.ByCategory))
	for c := range p.ByCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Estimator answers provision queries over a fixed snapshot of goals and ledger entries.
type Estimator struct {
	goals map[int]map[string]models.Cents // month index -> category -> target
	spent map[int]map[string]models.Cents // month index -> category -> expenses up to today
	today time.Time
}

// NewEstimator indexes goals and the month-to-date expenses relative to today.
func NewEstimator(goals []models.BudgetGoal, ledger []models.LedgerEntry, today time.Time) *Estimator {
	e := &Estimator{
		goals: make(map[int]map[string]models.Cents),
		spent: make(map[int]map[string]models.Cents),
		today: calendar.Truncate(today),
	}
	for _, g := range goals {
		if g.Month < 1 || g.Month > 12 {
			continue
		}
		idx := calendar.MonthIndex(calendar.Date(g.Year, time.Month(g.Month), 1))
		if e.goals[idx] == nil {
			e.goals[idx] = make(map[string]models.Cents)
		}
		e.goals[idx][g.Category] += g.TargetAmount
	}
	for _, entry := range ledger {
		if entry.Kind != models.KindExpense || entry.Date.After(e.today) {
			continue
		}
		idx := calendar.MonthIndex(entry.Date)
		if e.spent[idx] == nil {
			e.spent[idx] = make(map[string]models.Cents)
		}
		e.spent[idx][entry.Category] += entry.Amount
	}
	return e
}

// ForMonth computes the provision of the month containing month.
// Absent goals yield an empty provision.
func (e *Estimator) ForMonth(month time.Time, mode Mode) Provision {
	p := Provision{
		Month:      calendar.MonthStart(month),
		Mode:       mode,
		ByCategory: make(map[string]models.Cents),
	}
	idx := calendar.MonthIndex(month)
	for category, target := range e.goals[idx] {
		amount := target
		if mode == ModeRemaining {
			amount = target - e.spent[idx][category]
		}
		if amount <= 0 {
			continue
		}
		p.ByCategory[category] = amount
		p.Total += amount
	}
	return p
}

// Remaining returns max(0, goal - month-to-date expenses) for each category with something left.
func Remaining(goals []models.BudgetGoal, ledger []models.LedgerEntry, year int, month time.Month, today time.Time) map[string]models.Cents {
	return NewEstimator(goals, ledger, today).ForMonth(calendar.Date(year, month, 1), ModeRemaining).ByCategory
}

// Full returns the goal of every category with a positive goal in the month.
func Full(goals []models.BudgetGoal, year int, month time.Month) map[string]models.Cents {
	return NewEstimator(goals, nil, time.Time{}).ForMonth(calendar.Date(year, month, 1), ModeFull).ByCategory
}

// Progress compares each goal of the month with the month's total expenses in its category.
func Progress(goals []models.BudgetGoal, ledger []models.LedgerEntry, year int, month time.Month) []models.GoalProgress {
	spent := make(map[string]models.Cents)
	for _, e := range ledger {
		if e.Kind == models.KindExpense && e.Date.Year() == year && e.Date.Month() == month {
			spent[e.Category] += e.Amount
		}
	}

	var out []models.GoalProgress
	for _, g := range goals {
		if g.Year != year || g.Month != int(month) {
			continue
		}
		p := models.GoalProgress{
			Category: g.Category,
			Target:   g.TargetAmount,
			Spent:    spent[g.Category],
		}
		p.Balance = p.Target - p.Spent
		if p.Target > 0 {
			p.Progress = float64(p.Spent) / float64(p.Target)
		}
		if p.Progress > 1 {
			p.Progress = 1
		}
		if p.Progress < 0 {
			p.Progress = 0
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
