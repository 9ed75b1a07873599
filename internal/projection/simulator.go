// Package projection simulates the account balance day by day over a bounded
// horizon, composing recurring obligations, card statements, scheduled ledger
// entries and budget provisions into a single timeline.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/finflow/internal/billing"
	"github.com/Dan9191/finflow/internal/budget"
	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/recurring"
)

// MaxHorizonMonths caps the simulated horizon.
const MaxHorizonMonths = 24

// ErrInvalidHorizon is returned for horizons outside [0, MaxHorizonMonths].
var ErrInvalidHorizon = errors.New("invalid projection horizon")

// Input is the in-memory snapshot a simulation runs over.
type Input struct {
	Today           time.Time
	StartingBalance models.Cents
	HorizonMonths   int

	Obligations []models.RecurringObligation
	Cards       []models.CreditCard
	Charges     []models.InstallmentCharge
	Statuses    []models.StatementStatus
	Goals       []models.BudgetGoal
	Ledger      []models.LedgerEntry

	// FullBudgetOverride reserves full goals for the current month as well.
	FullBudgetOverride bool
	// SkipBudgetProvision leaves budget goals out of the simulation.
	SkipBudgetProvision bool
}

// StartingBalance sums the settled ledger entries dated up to today.
func StartingBalance(ledger []models.LedgerEntry, today time.Time) models.Cents {
	today = calendar.Truncate(today)
	var total models.Cents
	for _, e := range ledger {
		if e.Status == models.EntrySettled && !e.Date.After(today) {
			total += e.Signed()
		}
	}
	return total
}

// flow is one dated movement contributing to a day.
type flow struct {
	in   models.Cents
	out  models.Cents
	desc string
}

// Simulate walks a day cursor from in.Today to in.Today + HorizonMonths (inclusive)
// and returns the sparse timeline with its minimum and final balances. It either
// returns a complete projection or an error, never a partial result.
func Simulate(ctx context.Context, in Input) (models.Projection, error) {
	if in.HorizonMonths < 0 || in.HorizonMonths > MaxHorizonMonths {
		return models.Projection{}, fmt.Errorf("%w: %d months (allowed 0..%d)", ErrInvalidHorizon, in.HorizonMonths, MaxHorizonMonths)
	}

	today := calendar.Truncate(in.Today)
	end := calendar.AddMonths(today, in.HorizonMonths)

	obligations := append([]models.RecurringObligation(nil), in.Obligations...)
	sort.Slice(obligations, func(i, j int) bool { return obligations[i].ID < obligations[j].ID })
	posted := recurring.IndexPosted(in.Ledger)

	statements := dueStatements(in, today, end)
	scheduled := scheduledEntries(in.Ledger, today, end)
	estimator := budget.NewEstimator(in.Goals, in.Ledger, today)

	balance := in.StartingBalance
	result := models.Projection{
		StartingBalance: in.StartingBalance,
		MinBalance:      in.StartingBalance,
		MinBalanceDate:  today,
	}
	if balance < 0 {
		first := today
		result.FirstNegativeDate = &first
	}

	for day := today; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Equal(today) || day.Day() == 1 {
			if err := ctx.Err(); err != nil {
				return models.Projection{}, err
			}
		}

		var flows []flow
		for _, ob := range recurring.ResolveForDate(day, obligations) {
			if posted.Has(ob.ID, day) {
				continue
			}
			if ob.Kind == models.KindIncome {
				flows = append(flows, flow{in: ob.Amount, desc: "Income: " + ob.Name})
			} else {
				flows = append(flows, flow{out: ob.Amount, desc: "Expense: " + ob.Name})
			}
		}
		for _, st := range statements[day] {
			flows = append(flows, flow{
				out:  st.Total,
				desc: fmt.Sprintf("Card statement: %s %s", st.CardName, calendar.FormatPeriod(st.Period)),
			})
		}
		for _, e := range scheduled[day] {
			if e.Kind == models.KindIncome {
				flows = append(flows, flow{in: e.Amount, desc: "Scheduled: " + e.Description})
			} else {
				flows = append(flows, flow{out: e.Amount, desc: "Scheduled: " + e.Description})
			}
		}
		if !in.SkipBudgetProvision && calendar.IsLastDay(day) {
			mode := budget.ModeFull
			if !in.FullBudgetOverride && calendar.MonthIndex(day) <= calendar.MonthIndex(today) {
				mode = budget.ModeRemaining
			}
			if p := estimator.ForMonth(day, mode); p.Total > 0 {
				flows = append(flows, flow{
					out:  p.Total,
					desc: fmt.Sprintf("Budget provision (%s): %s", p.Mode, p.Total),
				})
			}
		}

		point := models.ProjectionPoint{Date: day}
		for _, f := range flows {
			point.Inflow += f.in
			point.Outflow += f.out
			point.Descriptions = append(point.Descriptions, f.desc)
		}

		balance += point.Inflow - point.Outflow
		point.Balance = balance

		if balance < result.MinBalance {
			result.MinBalance = balance
			result.MinBalanceDate = day
		}
		if balance < 0 && result.FirstNegativeDate == nil {
			first := day
			result.FirstNegativeDate = &first
		}

		if point.Inflow != 0 || point.Outflow != 0 || day.Equal(today) || day.Equal(end) {
			if point.Descriptions == nil {
				point.Descriptions = []string{}
			}
			result.Timeline = append(result.Timeline, point)
		}
	}

	result.FinalBalance = balance
	result.IsAtRisk = result.MinBalance < 0
	return result, nil
}

// dueStatements indexes the unpaid statements whose due date falls inside [today, end].
func dueStatements(in Input, today, end time.Time) map[time.Time][]models.Statement {
	out := make(map[time.Time][]models.Statement)
	for _, st := range billing.Statements(in.Cards, in.Charges, in.Statuses) {
		if st.Stored != nil && st.Stored.Status.IsPaid() {
			continue
		}
		if st.Total == 0 || st.DueDate.Before(today) || st.DueDate.After(end) {
			continue
		}
		out[st.DueDate] = append(out[st.DueDate], st)
	}
	return out
}

// scheduledEntries indexes pending ledger entries dated inside [today, end], ordered by id.
func scheduledEntries(ledger []models.LedgerEntry, today, end time.Time) map[time.Time][]models.LedgerEntry {
	var pending []models.LedgerEntry
	for _, e := range ledger {
		if e.Status != models.EntryPending {
			continue
		}
		day := calendar.Truncate(e.Date)
		if day.Before(today) || day.After(end) {
			continue
		}
		e.Date = day
		pending = append(pending, e)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	out := make(map[time.Time][]models.LedgerEntry)
	for _, e := range pending {
		out[e.Date] = append(out[e.Date], e)
	}
	return out
}
