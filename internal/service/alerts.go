package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/finflow/internal/billing"
	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/projection"
	"github.com/Dan9191/finflow/internal/recurring"
)

// Days before a statement's due date at which reminders start.
const (
	urgentDueDays   = 3
	upcomingDueDays = 10
)

var alertRank = map[models.AlertLevel]int{
	models.AlertError:   0,
	models.AlertWarning: 1,
	models.AlertInfo:    2,
}

// Alerts lists ownerID's reminders as of today, most urgent first:
// scheduled entries due today or tomorrow, unpaid statements overdue or close
// to their due date, expense obligations past their day without a posting, and
// a projected negative balance over the default horizon.
func (s *Service) Alerts(ctx context.Context, ownerID int64) ([]models.Alert, error) {
	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)

	in, err := s.snapshot(ctx, ownerID, today)
	if err != nil {
		return nil, err
	}

	var alerts []models.Alert
	add := func(level models.AlertLevel, date time.Time, format string, args ...any) {
		alerts = append(alerts, models.Alert{Level: level, Date: date, Message: fmt.Sprintf(format, args...)})
	}

	for _, e := range in.Ledger {
		if e.Status != models.EntryPending {
			continue
		}
		switch {
		case e.Date.Equal(today):
			add(models.AlertWarning, e.Date, "Today: %s (%s)%s", e.Description, e.Amount, onAccount(e.Account))
		case e.Date.Equal(tomorrow):
			add(models.AlertInfo, e.Date, "Tomorrow: %s (%s) is due or scheduled", e.Description, e.Amount)
		}
	}

	for _, st := range billing.Statements(in.Cards, in.Charges, in.Statuses) {
		if st.Total == 0 || (st.Stored != nil && st.Stored.Status.IsPaid()) {
			continue
		}
		name := fmt.Sprintf("%s %s", st.CardName, calendar.FormatPeriod(st.Period))
		days := int(st.DueDate.Sub(today).Hours() / 24)
		switch {
		case days < 0:
			add(models.AlertError, st.DueDate, "Overdue: statement %s (%s) was due on %s", name, st.Total, st.DueDate.Format(calendar.DateLayout))
		case days <= urgentDueDays:
			add(models.AlertError, st.DueDate, "Urgent: statement %s (%s) is due in %d days", name, st.Total, days)
		case days <= upcomingDueDays:
			add(models.AlertInfo, st.DueDate, "Statement %s (%s) is due on %s", name, st.Total, st.DueDate.Format(calendar.DateLayout))
		}
	}

	for _, ob := range in.Obligations {
		if !ob.Active || ob.Kind != models.KindExpense {
			continue
		}
		if recurring.MonthStatus(ob, today, in.Ledger) == recurring.StatusLate {
			date := recurring.OccurrenceDate(ob, today.Year(), today.Month())
			add(models.AlertWarning, date, "%s (%s) was due on %s and has not been posted", ob.Name, ob.Amount, date.Format(calendar.DateLayout))
		}
	}

	in.HorizonMonths = s.config.DefaultHorizonMonths
	p, err := projection.Simulate(ctx, in)
	if err != nil {
		return nil, err
	}
	if p.IsAtRisk && p.FirstNegativeDate != nil {
		add(models.AlertWarning, *p.FirstNegativeDate,
			"Balance is projected to go negative on %s (minimum %s on %s)",
			p.FirstNegativeDate.Format(calendar.DateLayout), p.MinBalance, p.MinBalanceDate.Format(calendar.DateLayout))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if alertRank[a.Level] != alertRank[b.Level] {
			return alertRank[a.Level] < alertRank[b.Level]
		}
		return a.Date.Before(b.Date)
	})
	return alerts, nil
}

func onAccount(account string) string {
	if account == "" {
		return ""
	}
	return " on " + account
}
