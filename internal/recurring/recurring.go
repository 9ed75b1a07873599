// Package recurring resolves monthly obligations to calendar dates and tracks
// whether an occurrence has already been posted to the ledger.
package recurring

import (
	"sort"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

// Status of an obligation's occurrence in a given month.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusLate    Status = "late"
)

// OccurrenceDate returns the date ob falls on in the given month. Days past the
// end of the month are clamped to its last day.
func OccurrenceDate(ob models.RecurringObligation, year int, month time.Month) time.Time {
	return calendar.ClampedDate(year, month, ob.DayOfMonth)
}

// ResolveForDate returns the active obligations occurring on date, ordered by id.
func ResolveForDate(date time.Time, obligations []models.RecurringObligation) []models.RecurringObligation {
	var out []models.RecurringObligation
	for _, ob := range obligations {
		if !ob.Active {
			continue
		}
		if OccurrenceDate(ob, date.Year(), date.Month()).Equal(calendar.Truncate(date)) {
			out = append(out, ob)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PostedIndex records which (obligation, month) occurrences have a ledger entry.
type PostedIndex map[postedKey]struct{}

type postedKey struct {
	obligationID int64
	month        int
}

// IndexPosted builds a PostedIndex from ledger entries carrying an obligation id.
func IndexPosted(ledger []models.LedgerEntry) PostedIndex {
	idx := make(PostedIndex)
	for _, e := range ledger {
		if e.ObligationID == nil {
			continue
		}
		idx[postedKey{*e.ObligationID, calendar.MonthIndex(e.Date)}] = struct{}{}
	}
	return idx
}

// Has reports whether ob was posted in the month containing date.
func (p PostedIndex) Has(obligationID int64, date time.Time) bool {
	_, ok := p[postedKey{obligationID, calendar.MonthIndex(date)}]
	return ok
}

// Posted reports whether a ledger entry generated by ob exists in the given month.
func Posted(ob models.RecurringObligation, year int, month time.Month, ledger []models.LedgerEntry) bool {
	return IndexPosted(ledger).Has(ob.ID, calendar.Date(year, month, 1))
}

// MonthStatus classifies ob's occurrence in today's month.
func MonthStatus(ob models.RecurringObligation, today time.Time, ledger []models.LedgerEntry) Status {
	return StatusIn(ob, today.Year(), today.Month(), today, ledger)
}

// StatusIn classifies ob's occurrence in the given month as seen on today:
// paid once posted, late when the occurrence date has passed, pending otherwise.
func StatusIn(ob models.RecurringObligation, year int, month time.Month, today time.Time, ledger []models.LedgerEntry) Status {
	if Posted(ob, year, month, ledger) {
		return StatusPaid
	}
	if calendar.Truncate(today).After(OccurrenceDate(ob, year, month)) {
		return StatusLate
	}
	return StatusPending
}
