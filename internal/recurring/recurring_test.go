package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

func TestOccurrenceDate(t *testing.T) {
	ob := models.RecurringObligation{ID: 1, DayOfMonth: 31}

	assert.Equal(t, calendar.Date(2026, time.February, 28), OccurrenceDate(ob, 2026, time.February))
	assert.Equal(t, calendar.Date(2028, time.February, 29), OccurrenceDate(ob, 2028, time.February))
	assert.Equal(t, calendar.Date(2026, time.April, 30), OccurrenceDate(ob, 2026, time.April))
	assert.Equal(t, calendar.Date(2026, time.May, 31), OccurrenceDate(ob, 2026, time.May))
}

func TestOccurrenceDateAlwaysInMonth(t *testing.T) {
	for year := 2023; year <= 2029; year++ {
		for month := time.January; month <= time.December; month++ {
			for day := -2; day <= 40; day++ {
				got := OccurrenceDate(models.RecurringObligation{DayOfMonth: day}, year, month)
				assert.Equal(t, month, got.Month())
				assert.GreaterOrEqual(t, got.Day(), 1)
				assert.LessOrEqual(t, got.Day(), calendar.DaysIn(year, month))
			}
		}
	}
}

func TestResolveForDate(t *testing.T) {
	obs := []models.RecurringObligation{
		{ID: 3, Name: "Gym", DayOfMonth: 5, Active: true},
		{ID: 1, Name: "Rent", DayOfMonth: 5, Active: true},
		{ID: 2, Name: "Old", DayOfMonth: 5, Active: false},
		{ID: 4, Name: "Salary", DayOfMonth: 30, Active: true},
	}

	got := ResolveForDate(calendar.Date(2026, time.March, 5), obs)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "Rent", got[0].Name)
		assert.Equal(t, "Gym", got[1].Name)
	}

	got = ResolveForDate(calendar.Date(2026, time.February, 28), obs)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Salary", got[0].Name)
	}

	assert.Empty(t, ResolveForDate(calendar.Date(2026, time.March, 6), obs))
	assert.Empty(t, ResolveForDate(calendar.Date(2026, time.March, 5), nil))
}

func TestPostedUsesObligationID(t *testing.T) {
	rentID := int64(1)
	ob := models.RecurringObligation{ID: 1, Name: "Rent", DayOfMonth: 5, Active: true}
	other := models.RecurringObligation{ID: 2, Name: "Rent garage", DayOfMonth: 5, Active: true}

	ledger := []models.LedgerEntry{
		{Date: calendar.Date(2026, time.March, 5), Description: "Rent garage (03/2026)", Kind: models.KindExpense},
		{Date: calendar.Date(2026, time.March, 5), Description: "anything", ObligationID: &rentID, Kind: models.KindExpense},
	}

	assert.True(t, Posted(ob, 2026, time.March, ledger))
	assert.False(t, Posted(ob, 2026, time.April, ledger))
	assert.False(t, Posted(other, 2026, time.March, ledger), "name similarity must not count as posted")
}

func TestMonthStatus(t *testing.T) {
	id := int64(7)
	ob := models.RecurringObligation{ID: 7, DayOfMonth: 10, Active: true}

	assert.Equal(t, StatusPending, MonthStatus(ob, calendar.Date(2026, time.March, 10), nil))
	assert.Equal(t, StatusLate, MonthStatus(ob, calendar.Date(2026, time.March, 11), nil))

	ledger := []models.LedgerEntry{{Date: calendar.Date(2026, time.March, 2), ObligationID: &id}}
	assert.Equal(t, StatusPaid, MonthStatus(ob, calendar.Date(2026, time.March, 11), ledger))
}

func TestStatusIn(t *testing.T) {
	ob := models.RecurringObligation{ID: 7, DayOfMonth: 31, Active: true}
	today := calendar.Date(2026, time.March, 15)

	assert.Equal(t, StatusLate, StatusIn(ob, 2026, time.February, today, nil))
	assert.Equal(t, StatusPending, StatusIn(ob, 2026, time.March, today, nil))
	assert.Equal(t, StatusPending, StatusIn(ob, 2026, time.April, today, nil))
	assert.Equal(t, StatusPending, StatusIn(ob, 2026, time.February, calendar.Date(2026, time.February, 28), nil))
}
