package billing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

func d(y int, m time.Month, day int) time.Time { return calendar.Date(y, m, day) }

func TestAllocate(t *testing.T) {
	t.Run("purchase_on_closing_day_goes_to_next_period", func(t *testing.T) {
		out, err := Allocate(d(2026, time.March, 10), 10, 30000, 3)
		require.NoError(t, err)
		require.Len(t, out, 3)

		assert.Equal(t, d(2026, time.April, 1), out[0].Period)
		assert.Equal(t, d(2026, time.May, 1), out[1].Period)
		assert.Equal(t, d(2026, time.June, 1), out[2].Period)
		for i, inst := range out {
			assert.Equal(t, i+1, inst.Index)
			assert.Equal(t, models.Cents(10000), inst.Amount)
		}

		var due []time.Time
		for _, inst := range out {
			due = append(due, DueDate(inst.Period, 20))
		}
		assert.Equal(t, []time.Time{d(2026, time.April, 20), d(2026, time.May, 20), d(2026, time.June, 20)}, due)
	})

	t.Run("purchase_day_before_closing_stays_in_current_period", func(t *testing.T) {
		out, err := Allocate(d(2026, time.March, 9), 10, 30000, 1)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, d(2026, time.March, 1), out[0].Period)
		assert.Equal(t, d(2026, time.March, 20), DueDate(out[0].Period, 20))
	})

	t.Run("remainder_goes_to_last_installment", func(t *testing.T) {
		out, err := Allocate(d(2026, time.January, 5), 10, 10000, 3)
		require.NoError(t, err)
		assert.Equal(t, models.Cents(3333), out[0].Amount)
		assert.Equal(t, models.Cents(3333), out[1].Amount)
		assert.Equal(t, models.Cents(3334), out[2].Amount)
	})

	t.Run("rounds_half_up_and_last_absorbs_difference", func(t *testing.T) {
		out, err := Allocate(d(2026, time.March, 1), 10, 20000, 3)
		require.NoError(t, err)
		assert.Equal(t, models.Cents(6667), out[0].Amount)
		assert.Equal(t, models.Cents(6667), out[1].Amount)
		assert.Equal(t, models.Cents(6666), out[2].Amount)
	})

	t.Run("tiny_total_never_goes_negative", func(t *testing.T) {
		out, err := Allocate(d(2026, time.March, 1), 10, 40, 60)
		require.NoError(t, err)
		var sum models.Cents
		for _, inst := range out {
			assert.GreaterOrEqual(t, int64(inst.Amount), int64(0))
			sum += inst.Amount
		}
		assert.Equal(t, models.Cents(40), sum)
		assert.Equal(t, models.Cents(40), out[59].Amount)
	})

	t.Run("year_boundary", func(t *testing.T) {
		out, err := Allocate(d(2026, time.December, 15), 10, 20000, 2)
		require.NoError(t, err)
		assert.Equal(t, d(2027, time.January, 1), out[0].Period)
		assert.Equal(t, d(2027, time.February, 1), out[1].Period)
	})

	t.Run("closing_day_beyond_short_month", func(t *testing.T) {
		out, err := Allocate(d(2026, time.February, 28), 31, 1000, 1)
		require.NoError(t, err)
		assert.Equal(t, d(2026, time.March, 1), out[0].Period)
	})

	t.Run("invalid_count", func(t *testing.T) {
		out, err := Allocate(d(2026, time.March, 9), 10, 30000, 0)
		assert.ErrorIs(t, err, ErrInstallmentCount)
		assert.Empty(t, out)
	})
}

func TestAllocateSumIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for count := 1; count <= MaxInstallments; count++ {
		for i := 0; i < 50; i++ {
			total := models.Cents(rng.Int63n(10_000_000) + 1)
			out, err := Allocate(d(2026, time.May, 1+rng.Intn(28)), 1+rng.Intn(31), total, count)
			require.NoError(t, err)
			require.Len(t, out, count)

			var sum models.Cents
			for _, inst := range out {
				assert.GreaterOrEqual(t, int64(inst.Amount), int64(0))
				assert.Equal(t, 1, inst.Period.Day())
				sum += inst.Amount
			}
			assert.Equal(t, total, sum, "count=%d total=%d", count, total)
		}
	}
}

func TestClosingDate(t *testing.T) {
	assert.Equal(t, d(2026, time.April, 10), ClosingDate(d(2026, time.April, 1), 10, 20))
	assert.Equal(t, d(2026, time.March, 25), ClosingDate(d(2026, time.April, 1), 25, 5))
	assert.Equal(t, d(2026, time.February, 28), ClosingDate(d(2026, time.March, 1), 31, 10))
	assert.Equal(t, d(2025, time.December, 28), ClosingDate(d(2026, time.January, 1), 28, 28))
}

func TestDueDateClamps(t *testing.T) {
	assert.Equal(t, d(2026, time.February, 28), DueDate(d(2026, time.February, 1), 31))
	assert.Equal(t, d(2028, time.February, 29), DueDate(d(2028, time.February, 1), 31))
	assert.Equal(t, d(2026, time.April, 1), DueDate(d(2026, time.April, 1), 0))
}

func TestState(t *testing.T) {
	card := models.CreditCard{ID: 1, ClosingDay: 10, DueDay: 20}
	period := d(2026, time.April, 1)

	tests := []struct {
		name   string
		today  time.Time
		stored *models.StatementStatus
		want   models.StatementState
	}{
		{"before_closing", d(2026, time.April, 9), nil, models.StatementOpen},
		{"on_closing", d(2026, time.April, 10), nil, models.StatementClosed},
		{"on_due", d(2026, time.April, 20), nil, models.StatementClosed},
		{"after_due", d(2026, time.April, 21), nil, models.StatementOverdue},
		{"paid", d(2026, time.April, 21), &models.StatementStatus{Status: models.StatementPaid}, models.StatementPaid},
		{"paid_external", d(2026, time.April, 1), &models.StatementStatus{Status: models.StatementPaidExternal}, models.StatementPaidExternal},
		{"stored_open_uses_dates", d(2026, time.April, 21), &models.StatementStatus{Status: models.StatementOpen}, models.StatementOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, State(period, card, tt.stored, tt.today))
		})
	}
}

func TestStatements(t *testing.T) {
	cards := []models.CreditCard{
		{ID: 1, Name: "Visa", ClosingDay: 10, DueDay: 20},
		{ID: 2, Name: "Master", ClosingDay: 1, DueDay: 5},
	}
	charges := []models.InstallmentCharge{
		{ID: 3, CardID: 1, StatementPeriod: d(2026, time.April, 1), InstallmentAmount: 500, PurchaseDate: d(2026, time.March, 12)},
		{ID: 1, CardID: 1, StatementPeriod: d(2026, time.April, 1), InstallmentAmount: 1000, PurchaseDate: d(2026, time.March, 11)},
		{ID: 2, CardID: 2, StatementPeriod: d(2026, time.April, 1), InstallmentAmount: 700, PurchaseDate: d(2026, time.March, 2)},
		{ID: 4, CardID: 99, StatementPeriod: d(2026, time.April, 1), InstallmentAmount: 1},
	}
	statuses := []models.StatementStatus{
		{CardID: 1, StatementPeriod: d(2026, time.April, 1), Status: models.StatementPaid, PaidAmount: 1500},
	}

	out := Statements(cards, charges, statuses)
	require.Len(t, out, 2)

	assert.Equal(t, int64(2), out[0].CardID)
	assert.Equal(t, d(2026, time.April, 5), out[0].DueDate)
	assert.Equal(t, models.Cents(700), out[0].Total)
	assert.Nil(t, out[0].Stored)

	assert.Equal(t, int64(1), out[1].CardID)
	assert.Equal(t, models.Cents(1500), out[1].Total)
	assert.Equal(t, d(2026, time.April, 10), out[1].ClosingDate)
	require.NotNil(t, out[1].Stored)
	assert.Equal(t, models.StatementPaid, out[1].Stored.Status)
	assert.Equal(t, int64(1), out[1].Items[0].ID)
}
