// Package billing allocates card purchases to statement periods and derives
// statement dates and states from a card's closing and due days.
package billing

import (
	"errors"
	"sort"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

// MaxInstallments bounds the number of installments of one purchase.
const MaxInstallments = 60

// ErrInstallmentCount is returned when a purchase is split into fewer than one installment.
var ErrInstallmentCount = errors.New("installment count must be at least 1")

// Installment is one allocated slice of a purchase.
type Installment struct {
	Index  int
	Period time.Time
	Amount models.Cents
}

// FirstPeriod returns the statement period a purchase made on purchaseDate is billed under.
// A purchase on or after the closing day goes to the next month's statement.
func FirstPeriod(purchaseDate time.Time, closingDay int) time.Time {
	period := calendar.MonthStart(purchaseDate)
	if purchaseDate.Day() >= calendar.ClampDay(purchaseDate.Year(), purchaseDate.Month(), closingDay) {
		return calendar.AddMonths(period, 1)
	}
	return period
}

// Allocate splits total into count installments over consecutive statement periods.
// Each installment is total/count rounded to cents; the rounding difference goes to the
// last one so the batch always sums to total.
func Allocate(purchaseDate time.Time, closingDay int, total models.Cents, count int) ([]Installment, error) {
	if count < 1 {
		return nil, ErrInstallmentCount
	}

	n := models.Cents(count)
	base := roundedShare(total, n)
	if total-base*(n-1) < 0 {
		// tiny totals over many installments: rounding up would drive the last one negative
		base = total / n
	}
	remainder := total - base*n

	period := FirstPeriod(purchaseDate, closingDay)
	out := make([]Installment, count)
	for i := 0; i < count; i++ {
		out[i] = Installment{
			Index:  i + 1,
			Period: calendar.AddMonths(period, i),
			Amount: base,
		}
	}
	out[count-1].Amount += remainder
	return out, nil
}

// roundedShare is total/n rounded half away from zero.
func roundedShare(total, n models.Cents) models.Cents {
	if total < 0 {
		return -roundedShare(-total, n)
	}
	return (2*total + n) / (2 * n)
}

// DueDate returns the payment due date of a statement period.
func DueDate(period time.Time, dueDay int) time.Time {
	return calendar.ClampedDate(period.Year(), period.Month(), clampDay(dueDay))
}

// ClosingDate returns the closing date of a statement period: the due date's month
// when the closing day comes before the due day, otherwise the month before it.
func ClosingDate(period time.Time, closingDay, dueDay int) time.Time {
	month := calendar.MonthStart(period)
	if clampDay(closingDay) >= clampDay(dueDay) {
		month = calendar.AddMonths(month, -1)
	}
	return calendar.ClampedDate(month.Year(), month.Month(), clampDay(closingDay))
}

// State derives a statement's state on today. A stored paid status wins over the dates.
func State(period time.Time, card models.CreditCard, stored *models.StatementStatus, today time.Time) models.StatementState {
	if stored != nil && stored.Status.IsPaid() {
		return stored.Status
	}
	closing := ClosingDate(period, card.ClosingDay, card.DueDay)
	due := DueDate(period, card.DueDay)
	switch {
	case today.Before(closing):
		return models.StatementOpen
	case !today.After(due):
		return models.StatementClosed
	default:
		return models.StatementOverdue
	}
}

type statementKey struct {
	cardID int64
	period time.Time
}

// Statements groups charges into per-card, per-period statements, attaching any stored status.
// Charges of unknown cards are skipped. The result is ordered by due date, then card id.
func Statements(cards []models.CreditCard, charges []models.InstallmentCharge, statuses []models.StatementStatus) []models.Statement {
	byCard := make(map[int64]models.CreditCard, len(cards))
	for _, c := range cards {
		byCard[c.ID] = c
	}
	stored := make(map[statementKey]models.StatementStatus, len(statuses))
	for _, s := range statuses {
		stored[statementKey{s.CardID, calendar.MonthStart(s.StatementPeriod)}] = s
	}

	grouped := make(map[statementKey]*models.Statement)
	for _, ch := range charges {
		card, ok := byCard[ch.CardID]
		if !ok {
			continue
		}
		key := statementKey{ch.CardID, calendar.MonthStart(ch.StatementPeriod)}
		st, ok := grouped[key]
		if !ok {
			st = &models.Statement{
				CardID:      card.ID,
				CardName:    card.Name,
				Period:      key.period,
				ClosingDate: ClosingDate(key.period, card.ClosingDay, card.DueDay),
				DueDate:     DueDate(key.period, card.DueDay),
			}
			if s, ok := stored[key]; ok {
				st.Stored = &s
			}
			grouped[key] = st
		}
		st.Items = append(st.Items, ch)
		st.Total += ch.InstallmentAmount
	}

	out := make([]models.Statement, 0, len(grouped))
	for _, st := range grouped {
		sort.Slice(st.Items, func(i, j int) bool {
			a, b := st.Items[i], st.Items[j]
			if !a.PurchaseDate.Equal(b.PurchaseDate) {
				return a.PurchaseDate.Before(b.PurchaseDate)
			}
			return a.ID < b.ID
		})
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CardID < out[j].CardID
	})
	return out
}

// clampDay tolerates legacy day values outside 1..31.
func clampDay(day int) int {
	switch {
	case day < 1:
		return 1
	case day > 31:
		return 31
	}
	return day
}
