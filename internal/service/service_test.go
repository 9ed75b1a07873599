package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/config"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/repository"
	"github.com/Dan9191/finflow/internal/taxonomy"
)

// today in every service test: 2026-10-16.
var testNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *repository.Memory) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, DefaultHorizonMonths: 6}
	repo := repository.NewMemory()
	s := NewService(repo, log, cfg, taxonomy.Default())
	s.now = func() time.Time { return testNow }
	return s, repo
}

func date(month time.Month, day int) time.Time {
	return calendar.Date(2026, month, day)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.Register(ctx, "ana", "Ana", "ana@example.com", "123")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Register(ctx, "  ", "", "", "secret123")
	assert.ErrorIs(t, err, ErrValidation)

	user, err := s.Register(ctx, "ana", "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	_, err = s.Register(ctx, "ana", "Ana", "", "secret123")
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.Login(ctx, "ana", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "bob", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := s.Login(ctx, "ana", "secret123")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil },
		jwt.WithTimeFunc(func() time.Time { return testNow }))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
}

func TestCreateEntryValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	valid := models.LedgerEntry{Date: date(time.October, 1), Kind: models.KindExpense, Category: "Food", Subcategory: "Groceries", Amount: 1000}

	tests := []struct {
		name   string
		mutate func(e *models.LedgerEntry)
	}{
		{"missing_date", func(e *models.LedgerEntry) { e.Date = time.Time{} }},
		{"bad_kind", func(e *models.LedgerEntry) { e.Kind = "transfer" }},
		{"zero_amount", func(e *models.LedgerEntry) { e.Amount = 0 }},
		{"bad_status", func(e *models.LedgerEntry) { e.Status = "void" }},
		{"unknown_category", func(e *models.LedgerEntry) { e.Category = "Spaceships" }},
		{"category_of_other_kind", func(e *models.LedgerEntry) { e.Category = "Salary"; e.Subcategory = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			_, err := s.CreateEntry(ctx, 1, e)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	missing := int64(99)
	e := valid
	e.ObligationID = &missing
	_, err := s.CreateEntry(ctx, 1, e)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	created, err := s.CreateEntry(ctx, 1, valid)
	require.NoError(t, err)
	assert.Equal(t, models.EntrySettled, created.Status)
	assert.Equal(t, int64(1), created.OwnerID)
}

func TestListEntriesAndBalance(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	for _, e := range []models.LedgerEntry{
		{Date: date(time.October, 1), Kind: models.KindIncome, Category: "Salary", Amount: 500000},
		{Date: date(time.October, 2), Kind: models.KindExpense, Category: "Food", Amount: 20000},
		{Date: date(time.October, 20), Kind: models.KindExpense, Category: "Food", Amount: 30000},
		{Date: date(time.October, 16), Kind: models.KindExpense, Category: "Housing", Amount: 7000, Status: models.EntryPending},
	} {
		_, err := s.CreateEntry(ctx, 1, e)
		require.NoError(t, err)
	}

	balance, err := s.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(480000), balance)

	expenses, err := s.ListEntries(ctx, 1, EntryFilter{Kind: models.KindExpense, To: date(time.October, 16)})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	pending, err := s.ListEntries(ctx, 1, EntryFilter{Status: models.EntryPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, s.DeleteEntry(ctx, 1, pending[0].ID))
	assert.ErrorIs(t, s.DeleteEntry(ctx, 2, expenses[0].ID), repository.ErrNotFound)
}

func TestObligationsPostAndStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.CreateObligation(ctx, 1, models.RecurringObligation{Name: "Rent", Amount: 1, Category: "Housing", DayOfMonth: 32, Kind: models.KindExpense})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateObligation(ctx, 1, models.RecurringObligation{Name: "", Amount: 1, Category: "Housing", DayOfMonth: 3, Kind: models.KindExpense})
	assert.ErrorIs(t, err, ErrValidation)

	mk := func(name, category string, day int, kind models.Kind, active bool) *models.RecurringObligation {
		ob, err := s.CreateObligation(ctx, 1, models.RecurringObligation{
			Name: name, Amount: 10000, Category: category, DayOfMonth: day, Kind: kind, Active: active,
		})
		require.NoError(t, err)
		return ob
	}
	rent := mk("Rent", "Housing", 5, models.KindExpense, true)
	gym := mk("Gym", "Health", 10, models.KindExpense, true)
	internet := mk("Internet", "Housing", 31, models.KindExpense, true)
	mk("Old plan", "Leisure", 1, models.KindExpense, false)

	statuses, err := s.ObligationStatuses(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, "late", statusOf(statuses, rent.ID))

	posted, err := s.PostObligations(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	require.Len(t, posted, 3)
	for _, e := range posted {
		assert.Equal(t, models.EntryPending, e.Status)
		require.NotNil(t, e.ObligationID)
	}
	assert.Equal(t, date(time.October, 31), posted[2].Date)

	again, err := s.PostObligations(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	assert.Empty(t, again, "already posted obligations are skipped")

	statuses, err = s.ObligationStatuses(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	assert.Equal(t, "paid", statusOf(statuses, rent.ID))
	assert.Equal(t, "paid", statusOf(statuses, gym.ID))

	statuses, err = s.ObligationStatuses(ctx, 1, date(time.November, 1))
	require.NoError(t, err)
	assert.Equal(t, "pending", statusOf(statuses, internet.ID))
	assert.Equal(t, date(time.November, 30), statuses[2].Date)

	rent.Amount = 20000
	updated, err := s.UpdateObligation(ctx, 1, *rent)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(20000), updated.Amount)
	require.NoError(t, s.DeleteObligation(ctx, 1, rent.ID))
	assert.ErrorIs(t, s.DeleteObligation(ctx, 1, rent.ID), repository.ErrNotFound)
}

// statusOf finds the status of an obligation in a status list.
func statusOf(statuses []ObligationStatus, id int64) string {
	for _, st := range statuses {
		if st.Obligation.ID == id {
			return string(st.Status)
		}
	}
	return ""
}

func TestPurchasesAndStatements(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestService(t)

	_, err := s.CreateCard(ctx, 1, models.CreditCard{Name: "Visa", ClosingDay: 0, DueDay: 10})
	assert.ErrorIs(t, err, ErrValidation)
	card, err := s.CreateCard(ctx, 1, models.CreditCard{Name: "Visa", ClosingDay: 3, DueDay: 10})
	require.NoError(t, err)

	purchase := Purchase{CardID: card.ID, PurchaseDate: date(time.October, 10), Description: "Laptop", Category: "Technology", Total: 30001, Installments: 3}

	bad := purchase
	bad.Installments = 61
	_, err = s.AddPurchase(ctx, 1, bad)
	assert.ErrorIs(t, err, ErrValidation)
	bad = purchase
	bad.Category = "Salary"
	_, err = s.AddPurchase(ctx, 1, bad)
	assert.ErrorIs(t, err, ErrValidation)
	bad = purchase
	bad.CardID = 999
	_, err = s.AddPurchase(ctx, 1, bad)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	charges, err := s.AddPurchase(ctx, 1, purchase)
	require.NoError(t, err)
	require.Len(t, charges, 3)
	assert.Equal(t, date(time.November, 1), charges[0].StatementPeriod)
	assert.Equal(t, models.Cents(10000), charges[0].InstallmentAmount)
	assert.Equal(t, models.Cents(10001), charges[2].InstallmentAmount)
	batchID := charges[0].BatchID
	assert.NotEmpty(t, batchID)

	nov, err := s.Statement(ctx, 1, card.ID, date(time.November, 15))
	require.NoError(t, err)
	assert.Equal(t, models.Cents(10000), nov.Total)
	assert.Equal(t, models.StatementOpen, nov.State)
	assert.Equal(t, date(time.November, 10), nov.DueDate)
	assert.Equal(t, date(time.November, 3), nov.ClosingDate)

	empty, err := s.Statement(ctx, 1, card.ID, date(time.September, 1))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Equal(t, models.StatementOverdue, empty.State)

	paid, err := s.PayStatement(ctx, 1, card.ID, date(time.November, 1), Payment{Account: "Checking"})
	require.NoError(t, err)
	assert.Equal(t, models.StatementPaid, paid.State)
	_, err = s.PayStatement(ctx, 1, card.ID, date(time.November, 1), Payment{})
	assert.ErrorIs(t, err, ErrValidation)

	ledger, _ := repo.ListEntries(ctx, 1)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.Cents(10000), ledger[0].Amount)
	assert.Equal(t, "Card statement: Visa 2026-11", ledger[0].Description)
	assert.Equal(t, date(time.October, 16), ledger[0].Date)
	assert.Equal(t, "Checking", ledger[0].Account)

	ext, err := s.PayStatement(ctx, 1, card.ID, date(time.December, 1), Payment{External: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatementPaidExternal, ext.State)
	ledger, _ = repo.ListEntries(ctx, 1)
	assert.Len(t, ledger, 1, "external payment leaves the ledger alone")

	reopened, err := s.ReopenStatement(ctx, 1, card.ID, date(time.November, 1))
	require.NoError(t, err)
	assert.Equal(t, models.StatementOpen, reopened.State)
	assert.Nil(t, reopened.Stored)
	_, err = s.ReopenStatement(ctx, 1, card.ID, date(time.November, 1))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	views, err := s.Statements(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, models.StatementPaidExternal, views[1].State)

	updated, err := s.UpdatePurchase(ctx, 1, batchID, Purchase{PurchaseDate: date(time.October, 1), Category: "Technology", Total: 40000, Installments: 2})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, batchID, updated[0].BatchID)
	assert.Equal(t, card.ID, updated[0].CardID)
	assert.Equal(t, date(time.October, 1), updated[0].StatementPeriod)

	all, _ := repo.ListCharges(ctx, 1)
	assert.Len(t, all, 2)

	_, err = s.UpdatePurchase(ctx, 1, "missing", purchase)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, s.DeletePurchase(ctx, 1, batchID))
	require.NoError(t, s.DeleteCard(ctx, 1, card.ID))
}

// failingReplaceStore loses its connection mid-update; the separate
// delete and insert calls must never be used to rewrite a purchase.
type failingReplaceStore struct {
	*repository.Memory
	t *testing.T
}

func (f failingReplaceStore) ReplaceBatch(context.Context, int64, string, []models.InstallmentCharge) error {
	return errors.New("connection lost")
}

func (f failingReplaceStore) DeleteBatch(context.Context, int64, string) error {
	f.t.Error("DeleteBatch called during purchase update")
	return nil
}

func TestUpdatePurchaseKeepsBatchOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	mem := repository.NewMemory()
	store := failingReplaceStore{Memory: mem, t: t}
	s := NewService(store, log, &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, DefaultHorizonMonths: 6}, taxonomy.Default())
	s.now = func() time.Time { return testNow }

	card, err := s.CreateCard(ctx, 1, models.CreditCard{Name: "Visa", ClosingDay: 3, DueDay: 10})
	require.NoError(t, err)
	charges, err := s.AddPurchase(ctx, 1, Purchase{CardID: card.ID, PurchaseDate: date(time.October, 10), Category: "Technology", Total: 30000, Installments: 3})
	require.NoError(t, err)
	batchID := charges[0].BatchID

	_, err = s.UpdatePurchase(ctx, 1, batchID, Purchase{PurchaseDate: date(time.October, 10), Category: "Technology", Total: 50000, Installments: 5})
	require.Error(t, err)

	kept, err := mem.ListCharges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, kept, 3)
	for _, c := range kept {
		assert.Equal(t, batchID, c.BatchID)
		assert.Equal(t, models.Cents(10000), c.InstallmentAmount)
	}
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.SetGoal(ctx, 1, models.BudgetGoal{Category: "Leisure", Month: 13, Year: 2026, TargetAmount: 100})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.SetGoal(ctx, 1, models.BudgetGoal{Category: "Salary", Month: 10, Year: 2026, TargetAmount: 100})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.SetGoal(ctx, 1, models.BudgetGoal{Category: "Leisure", Month: 10, Year: 2026, TargetAmount: 50000})
	require.NoError(t, err)
	_, err = s.SetGoal(ctx, 1, models.BudgetGoal{Category: "Leisure", Month: 11, Year: 2026, TargetAmount: 60000})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, 1, models.LedgerEntry{Date: date(time.October, 3), Kind: models.KindExpense, Category: "Leisure", Amount: 12500})
	require.NoError(t, err)

	october, err := s.ListGoals(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	assert.Len(t, october, 1)
	all, err := s.ListGoals(ctx, 1, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	progress, err := s.GoalProgress(ctx, 1, date(time.October, 1))
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, models.Cents(37500), progress[0].Balance)
	assert.InDelta(t, 0.25, progress[0].Progress, 1e-9)

	require.NoError(t, s.DeleteGoal(ctx, 1, "Leisure", 2026, 11))
	assert.ErrorIs(t, s.DeleteGoal(ctx, 1, "Leisure", 2026, 11), repository.ErrNotFound)
}

func TestProjection(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.CreateEntry(ctx, 1, models.LedgerEntry{Date: date(time.October, 1), Kind: models.KindIncome, Category: "Salary", Amount: 100000})
	require.NoError(t, err)
	_, err = s.CreateObligation(ctx, 1, models.RecurringObligation{
		Name: "Rent", Amount: 150000, Category: "Housing", DayOfMonth: 20, Kind: models.KindExpense, Active: true,
	})
	require.NoError(t, err)

	_, err = s.Projection(ctx, 1, ProjectionRequest{HorizonMonths: 25})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := s.Projection(ctx, 1, ProjectionRequest{HorizonMonths: 1})
	require.NoError(t, err)
	assert.Equal(t, models.Cents(100000), p.StartingBalance)
	require.Len(t, p.Timeline, 3)
	assert.Equal(t, date(time.October, 20), p.Timeline[1].Date)
	assert.Equal(t, models.Cents(-50000), p.MinBalance)
	assert.Equal(t, date(time.October, 20), p.MinBalanceDate)
	assert.True(t, p.IsAtRisk)
	require.NotNil(t, p.FirstNegativeDate)
	assert.Equal(t, date(time.October, 20), *p.FirstNegativeDate)
	assert.Equal(t, date(time.November, 16), p.Timeline[2].Date)

	def, err := s.Projection(ctx, 1, ProjectionRequest{})
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2027, time.April, 16), def.Timeline[len(def.Timeline)-1].Date)
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	pending := func(day int, desc string) {
		_, err := s.CreateEntry(ctx, 1, models.LedgerEntry{
			Date: date(time.October, day), Kind: models.KindExpense, Category: "Health", Description: desc,
			Amount: 5000, Status: models.EntryPending, Account: "Checking",
		})
		require.NoError(t, err)
	}
	pending(16, "Gym")
	pending(17, "Doctor")
	pending(25, "Dentist")

	purchase := func(closing, due int, purchased time.Time) {
		card, err := s.CreateCard(ctx, 1, models.CreditCard{Name: "Card " + strconv.Itoa(due), ClosingDay: closing, DueDay: due})
		require.NoError(t, err)
		_, err = s.AddPurchase(ctx, 1, Purchase{CardID: card.ID, PurchaseDate: purchased, Category: "Food", Total: 10000, Installments: 1})
		require.NoError(t, err)
	}
	purchase(3, 10, date(time.September, 5))  // October statement due Oct 10: overdue
	purchase(10, 18, date(time.September, 20)) // due Oct 18: urgent
	purchase(15, 25, date(time.September, 20)) // due Oct 25: upcoming
	purchase(3, 10, date(time.October, 10))    // due Nov 10: too far

	_, err := s.CreateObligation(ctx, 1, models.RecurringObligation{Name: "Rent", Amount: 90000, Category: "Housing", DayOfMonth: 5, Kind: models.KindExpense, Active: true})
	require.NoError(t, err)
	_, err = s.CreateObligation(ctx, 1, models.RecurringObligation{Name: "Salary", Amount: 90000, Category: "Salary", DayOfMonth: 5, Kind: models.KindIncome, Active: true})
	require.NoError(t, err)

	alerts, err := s.Alerts(ctx, 1)
	require.NoError(t, err)

	var levels []models.AlertLevel
	for _, a := range alerts {
		levels = append(levels, a.Level)
	}
	assert.Equal(t, []models.AlertLevel{
		models.AlertError, models.AlertError,
		models.AlertWarning, models.AlertWarning, models.AlertWarning,
		models.AlertInfo, models.AlertInfo,
	}, levels)

	assert.Equal(t, "Overdue: statement Card 10 2026-10 (100.00) was due on 2026-10-10", alerts[0].Message)
	assert.Equal(t, "Urgent: statement Card 18 2026-10 (100.00) is due in 2 days", alerts[1].Message)
	assert.Equal(t, "Rent (900.00) was due on 2026-10-05 and has not been posted", alerts[2].Message)
	assert.Equal(t, "Today: Gym (50.00) on Checking", alerts[3].Message)
	assert.Contains(t, alerts[4].Message, "Balance is projected to go negative on 2026-10-16")
	assert.Equal(t, "Tomorrow: Doctor (50.00) is due or scheduled", alerts[5].Message)
	assert.Equal(t, "Statement Card 25 2026-10 (100.00) is due on 2026-10-25", alerts[6].Message)
}

const camtSample = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:camt.053.001.02">
  <BkToCstmrStmt>
    <Stmt>
      <Acct><Id><IBAN>DE89370400440532013000</IBAN></Id></Acct>
      <Ntry>
        <Amt Ccy="EUR">2500.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <Sts>BOOK</Sts>
        <BookgDt><Dt>2026-10-01</Dt></BookgDt>
        <AddtlNtryInf>Salary October</AddtlNtryInf>
      </Ntry>
      <Ntry>
        <Amt Ccy="EUR">49.90</Amt>
        <CdtDbtInd>DBIT</CdtDbtInd>
        <Sts>PDNG</Sts>
        <BookgDt><Dt>2026-10-20</Dt></BookgDt>
        <AddtlNtryInf>Internet provider</AddtlNtryInf>
      </Ntry>
    </Stmt>
  </BkToCstmrStmt>
</Document>`

func TestImportStatement(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.ImportStatement(ctx, 1, strings.NewReader(camtSample), ImportOptions{ExpenseCategory: "Spaceships"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.ImportStatement(ctx, 1, strings.NewReader("<Document/>"), ImportOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	res, err := s.ImportStatement(ctx, 1, strings.NewReader(camtSample), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "DE89370400440532013000", res.Account)
	require.Len(t, res.Imported, 2)
	assert.Equal(t, models.Cents(250000), res.Imported[0].Amount)
	assert.Equal(t, "Transfers", res.Imported[0].Category)
	assert.Equal(t, models.EntrySettled, res.Imported[0].Status)
	assert.Equal(t, "Other expenses", res.Imported[1].Category)
	assert.Equal(t, models.EntryPending, res.Imported[1].Status)

	again, err := s.ImportStatement(ctx, 1, strings.NewReader(camtSample), ImportOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Imported)
	assert.Equal(t, 2, again.Skipped)
}
