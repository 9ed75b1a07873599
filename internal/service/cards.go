package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/finflow/internal/billing"
	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/repository"
)

// Category and subcategory of the ledger entry created when a statement is paid.
const (
	cardPaymentCategory    = "Financial"
	cardPaymentSubcategory = "Card payment"
)

// Purchase is a card purchase to be split into installments.
type Purchase struct {
	CardID       int64
	PurchaseDate time.Time
	Description  string
	Category     string
	Total        models.Cents
	Installments int
}

// Payment settles a statement.
type Payment struct {
	// External marks a statement paid outside the ledger: no expense is recorded.
	External bool
	Account  string
	Date     time.Time // defaults to today
}

// StatementView is a statement with its state as of today.
type StatementView struct {
	models.Statement
	State models.StatementState `json:"state"`
}

// CreateCard registers a credit card
func (s *Service) CreateCard(ctx context.Context, ownerID int64, card models.CreditCard) (*models.CreditCard, error) {
	card.OwnerID = ownerID
	card.Name = strings.TrimSpace(card.Name)
	if card.Name == "" {
		return nil, invalid("card name is required")
	}
	if card.ClosingDay < 1 || card.ClosingDay > 31 {
		return nil, invalid("closing day must be between 1 and 31")
	}
	if card.DueDay < 1 || card.DueDay > 31 {
		return nil, invalid("due day must be between 1 and 31")
	}
	if err := s.repo.CreateCard(ctx, &card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d created for user %d: %s", card.ID, ownerID, card.Name)
	return &card, nil
}

// ListCards returns ownerID's cards
func (s *Service) ListCards(ctx context.Context, ownerID int64) ([]models.CreditCard, error) {
	return s.repo.ListCards(ctx, ownerID)
}

// DeleteCard removes a card with its purchases and statement records
func (s *Service) DeleteCard(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteCard(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Infof("Card %d deleted for user %d", id, ownerID)
	return nil
}

func (s *Service) validatePurchase(p *Purchase) error {
	if p.PurchaseDate.IsZero() {
		return invalid("purchase date is required")
	}
	if p.Total <= 0 {
		return invalid("total must be positive")
	}
	if p.Installments < 1 || p.Installments > billing.MaxInstallments {
		return invalid("installments must be between 1 and %d", billing.MaxInstallments)
	}
	if err := s.taxonomy.Validate(models.KindExpense, p.Category, ""); err != nil {
		return invalid("%v", err)
	}
	p.Description = strings.TrimSpace(p.Description)
	p.PurchaseDate = calendar.Truncate(p.PurchaseDate)
	return nil
}

func (s *Service) allocate(ctx context.Context, ownerID int64, batchID string, p Purchase) ([]models.InstallmentCharge, error) {
	card, err := s.repo.FindCard(ctx, ownerID, p.CardID)
	if err != nil {
		return nil, err
	}
	installments, err := billing.Allocate(p.PurchaseDate, card.ClosingDay, p.Total, p.Installments)
	if err != nil {
		return nil, invalid("%v", err)
	}

	charges := make([]models.InstallmentCharge, len(installments))
	for i, inst := range installments {
		charges[i] = models.InstallmentCharge{
			OwnerID:           ownerID,
			CardID:            card.ID,
			BatchID:           batchID,
			PurchaseDate:      p.PurchaseDate,
			Description:       p.Description,
			Category:          p.Category,
			InstallmentAmount: inst.Amount,
			InstallmentIndex:  inst.Index,
			InstallmentCount:  p.Installments,
			StatementPeriod:   inst.Period,
		}
	}
	return charges, nil
}

// AddPurchase splits a purchase into installments billed on consecutive statements
func (s *Service) AddPurchase(ctx context.Context, ownerID int64, p Purchase) ([]models.InstallmentCharge, error) {
	if err := s.validatePurchase(&p); err != nil {
		return nil, err
	}
	charges, err := s.allocate(ctx, ownerID, uuid.NewString(), p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCharges(ctx, charges); err != nil {
		return nil, err
	}
	s.log.Infof("Purchase %s added for user %d: %s in %d installments", charges[0].BatchID, ownerID, p.Total, p.Installments)
	return charges, nil
}

func (s *Service) batch(ctx context.Context, ownerID int64, batchID string) ([]models.InstallmentCharge, error) {
	charges, err := s.repo.ListCharges(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []models.InstallmentCharge
	for _, ch := range charges {
		if ch.BatchID == batchID {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("purchase %s: %w", batchID, repository.ErrNotFound)
	}
	return out, nil
}

// UpdatePurchase replaces every installment of a purchase with a new allocation,
// keeping its batch id. A zero CardID keeps the purchase on its current card.
func (s *Service) UpdatePurchase(ctx context.Context, ownerID int64, batchID string, p Purchase) ([]models.InstallmentCharge, error) {
	existing, err := s.batch(ctx, ownerID, batchID)
	if err != nil {
		return nil, err
	}
	if p.CardID == 0 {
		p.CardID = existing[0].CardID
	}
	if err := s.validatePurchase(&p); err != nil {
		return nil, err
	}
	charges, err := s.allocate(ctx, ownerID, batchID, p)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceBatch(ctx, ownerID, batchID, charges); err != nil {
		return nil, err
	}
	s.log.Infof("Purchase %s updated for user %d", batchID, ownerID)
	return charges, nil
}

// DeletePurchase removes every installment of a purchase
func (s *Service) DeletePurchase(ctx context.Context, ownerID int64, batchID string) error {
	if err := s.repo.DeleteBatch(ctx, ownerID, batchID); err != nil {
		return err
	}
	s.log.Infof("Purchase %s deleted for user %d", batchID, ownerID)
	return nil
}

// Statements returns all of ownerID's statements with their state as of today.
func (s *Service) Statements(ctx context.Context, ownerID int64) ([]StatementView, error) {
	cards, err := s.repo.ListCards(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	charges, err := s.repo.ListCharges(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.repo.ListStatementStatuses(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byCard := make(map[int64]models.CreditCard, len(cards))
	for _, c := range cards {
		byCard[c.ID] = c
	}
	today := s.today()
	statements := billing.Statements(cards, charges, statuses)
	out := make([]StatementView, len(statements))
	for i, st := range statements {
		out[i] = StatementView{
			Statement: st,
			State:     billing.State(st.Period, byCard[st.CardID], st.Stored, today),
		}
	}
	return out, nil
}

// Statement returns one card's statement for period. A period without charges
// yields an empty statement with its dates.
func (s *Service) Statement(ctx context.Context, ownerID, cardID int64, period time.Time) (*StatementView, error) {
	card, err := s.repo.FindCard(ctx, ownerID, cardID)
	if err != nil {
		return nil, err
	}
	period = calendar.MonthStart(period)

	views, err := s.Statements(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if v.CardID == cardID && v.Period.Equal(period) {
			return &v, nil
		}
	}

	statuses, err := s.repo.ListStatementStatuses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	view := &StatementView{Statement: models.Statement{
		CardID:      card.ID,
		CardName:    card.Name,
		Period:      period,
		ClosingDate: billing.ClosingDate(period, card.ClosingDay, card.DueDay),
		DueDate:     billing.DueDate(period, card.DueDay),
		Items:       []models.InstallmentCharge{},
	}}
	for _, st := range statuses {
		if st.CardID == cardID && st.StatementPeriod.Equal(period) {
			view.Stored = &st
			break
		}
	}
	view.State = billing.State(period, *card, view.Stored, s.today())
	return view, nil
}

// PayStatement marks a statement paid. Unless the payment is external, an
// expense for the statement total is recorded in the ledger.
func (s *Service) PayStatement(ctx context.Context, ownerID, cardID int64, period time.Time, pay Payment) (*StatementView, error) {
	view, err := s.Statement(ctx, ownerID, cardID, period)
	if err != nil {
		return nil, err
	}
	if view.State.IsPaid() {
		return nil, invalid("statement %s of %s is already paid", calendar.FormatPeriod(view.Period), view.CardName)
	}

	paidOn := s.today()
	if !pay.Date.IsZero() {
		paidOn = calendar.Truncate(pay.Date)
	}
	status := models.StatementStatus{
		OwnerID:         ownerID,
		CardID:          cardID,
		StatementPeriod: view.Period,
		Status:          models.StatementPaidExternal,
		PaidAmount:      view.Total,
		PaidDate:        &paidOn,
	}

	if !pay.External {
		status.Status = models.StatementPaid
		if view.Total > 0 {
			entry := models.LedgerEntry{
				OwnerID:     ownerID,
				Date:        paidOn,
				Kind:        models.KindExpense,
				Category:    cardPaymentCategory,
				Subcategory: cardPaymentSubcategory,
				Description: fmt.Sprintf("Card statement: %s %s", view.CardName, calendar.FormatPeriod(view.Period)),
				Amount:      view.Total,
				Account:     strings.TrimSpace(pay.Account),
				Status:      models.EntrySettled,
			}
			if err := s.repo.CreateEntry(ctx, &entry); err != nil {
				return nil, fmt.Errorf("failed to record statement payment: %w", err)
			}
		}
	}

	if err := s.repo.UpsertStatementStatus(ctx, status); err != nil {
		return nil, err
	}
	view.Stored = &status
	view.State = status.Status
	s.log.Infof("Statement %s of card %d marked %s for user %d", calendar.FormatPeriod(view.Period), cardID, status.Status, ownerID)
	return view, nil
}

// ReopenStatement drops a statement's stored payment so its state follows the
// calendar again. A ledger entry recorded by PayStatement is left untouched.
func (s *Service) ReopenStatement(ctx context.Context, ownerID, cardID int64, period time.Time) (*StatementView, error) {
	if _, err := s.repo.FindCard(ctx, ownerID, cardID); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteStatementStatus(ctx, ownerID, cardID, period); err != nil {
		return nil, err
	}
	s.log.Infof("Statement %s of card %d reopened for user %d", calendar.FormatPeriod(period), cardID, ownerID)
	return s.Statement(ctx, ownerID, cardID, period)
}
