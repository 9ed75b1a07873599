package service

import (
	"context"
	"strings"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/projection"
)

// EntryFilter narrows ListEntries. Zero fields match everything.
type EntryFilter struct {
	From   time.Time
	To     time.Time
	Kind   models.Kind
	Status models.EntryStatus
}

func (f EntryFilter) match(e models.LedgerEntry) bool {
	switch {
	case !f.From.IsZero() && e.Date.Before(f.From):
		return false
	case !f.To.IsZero() && e.Date.After(f.To):
		return false
	case f.Kind != "" && e.Kind != f.Kind:
		return false
	case f.Status != "" && e.Status != f.Status:
		return false
	}
	return true
}

func (s *Service) validateEntry(e *models.LedgerEntry) error {
	if e.Date.IsZero() {
		return invalid("date is required")
	}
	if !e.Kind.Valid() {
		return invalid("kind must be %q or %q", models.KindIncome, models.KindExpense)
	}
	if e.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if e.Status == "" {
		e.Status = models.EntrySettled
	}
	if e.Status != models.EntrySettled && e.Status != models.EntryPending {
		return invalid("status must be %q or %q", models.EntrySettled, models.EntryPending)
	}
	if err := s.taxonomy.Validate(e.Kind, e.Category, e.Subcategory); err != nil {
		return invalid("%v", err)
	}
	e.Description = strings.TrimSpace(e.Description)
	return nil
}

// CreateEntry records an income or expense for ownerID
func (s *Service) CreateEntry(ctx context.Context, ownerID int64, e models.LedgerEntry) (*models.LedgerEntry, error) {
	e.OwnerID = ownerID
	e.Date = calendar.Truncate(e.Date)
	if err := s.validateEntry(&e); err != nil {
		return nil, err
	}
	if e.ObligationID != nil {
		if _, err := s.findObligation(ctx, ownerID, *e.ObligationID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateEntry(ctx, &e); err != nil {
		return nil, err
	}
	s.log.Infof("Ledger entry %d created for user %d: %s %s", e.ID, ownerID, e.Kind, e.Amount)
	return &e, nil
}

// ListEntries returns ownerID's ledger entries matching filter, ordered by date
func (s *Service) ListEntries(ctx context.Context, ownerID int64, filter EntryFilter) ([]models.LedgerEntry, error) {
	entries, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if filter.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteEntry removes one of ownerID's ledger entries
func (s *Service) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteEntry(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Infof("Ledger entry %d deleted for user %d", id, ownerID)
	return nil
}

// Balance returns ownerID's settled balance as of today.
func (s *Service) Balance(ctx context.Context, ownerID int64) (models.Cents, error) {
	entries, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return projection.StartingBalance(entries, s.today()), nil
}
