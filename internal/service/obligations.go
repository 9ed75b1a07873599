package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/recurring"
	"github.com/Dan9191/finflow/internal/repository"
)

// ObligationStatus is an obligation's occurrence in one month.
type ObligationStatus struct {
	Obligation models.RecurringObligation `json:"obligation"`
	Date       time.Time                  `json:"date"`
	Status     recurring.Status           `json:"status"`
}

func (s *Service) validateObligation(ob *models.RecurringObligation) error {
	ob.Name = strings.TrimSpace(ob.Name)
	if ob.Name == "" {
		return invalid("name is required")
	}
	if ob.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if ob.DayOfMonth < 1 || ob.DayOfMonth > 31 {
		return invalid("day of month must be between 1 and 31")
	}
	if !ob.Kind.Valid() {
		return invalid("kind must be %q or %q", models.KindIncome, models.KindExpense)
	}
	if err := s.taxonomy.Validate(ob.Kind, ob.Category, ""); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func (s *Service) findObligation(ctx context.Context, ownerID, id int64) (*models.RecurringObligation, error) {
	obs, err := s.repo.ListObligations(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, ob := range obs {
		if ob.ID == id {
			return &ob, nil
		}
	}
	return nil, fmt.Errorf("obligation %d: %w", id, repository.ErrNotFound)
}

// CreateObligation registers a monthly income or expense
func (s *Service) CreateObligation(ctx context.Context, ownerID int64, ob models.RecurringObligation) (*models.RecurringObligation, error) {
	ob.OwnerID = ownerID
	if err := s.validateObligation(&ob); err != nil {
		return nil, err
	}
	if err := s.repo.CreateObligation(ctx, &ob); err != nil {
		return nil, err
	}
	s.log.Infof("Obligation %d created for user %d: %s", ob.ID, ownerID, ob.Name)
	return &ob, nil
}

// UpdateObligation overwrites an existing obligation
func (s *Service) UpdateObligation(ctx context.Context, ownerID int64, ob models.RecurringObligation) (*models.RecurringObligation, error) {
	ob.OwnerID = ownerID
	if err := s.validateObligation(&ob); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateObligation(ctx, &ob); err != nil {
		return nil, err
	}
	s.log.Infof("Obligation %d updated for user %d", ob.ID, ownerID)
	return &ob, nil
}

// DeleteObligation removes an obligation; entries it posted stay in the ledger
func (s *Service) DeleteObligation(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteObligation(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Infof("Obligation %d deleted for user %d", id, ownerID)
	return nil
}

// ListObligations returns ownerID's obligations ordered by id
func (s *Service) ListObligations(ctx context.Context, ownerID int64) ([]models.RecurringObligation, error) {
	return s.repo.ListObligations(ctx, ownerID)
}

// PostObligations records a pending ledger entry for every active obligation
// not yet posted in period's month. Already posted obligations are skipped.
func (s *Service) PostObligations(ctx context.Context, ownerID int64, period time.Time) ([]models.LedgerEntry, error) {
	obs, err := s.repo.ListObligations(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	posted := recurring.IndexPosted(ledger)
	var created []models.LedgerEntry
	for _, ob := range obs {
		if !ob.Active || posted.Has(ob.ID, period) {
			continue
		}
		id := ob.ID
		e := models.LedgerEntry{
			OwnerID:      ownerID,
			Date:         recurring.OccurrenceDate(ob, period.Year(), period.Month()),
			Kind:         ob.Kind,
			Category:     ob.Category,
			Description:  ob.Name,
			Amount:       ob.Amount,
			Status:       models.EntryPending,
			ObligationID: &id,
		}
		if err := s.repo.CreateEntry(ctx, &e); err != nil {
			return created, fmt.Errorf("failed to post obligation %d: %w", ob.ID, err)
		}
		created = append(created, e)
	}

	s.log.Infof("Posted %d obligations for user %d in %s", len(created), ownerID, calendar.FormatPeriod(period))
	return created, nil
}

// ObligationStatuses classifies every active obligation's occurrence in period's month.
func (s *Service) ObligationStatuses(ctx context.Context, ownerID int64, period time.Time) ([]ObligationStatus, error) {
	obs, err := s.repo.ListObligations(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	out := make([]ObligationStatus, 0, len(obs))
	for _, ob := range obs {
		if !ob.Active {
			continue
		}
		out = append(out, ObligationStatus{
			Obligation: ob,
			Date:       recurring.OccurrenceDate(ob, period.Year(), period.Month()),
			Status:     recurring.StatusIn(ob, period.Year(), period.Month(), today, ledger),
		})
	}
	return out, nil
}
