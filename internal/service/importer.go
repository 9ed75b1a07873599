package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/integrations/camt"
	"github.com/Dan9191/finflow/internal/models"
)

// Categories assigned to imported entries unless overridden.
const (
	defaultImportExpenseCategory = "Other expenses"
	defaultImportIncomeCategory  = "Transfers"
)

// ImportOptions controls how bank statement entries are classified.
type ImportOptions struct {
	ExpenseCategory string
	IncomeCategory  string
}

// ImportResult reports an import.
type ImportResult struct {
	Account  string               `json:"account"`
	Imported []models.LedgerEntry `json:"imported"`
	Skipped  int                  `json:"skipped"`
}

type importKey struct {
	date        string
	kind        models.Kind
	amount      models.Cents
	description string
}

func keyOf(e models.LedgerEntry) importKey {
	return importKey{e.Date.Format(calendar.DateLayout), e.Kind, e.Amount, e.Description}
}

// ImportStatement records the entries of a CAMT.053 statement in ownerID's ledger.
// Booked entries become settled, pending ones pending. Entries matching an
// existing one on date, kind, amount and description are skipped.
func (s *Service) ImportStatement(ctx context.Context, ownerID int64, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if opts.ExpenseCategory == "" {
		opts.ExpenseCategory = defaultImportExpenseCategory
	}
	if opts.IncomeCategory == "" {
		opts.IncomeCategory = defaultImportIncomeCategory
	}
	if err := s.taxonomy.Validate(models.KindExpense, opts.ExpenseCategory, ""); err != nil {
		return nil, invalid("%v", err)
	}
	if err := s.taxonomy.Validate(models.KindIncome, opts.IncomeCategory, ""); err != nil {
		return nil, invalid("%v", err)
	}

	stmt, err := camt.NewParser(s.log).Parse(r)
	if err != nil {
		return nil, invalid("bank statement: %v", err)
	}

	existing, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[importKey]bool, len(existing))
	for _, e := range existing {
		seen[keyOf(e)] = true
	}

	result := &ImportResult{Account: stmt.Account, Imported: []models.LedgerEntry{}}
	for _, in := range stmt.Entries {
		e := models.LedgerEntry{
			OwnerID:     ownerID,
			Date:        in.Date,
			Kind:        in.Kind,
			Category:    opts.ExpenseCategory,
			Description: in.Description,
			Amount:      models.CentsFromDecimal(in.Amount),
			Account:     stmt.Account,
			Status:      models.EntrySettled,
		}
		if in.Kind == models.KindIncome {
			e.Category = opts.IncomeCategory
		}
		if !in.Booked {
			e.Status = models.EntryPending
		}
		if seen[keyOf(e)] {
			result.Skipped++
			continue
		}
		if err := s.repo.CreateEntry(ctx, &e); err != nil {
			return result, fmt.Errorf("failed to import entry %q: %w", in.Reference, err)
		}
		seen[keyOf(e)] = true
		result.Imported = append(result.Imported, e)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  ownerID,
		"account":  stmt.Account,
		"imported": len(result.Imported),
		"skipped":  result.Skipped,
	}).Info("Bank statement imported")
	return result, nil
}
