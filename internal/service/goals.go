package service

import (
	"context"
	"time"

	"github.com/Dan9191/finflow/internal/budget"
	"github.com/Dan9191/finflow/internal/models"
)

// SetGoal creates or replaces a category's target for a month
func (s *Service) SetGoal(ctx context.Context, ownerID int64, g models.BudgetGoal) (*models.BudgetGoal, error) {
	g.OwnerID = ownerID
	if g.Month < 1 || g.Month > 12 {
		return nil, invalid("month must be between 1 and 12")
	}
	if g.Year < 1 {
		return nil, invalid("year is required")
	}
	if g.TargetAmount < 0 {
		return nil, invalid("target must not be negative")
	}
	if err := s.taxonomy.Validate(models.KindExpense, g.Category, ""); err != nil {
		return nil, invalid("%v", err)
	}
	if err := s.repo.UpsertGoal(ctx, g); err != nil {
		return nil, err
	}
	s.log.Infof("Goal %s %04d-%02d set for user %d: %s", g.Category, g.Year, g.Month, ownerID, g.TargetAmount)
	return &g, nil
}

// DeleteGoal removes a category's target for a month
func (s *Service) DeleteGoal(ctx context.Context, ownerID int64, category string, year, month int) error {
	return s.repo.DeleteGoal(ctx, ownerID, category, year, month)
}

// ListGoals returns ownerID's goals; a non-zero period keeps only that month's goals.
func (s *Service) ListGoals(ctx context.Context, ownerID int64, period time.Time) ([]models.BudgetGoal, error) {
	goals, err := s.repo.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if period.IsZero() {
		return goals, nil
	}
	out := make([]models.BudgetGoal, 0, len(goals))
	for _, g := range goals {
		if g.Year == period.Year() && g.Month == int(period.Month()) {
			out = append(out, g)
		}
	}
	return out, nil
}

// GoalProgress compares period's goals with the expenses recorded in that month.
func (s *Service) GoalProgress(ctx context.Context, ownerID int64, period time.Time) ([]models.GoalProgress, error) {
	goals, err := s.repo.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.repo.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return budget.Progress(goals, ledger, period.Year(), period.Month()), nil
}
