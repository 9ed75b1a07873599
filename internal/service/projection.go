package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/projection"
)

// ProjectionRequest selects the horizon and provisioning of a projection.
type ProjectionRequest struct {
	HorizonMonths                  int
	UseFullBudgetProvisionOverride bool
	SkipBudgetProvision            bool
}

// snapshot loads everything a simulation reads for ownerID.
func (s *Service) snapshot(ctx context.Context, ownerID int64, today time.Time) (projection.Input, error) {
	in := projection.Input{Today: today}
	var err error
	if in.Ledger, err = s.repo.ListEntries(ctx, ownerID); err != nil {
		return in, err
	}
	if in.Obligations, err = s.repo.ListObligations(ctx, ownerID); err != nil {
		return in, err
	}
	if in.Cards, err = s.repo.ListCards(ctx, ownerID); err != nil {
		return in, err
	}
	if in.Charges, err = s.repo.ListCharges(ctx, ownerID); err != nil {
		return in, err
	}
	if in.Statuses, err = s.repo.ListStatementStatuses(ctx, ownerID); err != nil {
		return in, err
	}
	if in.Goals, err = s.repo.ListGoals(ctx, ownerID); err != nil {
		return in, err
	}
	in.StartingBalance = projection.StartingBalance(in.Ledger, today)
	return in, nil
}

// Projection simulates ownerID's balance from today over the requested horizon.
// A zero horizon uses the configured default.
func (s *Service) Projection(ctx context.Context, ownerID int64, req ProjectionRequest) (*models.Projection, error) {
	if req.HorizonMonths == 0 {
		req.HorizonMonths = s.config.DefaultHorizonMonths
	}
	if req.HorizonMonths < 1 || req.HorizonMonths > projection.MaxHorizonMonths {
		return nil, invalid("horizon must be between 1 and %d months", projection.MaxHorizonMonths)
	}

	in, err := s.snapshot(ctx, ownerID, s.today())
	if err != nil {
		return nil, err
	}
	in.HorizonMonths = req.HorizonMonths
	in.FullBudgetOverride = req.UseFullBudgetProvisionOverride
	in.SkipBudgetProvision = req.SkipBudgetProvision

	start := time.Now()
	p, err := projection.Simulate(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  ownerID,
		"horizon":  req.HorizonMonths,
		"points":   len(p.Timeline),
		"at_risk":  p.IsAtRisk,
		"duration": time.Since(start).String(),
	}).Debug("Projection computed")
	return &p, nil
}
