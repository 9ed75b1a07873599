package models

import "time"

// ProjectionPoint is one day of the simulated timeline.
type ProjectionPoint struct {
	Date         time.Time `json:"date"`
	Balance      Cents     `json:"balance"`
	Inflow       Cents     `json:"inflow"`
	Outflow      Cents     `json:"outflow"`
	Descriptions []string  `json:"descriptions"`
}

// Projection is the outcome of a cash-flow simulation.
type Projection struct {
	Timeline          []ProjectionPoint `json:"timeline"`
	StartingBalance   Cents             `json:"starting_balance"`
	MinBalance        Cents             `json:"min_balance"`
	MinBalanceDate    time.Time         `json:"min_balance_date"`
	FinalBalance      Cents             `json:"final_balance"`
	IsAtRisk          bool              `json:"is_at_risk"`
	FirstNegativeDate *time.Time        `json:"first_negative_date,omitempty"`
}
