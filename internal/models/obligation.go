package models

// RecurringObligation is a fixed amount expected on a fixed day every month.
type RecurringObligation struct {
	ID         int64  `json:"id"`
	OwnerID    int64  `json:"owner_id"`
	Name       string `json:"name"`
	Amount     Cents  `json:"amount"`
	Category   string `json:"category"`
	DayOfMonth int    `json:"day_of_month"`
	Kind       Kind   `json:"kind"`
	Active     bool   `json:"active"`
}
