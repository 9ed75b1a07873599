package models

import "time"

// EntryStatus tells whether a ledger entry already moved money.
type EntryStatus string

const (
	EntrySettled EntryStatus = "settled"
	EntryPending EntryStatus = "pending"
)

// LedgerEntry is a recorded income or expense.
type LedgerEntry struct {
	ID          int64       `json:"id"`
	OwnerID     int64       `json:"owner_id"`
	Date        time.Time   `json:"date"`
	Kind        Kind        `json:"kind"`
	Category    string      `json:"category"`
	Subcategory string      `json:"subcategory,omitempty"`
	Description string      `json:"description"`
	Amount      Cents       `json:"amount"`
	Account     string      `json:"account,omitempty"`
	Status      EntryStatus `json:"status"`
	// ObligationID links an entry to the recurring obligation that generated it.
	ObligationID *int64 `json:"obligation_id,omitempty"`
}

// Signed returns the amount with expenses negative.
func (e LedgerEntry) Signed() Cents {
	if e.Kind == KindExpense {
		return -e.Amount
	}
	return e.Amount
}
