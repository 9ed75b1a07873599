package models

import "time"

// StatementState is the lifecycle state of a card statement.
type StatementState string

const (
	StatementOpen         StatementState = "open"
	StatementClosed       StatementState = "closed" // closed, waiting for payment
	StatementOverdue      StatementState = "overdue"
	StatementPaid         StatementState = "paid"
	StatementPaidExternal StatementState = "paid_external"
)

// IsPaid reports whether the state settles the statement.
func (s StatementState) IsPaid() bool {
	return s == StatementPaid || s == StatementPaidExternal
}

// StatementStatus is the stored payment record of a statement.
type StatementStatus struct {
	OwnerID         int64          `json:"owner_id"`
	CardID          int64          `json:"card_id"`
	StatementPeriod time.Time      `json:"statement_period"`
	Status          StatementState `json:"status"`
	PaidAmount      Cents          `json:"paid_amount"`
	PaidDate        *time.Time     `json:"paid_date,omitempty"`
}

// Statement is the derived view of one card's charges for one period.
type Statement struct {
	CardID      int64               `json:"card_id"`
	CardName    string              `json:"card_name"`
	Period      time.Time           `json:"period"`
	ClosingDate time.Time           `json:"closing_date"`
	DueDate     time.Time           `json:"due_date"`
	Total       Cents               `json:"total"`
	Items       []InstallmentCharge `json:"items"`
	Stored      *StatementStatus    `json:"stored,omitempty"`
}
