package models

import "time"

// CreditCard holds the billing cycle days of a card.
type CreditCard struct {
	ID         int64  `json:"id"`
	OwnerID    int64  `json:"owner_id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

// InstallmentCharge is one installment of a card purchase, billed in StatementPeriod.
type InstallmentCharge struct {
	ID                int64     `json:"id"`
	OwnerID           int64     `json:"owner_id"`
	CardID            int64     `json:"card_id"`
	BatchID           string    `json:"batch_id"`
	PurchaseDate      time.Time `json:"purchase_date"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	InstallmentAmount Cents     `json:"installment_amount"`
	InstallmentIndex  int       `json:"installment_index"`
	InstallmentCount  int       `json:"installment_count"`
	StatementPeriod   time.Time `json:"statement_period"` // always day 1
}
