package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
	"github.com/Dan9191/finflow/internal/recurring"
	"github.com/Dan9191/finflow/internal/service"
)

// Day is a civil date rendered as YYYY-MM-DD.
type Day struct{ time.Time }

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(calendar.DateLayout))
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func dayPtr(t *time.Time) *Day {
	if t == nil {
		return nil
	}
	return &Day{*t}
}

func amount(d decimal.Decimal) models.Cents {
	return models.CentsFromDecimal(d)
}

type entryRequest struct {
	Date        Day             `json:"date"`
	Kind        models.Kind     `json:"kind"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Account     string          `json:"account"`
	Status      string          `json:"status"`
}

func (r entryRequest) model() models.LedgerEntry {
	return models.LedgerEntry{
		Date:        r.Date.Time,
		Kind:        r.Kind,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Description: r.Description,
		Amount:      amount(r.Amount),
		Account:     r.Account,
		Status:      models.EntryStatus(r.Status),
	}
}

type entryResponse struct {
	ID           int64              `json:"id"`
	Date         Day                `json:"date"`
	Kind         models.Kind        `json:"kind"`
	Category     string             `json:"category"`
	Subcategory  string             `json:"subcategory,omitempty"`
	Description  string             `json:"description"`
	Amount       decimal.Decimal    `json:"amount"`
	Account      string             `json:"account,omitempty"`
	Status       models.EntryStatus `json:"status"`
	ObligationID *int64             `json:"obligationId,omitempty"`
}

func newEntryResponse(e models.LedgerEntry) entryResponse {
	return entryResponse{
		ID:           e.ID,
		Date:         Day{e.Date},
		Kind:         e.Kind,
		Category:     e.Category,
		Subcategory:  e.Subcategory,
		Description:  e.Description,
		Amount:       e.Amount.Decimal(),
		Account:      e.Account,
		Status:       e.Status,
		ObligationID: e.ObligationID,
	}
}

func newEntryResponses(entries []models.LedgerEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryResponse(e))
	}
	return out
}

type obligationRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	DayOfMonth int             `json:"dayOfMonth"`
	Kind       models.Kind     `json:"kind"`
	Active     *bool           `json:"active"`
}

func (r obligationRequest) model() models.RecurringObligation {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return models.RecurringObligation{
		Name:       r.Name,
		Amount:     amount(r.Amount),
		Category:   r.Category,
		DayOfMonth: r.DayOfMonth,
		Kind:       r.Kind,
		Active:     active,
	}
}

type obligationResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	DayOfMonth int             `json:"dayOfMonth"`
	Kind       models.Kind     `json:"kind"`
	Active     bool            `json:"active"`
}

func newObligationResponse(ob models.RecurringObligation) obligationResponse {
	return obligationResponse{
		ID:         ob.ID,
		Name:       ob.Name,
		Amount:     ob.Amount.Decimal(),
		Category:   ob.Category,
		DayOfMonth: ob.DayOfMonth,
		Kind:       ob.Kind,
		Active:     ob.Active,
	}
}

type obligationStatusResponse struct {
	Obligation obligationResponse `json:"obligation"`
	Date       Day                `json:"date"`
	Status     recurring.Status   `json:"status"`
}

type cardRequest struct {
	Name       string `json:"name"`
	ClosingDay int    `json:"closingDay"`
	DueDay     int    `json:"dueDay"`
}

type cardResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closingDay"`
	DueDay     int    `json:"dueDay"`
}

func newCardResponse(c models.CreditCard) cardResponse {
	return cardResponse{ID: c.ID, Name: c.Name, ClosingDay: c.ClosingDay, DueDay: c.DueDay}
}

type purchaseRequest struct {
	CardID       int64           `json:"cardId"`
	PurchaseDate Day             `json:"purchaseDate"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Total        decimal.Decimal `json:"total"`
	Installments int             `json:"installments"`
}

func (r purchaseRequest) purchase() service.Purchase {
	return service.Purchase{
		CardID:       r.CardID,
		PurchaseDate: r.PurchaseDate.Time,
		Description:  r.Description,
		Category:     r.Category,
		Total:        amount(r.Total),
		Installments: r.Installments,
	}
}

type chargeResponse struct {
	ID                int64           `json:"id"`
	CardID            int64           `json:"cardId"`
	BatchID           string          `json:"batchId"`
	PurchaseDate      Day             `json:"purchaseDate"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	InstallmentIndex  int             `json:"installmentIndex"`
	InstallmentCount  int             `json:"installmentCount"`
	StatementPeriod   string          `json:"statementPeriod"`
}

func newChargeResponses(charges []models.InstallmentCharge) []chargeResponse {
	out := make([]chargeResponse, 0, len(charges))
	for _, c := range charges {
		out = append(out, chargeResponse{
			ID:                c.ID,
			CardID:            c.CardID,
			BatchID:           c.BatchID,
			PurchaseDate:      Day{c.PurchaseDate},
			Description:       c.Description,
			Category:          c.Category,
			InstallmentAmount: c.InstallmentAmount.Decimal(),
			InstallmentIndex:  c.InstallmentIndex,
			InstallmentCount:  c.InstallmentCount,
			StatementPeriod:   calendar.FormatPeriod(c.StatementPeriod),
		})
	}
	return out
}

type payRequest struct {
	External bool   `json:"external"`
	Account  string `json:"account"`
	Date     Day    `json:"date"`
}

type statementResponse struct {
	CardID      int64                 `json:"cardId"`
	CardName    string                `json:"cardName"`
	Period      string                `json:"period"`
	ClosingDate Day                   `json:"closingDate"`
	DueDate     Day                   `json:"dueDate"`
	Total       decimal.Decimal       `json:"total"`
	State       models.StatementState `json:"state"`
	PaidAmount  *decimal.Decimal      `json:"paidAmount,omitempty"`
	PaidDate    *Day                  `json:"paidDate,omitempty"`
	Items       []chargeResponse      `json:"items"`
}

func newStatementResponse(v service.StatementView) statementResponse {
	out := statementResponse{
		CardID:      v.CardID,
		CardName:    v.CardName,
		Period:      calendar.FormatPeriod(v.Period),
		ClosingDate: Day{v.ClosingDate},
		DueDate:     Day{v.DueDate},
		Total:       v.Total.Decimal(),
		State:       v.State,
		Items:       newChargeResponses(v.Items),
	}
	if v.Stored != nil && v.State.IsPaid() {
		paid := v.Stored.PaidAmount.Decimal()
		out.PaidAmount = &paid
		out.PaidDate = dayPtr(v.Stored.PaidDate)
	}
	return out
}

type goalRequest struct {
	Category     string          `json:"category"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

type goalResponse struct {
	Category     string          `json:"category"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

func newGoalResponse(g models.BudgetGoal) goalResponse {
	return goalResponse{Category: g.Category, Year: g.Year, Month: g.Month, TargetAmount: g.TargetAmount.Decimal()}
}

type progressResponse struct {
	Category string          `json:"category"`
	Target   decimal.Decimal `json:"target"`
	Spent    decimal.Decimal `json:"spent"`
	Balance  decimal.Decimal `json:"balance"`
	Progress float64         `json:"progress"`
}

type projectionRequest struct {
	HorizonMonths                  int  `json:"horizonMonths"`
	UseFullBudgetProvisionOverride bool `json:"useFullBudgetProvisionOverride"`
	SkipBudgetProvision            bool `json:"skipBudgetProvision"`
}

type pointResponse struct {
	Date         Day             `json:"date"`
	Balance      decimal.Decimal `json:"balance"`
	Inflow       decimal.Decimal `json:"inflow"`
	Outflow      decimal.Decimal `json:"outflow"`
	Descriptions []string        `json:"descriptions"`
}

type projectionResponse struct {
	Timeline          []pointResponse `json:"timeline"`
	StartingBalance   decimal.Decimal `json:"startingBalance"`
	MinBalance        decimal.Decimal `json:"minBalance"`
	MinBalanceDate    Day             `json:"minBalanceDate"`
	FinalBalance      decimal.Decimal `json:"finalBalance"`
	IsAtRisk          bool            `json:"isAtRisk"`
	FirstNegativeDate *Day            `json:"firstNegativeDate"`
}

func newProjectionResponse(p *models.Projection) projectionResponse {
	out := projectionResponse{
		Timeline:          make([]pointResponse, 0, len(p.Timeline)),
		StartingBalance:   p.StartingBalance.Decimal(),
		MinBalance:        p.MinBalance.Decimal(),
		MinBalanceDate:    Day{p.MinBalanceDate},
		FinalBalance:      p.FinalBalance.Decimal(),
		IsAtRisk:          p.IsAtRisk,
		FirstNegativeDate: dayPtr(p.FirstNegativeDate),
	}
	for _, pt := range p.Timeline {
		descriptions := pt.Descriptions
		if descriptions == nil {
			descriptions = []string{}
		}
		out.Timeline = append(out.Timeline, pointResponse{
			Date:         Day{pt.Date},
			Balance:      pt.Balance.Decimal(),
			Inflow:       pt.Inflow.Decimal(),
			Outflow:      pt.Outflow.Decimal(),
			Descriptions: descriptions,
		})
	}
	return out
}

type alertResponse struct {
	Level   models.AlertLevel `json:"level"`
	Date    Day               `json:"date"`
	Message string            `json:"message"`
}

type importResponse struct {
	Account  string          `json:"account"`
	Imported []entryResponse `json:"imported"`
	Skipped  int             `json:"skipped"`
}
