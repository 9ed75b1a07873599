// Package repository persists the finance data of every owner. All calls are
// scoped by an explicit owner id; a row owned by someone else is reported as
// ErrNotFound.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/finflow/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist for the owner.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// Store provides database operations
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	DeleteEntry(ctx context.Context, ownerID, id int64) error
	ListEntries(ctx context.Context, ownerID int64) ([]models.LedgerEntry, error)

	CreateObligation(ctx context.Context, ob *models.RecurringObligation) error
	UpdateObligation(ctx context.Context, ob *models.RecurringObligation) error
	DeleteObligation(ctx context.Context, ownerID, id int64) error
	ListObligations(ctx context.Context, ownerID int64) ([]models.RecurringObligation, error)

	CreateCard(ctx context.Context, card *models.CreditCard) error
	FindCard(ctx context.Context, ownerID, id int64) (*models.CreditCard, error)
	// DeleteCard removes the card together with its charges and statement statuses.
	DeleteCard(ctx context.Context, ownerID, id int64) error
	ListCards(ctx context.Context, ownerID int64) ([]models.CreditCard, error)

	// CreateCharges stores all installments of one purchase, assigning their ids.
	CreateCharges(ctx context.Context, charges []models.InstallmentCharge) error
	// DeleteBatch removes every installment of a purchase.
	DeleteBatch(ctx context.Context, ownerID int64, batchID string) error
	// ReplaceBatch swaps every installment of a purchase for charges in one step;
	// on error the stored batch is left as it was.
	ReplaceBatch(ctx context.Context, ownerID int64, batchID string, charges []models.InstallmentCharge) error
	ListCharges(ctx context.Context, ownerID int64) ([]models.InstallmentCharge, error)

	UpsertStatementStatus(ctx context.Context, status models.StatementStatus) error
	DeleteStatementStatus(ctx context.Context, ownerID, cardID int64, period time.Time) error
	ListStatementStatuses(ctx context.Context, ownerID int64) ([]models.StatementStatus, error)

	UpsertGoal(ctx context.Context, goal models.BudgetGoal) error
	DeleteGoal(ctx context.Context, ownerID int64, category string, year, month int) error
	ListGoals(ctx context.Context, ownerID int64) ([]models.BudgetGoal, error)
}
