package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

// Postgres provides database operations on a postgres database
type Postgres struct {
	db *sql.DB
}

// NewPostgres initializes a new postgres store
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the schema when it does not exist yet.
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result, err error, action string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO finflow.users (username, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Name, user.Email, user.PasswordHash).Scan(&user.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", user.Username, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Postgres) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, name, email, password_hash FROM finflow.users WHERE ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByUsername retrieves a user by username
func (r *Postgres) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username = $1", username)
}

// FindUserByID retrieves a user by id
func (r *Postgres) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, "id = $1", id)
}

// ListUsers returns every registered user
func (r *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, name, email, password_hash FROM finflow.users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateEntry records a ledger entry
func (r *Postgres) CreateEntry(ctx context.Context, e *models.LedgerEntry) error {
	query := `
		INSERT INTO finflow.ledger_entries
			(owner_id, entry_date, kind, category, subcategory, description, amount_cents, account, status, obligation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var obligationID sql.NullInt64
	if e.ObligationID != nil {
		obligationID = sql.NullInt64{Int64: *e.ObligationID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		e.OwnerID, e.Date, string(e.Kind), e.Category, e.Subcategory, e.Description,
		int64(e.Amount), e.Account, string(e.Status), obligationID,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// DeleteEntry removes a ledger entry
func (r *Postgres) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM finflow.ledger_entries WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return expectOne(res, err, "delete ledger entry")
}

// ListEntries returns the owner's ledger ordered by date and id
func (r *Postgres) ListEntries(ctx context.Context, ownerID int64) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, owner_id, entry_date, kind, category, subcategory, description, amount_cents, account, status, obligation_id
		FROM finflow.ledger_entries
		WHERE owner_id = $1
		ORDER BY entry_date, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			e            models.LedgerEntry
			kind, status string
			amount       int64
			obligationID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Date, &kind, &e.Category, &e.Subcategory, &e.Description,
			&amount, &e.Account, &status, &obligationID); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Date = calendar.Truncate(e.Date)
		e.Kind = models.Kind(kind)
		e.Status = models.EntryStatus(status)
		e.Amount = models.Cents(amount)
		if obligationID.Valid {
			id := obligationID.Int64
			e.ObligationID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateObligation creates a recurring obligation
func (r *Postgres) CreateObligation(ctx context.Context, ob *models.RecurringObligation) error {
	query := `
		INSERT INTO finflow.obligations (owner_id, name, amount_cents, category, day_of_month, kind, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		ob.OwnerID, ob.Name, int64(ob.Amount), ob.Category, ob.DayOfMonth, string(ob.Kind), ob.Active,
	).Scan(&ob.ID)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}
	return nil
}

// UpdateObligation overwrites an obligation
func (r *Postgres) UpdateObligation(ctx context.Context, ob *models.RecurringObligation) error {
	query := `
		UPDATE finflow.obligations
		SET name = $3, amount_cents = $4, category = $5, day_of_month = $6, kind = $7, active = $8
		WHERE owner_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query,
		ob.OwnerID, ob.ID, ob.Name, int64(ob.Amount), ob.Category, ob.DayOfMonth, string(ob.Kind), ob.Active)
	return expectOne(res, err, "update obligation")
}

// DeleteObligation removes an obligation
func (r *Postgres) DeleteObligation(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM finflow.obligations WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return expectOne(res, err, "delete obligation")
}

// ListObligations returns the owner's obligations ordered by id
func (r *Postgres) ListObligations(ctx context.Context, ownerID int64) ([]models.RecurringObligation, error) {
	query := `
		SELECT id, owner_id, name, amount_cents, category, day_of_month, kind, active
		FROM finflow.obligations
		WHERE owner_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obs []models.RecurringObligation
	for rows.Next() {
		var (
			ob     models.RecurringObligation
			amount int64
			kind   string
		)
		if err := rows.Scan(&ob.ID, &ob.OwnerID, &ob.Name, &amount, &ob.Category, &ob.DayOfMonth, &kind, &ob.Active); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		ob.Amount = models.Cents(amount)
		ob.Kind = models.Kind(kind)
		obs = append(obs, ob)
	}
	return obs, rows.Err()
}

// CreateCard creates a credit card
func (r *Postgres) CreateCard(ctx context.Context, card *models.CreditCard) error {
	query := `
		INSERT INTO finflow.cards (owner_id, name, closing_day, due_day)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, card.OwnerID, card.Name, card.ClosingDay, card.DueDay).Scan(&card.ID); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCard retrieves one of the owner's cards
func (r *Postgres) FindCard(ctx context.Context, ownerID, id int64) (*models.CreditCard, error) {
	card := &models.CreditCard{}
	query := `SELECT id, owner_id, name, closing_day, due_day FROM finflow.cards WHERE owner_id = $1 AND id = $2`
	err := r.db.QueryRowContext(ctx, query, ownerID, id).
		Scan(&card.ID, &card.OwnerID, &card.Name, &card.ClosingDay, &card.DueDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// DeleteCard removes a card; charges and statuses cascade
func (r *Postgres) DeleteCard(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM finflow.cards WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return expectOne(res, err, "delete card")
}

// ListCards returns the owner's cards ordered by id
func (r *Postgres) ListCards(ctx context.Context, ownerID int64) ([]models.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, closing_day, due_day FROM finflow.cards WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.CreditCard
	for rows.Next() {
		var c models.CreditCard
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.ClosingDay, &c.DueDay); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// CreateCharges stores a purchase's installments in one transaction
func (r *Postgres) CreateCharges(ctx context.Context, charges []models.InstallmentCharge) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCharges(ctx, tx, charges); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit installments: %w", err)
	}
	return nil
}

// ReplaceBatch deletes and re-inserts a purchase's installments in one transaction
func (r *Postgres) ReplaceBatch(ctx context.Context, ownerID int64, batchID string, charges []models.InstallmentCharge) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM finflow.installment_charges WHERE owner_id = $1 AND batch_id = $2`, ownerID, batchID)
	if err := expectOne(res, err, "replace purchase"); err != nil {
		return err
	}
	if err := insertCharges(ctx, tx, charges); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit installments: %w", err)
	}
	return nil
}

func insertCharges(ctx context.Context, tx *sql.Tx, charges []models.InstallmentCharge) error {
	query := `
		INSERT INTO finflow.installment_charges
			(owner_id, card_id, batch_id, purchase_date, description, category, amount_cents,
			 installment_index, installment_count, statement_period)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	for i := range charges {
		ch := &charges[i]
		err := tx.QueryRowContext(ctx, query,
			ch.OwnerID, ch.CardID, ch.BatchID, ch.PurchaseDate, ch.Description, ch.Category,
			int64(ch.InstallmentAmount), ch.InstallmentIndex, ch.InstallmentCount, ch.StatementPeriod,
		).Scan(&ch.ID)
		if err != nil {
			return fmt.Errorf("failed to create installment %d: %w", ch.InstallmentIndex, err)
		}
	}
	return nil
}

// DeleteBatch removes every installment of a purchase
func (r *Postgres) DeleteBatch(ctx context.Context, ownerID int64, batchID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM finflow.installment_charges WHERE owner_id = $1 AND batch_id = $2`, ownerID, batchID)
	return expectOne(res, err, "delete purchase")
}

// ListCharges returns the owner's installments ordered by period and id
func (r *Postgres) ListCharges(ctx context.Context, ownerID int64) ([]models.InstallmentCharge, error) {
	query := `
		SELECT id, owner_id, card_id, batch_id, purchase_date, description, category, amount_cents,
		       installment_index, installment_count, statement_period
		FROM finflow.installment_charges
		WHERE owner_id = $1
		ORDER BY statement_period, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var charges []models.InstallmentCharge
	for rows.Next() {
		var (
			ch     models.InstallmentCharge
			amount int64
		)
		if err := rows.Scan(&ch.ID, &ch.OwnerID, &ch.CardID, &ch.BatchID, &ch.PurchaseDate, &ch.Description, &ch.Category,
			&amount, &ch.InstallmentIndex, &ch.InstallmentCount, &ch.StatementPeriod); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		ch.InstallmentAmount = models.Cents(amount)
		ch.PurchaseDate = calendar.Truncate(ch.PurchaseDate)
		ch.StatementPeriod = calendar.MonthStart(ch.StatementPeriod)
		charges = append(charges, ch)
	}
	return charges, rows.Err()
}

// UpsertStatementStatus stores the payment record of a statement
func (r *Postgres) UpsertStatementStatus(ctx context.Context, s models.StatementStatus) error {
	query := `
		INSERT INTO finflow.statement_statuses (owner_id, card_id, statement_period, status, paid_cents, paid_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, card_id, statement_period)
		DO UPDATE SET status = EXCLUDED.status, paid_cents = EXCLUDED.paid_cents, paid_date = EXCLUDED.paid_date`
	var paidDate sql.NullTime
	if s.PaidDate != nil {
		paidDate = sql.NullTime{Time: *s.PaidDate, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		s.OwnerID, s.CardID, calendar.MonthStart(s.StatementPeriod), string(s.Status), int64(s.PaidAmount), paidDate)
	if err != nil {
		return fmt.Errorf("failed to save statement status: %w", err)
	}
	return nil
}

// DeleteStatementStatus reopens a statement
func (r *Postgres) DeleteStatementStatus(ctx context.Context, ownerID, cardID int64, period time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM finflow.statement_statuses WHERE owner_id = $1 AND card_id = $2 AND statement_period = $3`,
		ownerID, cardID, calendar.MonthStart(period))
	return expectOne(res, err, "delete statement status")
}

// ListStatementStatuses returns the owner's stored statement statuses
func (r *Postgres) ListStatementStatuses(ctx context.Context, ownerID int64) ([]models.StatementStatus, error) {
	query := `
		SELECT owner_id, card_id, statement_period, status, paid_cents, paid_date
		FROM finflow.statement_statuses
		WHERE owner_id = $1
		ORDER BY statement_period, card_id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statement statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.StatementStatus
	for rows.Next() {
		var (
			s        models.StatementStatus
			status   string
			paid     int64
			paidDate sql.NullTime
		)
		if err := rows.Scan(&s.OwnerID, &s.CardID, &s.StatementPeriod, &status, &paid, &paidDate); err != nil {
			return nil, fmt.Errorf("failed to scan statement status: %w", err)
		}
		s.StatementPeriod = calendar.MonthStart(s.StatementPeriod)
		s.Status = models.StatementState(status)
		s.PaidAmount = models.Cents(paid)
		if paidDate.Valid {
			d := calendar.Truncate(paidDate.Time)
			s.PaidDate = &d
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// UpsertGoal sets the target of a category for a month
func (r *Postgres) UpsertGoal(ctx context.Context, g models.BudgetGoal) error {
	query := `
		INSERT INTO finflow.budget_goals (owner_id, category, year, month, target_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, category, year, month)
		DO UPDATE SET target_cents = EXCLUDED.target_cents`
	if _, err := r.db.ExecContext(ctx, query, g.OwnerID, g.Category, g.Year, g.Month, int64(g.TargetAmount)); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a monthly goal
func (r *Postgres) DeleteGoal(ctx context.Context, ownerID int64, category string, year, month int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM finflow.budget_goals WHERE owner_id = $1 AND category = $2 AND year = $3 AND month = $4`,
		ownerID, category, year, month)
	return expectOne(res, err, "delete goal")
}

// ListGoals returns the owner's goals ordered by period and category
func (r *Postgres) ListGoals(ctx context.Context, ownerID int64) ([]models.BudgetGoal, error) {
	query := `
		SELECT owner_id, category, year, month, target_cents
		FROM finflow.budget_goals
		WHERE owner_id = $1
		ORDER BY year, month, category`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.BudgetGoal
	for rows.Next() {
		var (
			g      models.BudgetGoal
			target int64
		)
		if err := rows.Scan(&g.OwnerID, &g.Category, &g.Year, &g.Month, &target); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.TargetAmount = models.Cents(target)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
