package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/models"
)

type statusKey struct {
	ownerID int64
	cardID  int64
	period  time.Time
}

type goalKey struct {
	ownerID     int64
	category    string
	year, month int
}

// Memory is an in-memory Store, safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	nextID int64

	users       map[int64]models.User
	entries     map[int64]models.LedgerEntry
	obligations map[int64]models.RecurringObligation
	cards       map[int64]models.CreditCard
	charges     map[int64]models.InstallmentCharge
	statuses    map[statusKey]models.StatementStatus
	goals       map[goalKey]models.BudgetGoal
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[int64]models.User),
		entries:     make(map[int64]models.LedgerEntry),
		obligations: make(map[int64]models.RecurringObligation),
		cards:       make(map[int64]models.CreditCard),
		charges:     make(map[int64]models.InstallmentCharge),
		statuses:    make(map[statusKey]models.StatementStatus),
		goals:       make(map[goalKey]models.BudgetGoal),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("user %q: %w", user.Username, ErrConflict)
		}
	}
	user.ID = m.id()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateEntry(_ context.Context, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.id()
	e.Date = calendar.Truncate(e.Date)
	stored := *e
	if e.ObligationID != nil {
		id := *e.ObligationID
		stored.ObligationID = &id
	}
	m.entries[e.ID] = stored
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) ListEntries(_ context.Context, ownerID int64) ([]models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CreateObligation(_ context.Context, ob *models.RecurringObligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ob.ID = m.id()
	m.obligations[ob.ID] = *ob
	return nil
}

func (m *Memory) UpdateObligation(_ context.Context, ob *models.RecurringObligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.obligations[ob.ID]; !ok || cur.OwnerID != ob.OwnerID {
		return ErrNotFound
	}
	m.obligations[ob.ID] = *ob
	return nil
}

func (m *Memory) DeleteObligation(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ob, ok := m.obligations[id]; !ok || ob.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.obligations, id)
	for eid, e := range m.entries {
		if e.ObligationID != nil && *e.ObligationID == id {
			e.ObligationID = nil
			m.entries[eid] = e
		}
	}
	return nil
}

func (m *Memory) ListObligations(_ context.Context, ownerID int64) ([]models.RecurringObligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.RecurringObligation
	for _, ob := range m.obligations {
		if ob.OwnerID == ownerID {
			out = append(out, ob)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateCard(_ context.Context, card *models.CreditCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card.ID = m.id()
	m.cards[card.ID] = *card
	return nil
}

func (m *Memory) FindCard(_ context.Context, ownerID, id int64) (*models.CreditCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cards[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) DeleteCard(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.cards[id]; !ok || c.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.cards, id)
	for cid, ch := range m.charges {
		if ch.CardID == id {
			delete(m.charges, cid)
		}
	}
	for k := range m.statuses {
		if k.cardID == id {
			delete(m.statuses, k)
		}
	}
	return nil
}

func (m *Memory) ListCards(_ context.Context, ownerID int64) ([]models.CreditCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.CreditCard
	for _, c := range m.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateCharges(_ context.Context, charges []models.InstallmentCharge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkChargeCards(charges); err != nil {
		return err
	}
	m.insertCharges(charges)
	return nil
}

func (m *Memory) ReplaceBatch(_ context.Context, ownerID int64, batchID string, charges []models.InstallmentCharge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var old []int64
	for id, ch := range m.charges {
		if ch.OwnerID == ownerID && ch.BatchID == batchID {
			old = append(old, id)
		}
	}
	if len(old) == 0 {
		return ErrNotFound
	}
	if err := m.checkChargeCards(charges); err != nil {
		return err
	}
	for _, id := range old {
		delete(m.charges, id)
	}
	m.insertCharges(charges)
	return nil
}

// checkChargeCards requires every charge's card to belong to the charge's owner. Callers hold mu.
func (m *Memory) checkChargeCards(charges []models.InstallmentCharge) error {
	for _, ch := range charges {
		if c, ok := m.cards[ch.CardID]; !ok || c.OwnerID != ch.OwnerID {
			return fmt.Errorf("card %d: %w", ch.CardID, ErrNotFound)
		}
	}
	return nil
}

func (m *Memory) insertCharges(charges []models.InstallmentCharge) {
	for i := range charges {
		ch := &charges[i]
		ch.ID = m.id()
		ch.PurchaseDate = calendar.Truncate(ch.PurchaseDate)
		ch.StatementPeriod = calendar.MonthStart(ch.StatementPeriod)
		m.charges[ch.ID] = *ch
	}
}

func (m *Memory) DeleteBatch(_ context.Context, ownerID int64, batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for id, ch := range m.charges {
		if ch.OwnerID == ownerID && ch.BatchID == batchID {
			delete(m.charges, id)
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) ListCharges(_ context.Context, ownerID int64) ([]models.InstallmentCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.InstallmentCharge
	for _, ch := range m.charges {
		if ch.OwnerID == ownerID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StatementPeriod.Equal(out[j].StatementPeriod) {
			return out[i].StatementPeriod.Before(out[j].StatementPeriod)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpsertStatementStatus(_ context.Context, s models.StatementStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.cards[s.CardID]; !ok || c.OwnerID != s.OwnerID {
		return fmt.Errorf("card %d: %w", s.CardID, ErrNotFound)
	}
	s.StatementPeriod = calendar.MonthStart(s.StatementPeriod)
	if s.PaidDate != nil {
		d := calendar.Truncate(*s.PaidDate)
		s.PaidDate = &d
	}
	m.statuses[statusKey{s.OwnerID, s.CardID, s.StatementPeriod}] = s
	return nil
}

func (m *Memory) DeleteStatementStatus(_ context.Context, ownerID, cardID int64, period time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := statusKey{ownerID, cardID, calendar.MonthStart(period)}
	if _, ok := m.statuses[key]; !ok {
		return ErrNotFound
	}
	delete(m.statuses, key)
	return nil
}

func (m *Memory) ListStatementStatuses(_ context.Context, ownerID int64) ([]models.StatementStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.StatementStatus
	for k, s := range m.statuses {
		if k.ownerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StatementPeriod.Equal(out[j].StatementPeriod) {
			return out[i].StatementPeriod.Before(out[j].StatementPeriod)
		}
		return out[i].CardID < out[j].CardID
	})
	return out, nil
}

func (m *Memory) UpsertGoal(_ context.Context, g models.BudgetGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.goals[goalKey{g.OwnerID, g.Category, g.Year, g.Month}] = g
	return nil
}

func (m *Memory) DeleteGoal(_ context.Context, ownerID int64, category string, year, month int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := goalKey{ownerID, category, year, month}
	if _, ok := m.goals[key]; !ok {
		return ErrNotFound
	}
	delete(m.goals, key)
	return nil
}

func (m *Memory) ListGoals(_ context.Context, ownerID int64) ([]models.BudgetGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.BudgetGoal
	for k, g := range m.goals {
		if k.ownerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Category < b.Category
	})
	return out, nil
}
