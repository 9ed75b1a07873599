package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/models"
)

const (
	queryLedger      = "ledger"
	queryObligations = "obligations"
	queryCards       = "cards"
	queryCharges     = "charges"
	queryStatuses    = "statuses"
	queryGoals       = "goals"
)

// Cached wraps a Store with a read-through cache of the per-owner list queries.
// Writes invalidate the affected lists. Cache failures are logged and the call
// falls through to the wrapped store.
type Cached struct {
	Store
	cache Cache
	ttl   time.Duration
	log   *logrus.Logger
}

// NewCached wraps store with cache; entries expire after ttl.
func NewCached(store Store, cache Cache, ttl time.Duration, log *logrus.Logger) *Cached {
	return &Cached{Store: store, cache: cache, ttl: ttl, log: log}
}

// CacheKey is the cache key of an owner's list query.
func CacheKey(ownerID int64, query string) string {
	return fmt.Sprintf("finflow:%d:%s", ownerID, query)
}

func readThrough[T any](ctx context.Context, c *Cached, ownerID int64, query string, load func() ([]T, error)) ([]T, error) {
	key := CacheKey(ownerID, query)
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if ok {
		var out []T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		c.log.WithField("key", key).Warn("Dropping undecodable cache entry")
	}

	out, err := load()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return out, nil
}

func (c *Cached) invalidate(ctx context.Context, ownerID int64, queries ...string) {
	keys := make([]string, len(queries))
	for i, q := range queries {
		keys[i] = CacheKey(ownerID, q)
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.log.WithError(err).WithField("keys", keys).Warn("Cache invalidation failed")
	}
}

func (c *Cached) ListEntries(ctx context.Context, ownerID int64) ([]models.LedgerEntry, error) {
	return readThrough(ctx, c, ownerID, queryLedger, func() ([]models.LedgerEntry, error) {
		return c.Store.ListEntries(ctx, ownerID)
	})
}

func (c *Cached) CreateEntry(ctx context.Context, e *models.LedgerEntry) error {
	if err := c.Store.CreateEntry(ctx, e); err != nil {
		return err
	}
	c.invalidate(ctx, e.OwnerID, queryLedger)
	return nil
}

func (c *Cached) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	if err := c.Store.DeleteEntry(ctx, ownerID, id); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryLedger)
	return nil
}

func (c *Cached) ListObligations(ctx context.Context, ownerID int64) ([]models.RecurringObligation, error) {
	return readThrough(ctx, c, ownerID, queryObligations, func() ([]models.RecurringObligation, error) {
		return c.Store.ListObligations(ctx, ownerID)
	})
}

func (c *Cached) CreateObligation(ctx context.Context, ob *models.RecurringObligation) error {
	if err := c.Store.CreateObligation(ctx, ob); err != nil {
		return err
	}
	c.invalidate(ctx, ob.OwnerID, queryObligations)
	return nil
}

func (c *Cached) UpdateObligation(ctx context.Context, ob *models.RecurringObligation) error {
	if err := c.Store.UpdateObligation(ctx, ob); err != nil {
		return err
	}
	c.invalidate(ctx, ob.OwnerID, queryObligations)
	return nil
}

func (c *Cached) DeleteObligation(ctx context.Context, ownerID, id int64) error {
	if err := c.Store.DeleteObligation(ctx, ownerID, id); err != nil {
		return err
	}
	// posted entries lose their obligation link
	c.invalidate(ctx, ownerID, queryObligations, queryLedger)
	return nil
}

func (c *Cached) ListCards(ctx context.Context, ownerID int64) ([]models.CreditCard, error) {
	return readThrough(ctx, c, ownerID, queryCards, func() ([]models.CreditCard, error) {
		return c.Store.ListCards(ctx, ownerID)
	})
}

func (c *Cached) CreateCard(ctx context.Context, card *models.CreditCard) error {
	if err := c.Store.CreateCard(ctx, card); err != nil {
		return err
	}
	c.invalidate(ctx, card.OwnerID, queryCards)
	return nil
}

func (c *Cached) DeleteCard(ctx context.Context, ownerID, id int64) error {
	if err := c.Store.DeleteCard(ctx, ownerID, id); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryCards, queryCharges, queryStatuses)
	return nil
}

func (c *Cached) ListCharges(ctx context.Context, ownerID int64) ([]models.InstallmentCharge, error) {
	return readThrough(ctx, c, ownerID, queryCharges, func() ([]models.InstallmentCharge, error) {
		return c.Store.ListCharges(ctx, ownerID)
	})
}

func (c *Cached) CreateCharges(ctx context.Context, charges []models.InstallmentCharge) error {
	if err := c.Store.CreateCharges(ctx, charges); err != nil {
		return err
	}
	owners := make(map[int64]bool)
	for _, ch := range charges {
		if !owners[ch.OwnerID] {
			owners[ch.OwnerID] = true
			c.invalidate(ctx, ch.OwnerID, queryCharges)
		}
	}
	return nil
}

func (c *Cached) DeleteBatch(ctx context.Context, ownerID int64, batchID string) error {
	if err := c.Store.DeleteBatch(ctx, ownerID, batchID); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryCharges)
	return nil
}

func (c *Cached) ReplaceBatch(ctx context.Context, ownerID int64, batchID string, charges []models.InstallmentCharge) error {
	if err := c.Store.ReplaceBatch(ctx, ownerID, batchID, charges); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryCharges)
	return nil
}

func (c *Cached) ListStatementStatuses(ctx context.Context, ownerID int64) ([]models.StatementStatus, error) {
	return readThrough(ctx, c, ownerID, queryStatuses, func() ([]models.StatementStatus, error) {
		return c.Store.ListStatementStatuses(ctx, ownerID)
	})
}

func (c *Cached) UpsertStatementStatus(ctx context.Context, s models.StatementStatus) error {
	if err := c.Store.UpsertStatementStatus(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx, s.OwnerID, queryStatuses)
	return nil
}

func (c *Cached) DeleteStatementStatus(ctx context.Context, ownerID, cardID int64, period time.Time) error {
	if err := c.Store.DeleteStatementStatus(ctx, ownerID, cardID, period); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryStatuses)
	return nil
}

func (c *Cached) ListGoals(ctx context.Context, ownerID int64) ([]models.BudgetGoal, error) {
	return readThrough(ctx, c, ownerID, queryGoals, func() ([]models.BudgetGoal, error) {
		return c.Store.ListGoals(ctx, ownerID)
	})
}

func (c *Cached) UpsertGoal(ctx context.Context, g models.BudgetGoal) error {
	if err := c.Store.UpsertGoal(ctx, g); err != nil {
		return err
	}
	c.invalidate(ctx, g.OwnerID, queryGoals)
	return nil
}

func (c *Cached) DeleteGoal(ctx context.Context, ownerID int64, category string, year, month int) error {
	if err := c.Store.DeleteGoal(ctx, ownerID, category, year, month); err != nil {
		return err
	}
	c.invalidate(ctx, ownerID, queryGoals)
	return nil
}
