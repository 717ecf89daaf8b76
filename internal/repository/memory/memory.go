// Package memory is an in-process repository backend for local runs and
// tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

type appliedDelta struct {
	cmd    domain.DeltaCommand
	record domain.InventoryRecord
}

type Repository struct {
	mu        sync.RWMutex
	inventory map[domain.InventoryKey]domain.InventoryRecord
	products  map[string]domain.Product
	stores    map[string]domain.Store
	history   []domain.TransferHistory
	applied   map[string]appliedDelta
}

func New() *Repository {
	return &Repository{
		inventory: make(map[domain.InventoryKey]domain.InventoryRecord),
		products:  make(map[string]domain.Product),
		stores:    make(map[string]domain.Store),
		applied:   make(map[string]appliedDelta),
	}
}

func (r *Repository) GetInventory(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.inventory[domain.InventoryKey{StoreID: storeID, ProductID: productID}]
	if !ok {
		return nil, domain.NotFound("no inventory for store %s product %s", storeID, productID)
	}
	return &rec, nil
}

func (r *Repository) ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.InventoryRecord, 0, len(r.inventory))
	for _, rec := range r.inventory {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (r *Repository) ApplyDelta(ctx context.Context, cmd domain.DeltaCommand, at time.Time) (*domain.DeltaResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.IdempotencyKey != "" {
		if prior, ok := r.applied[cmd.IdempotencyKey]; ok {
			if !prior.cmd.SamePayload(cmd) {
				return nil, domain.Conflict("idempotency key %q was used for a different delta", cmd.IdempotencyKey)
			}
			return &domain.DeltaResult{Record: prior.record, Replayed: true}, nil
		}
	}

	key := cmd.Key()
	rec, ok := r.inventory[key]
	if !ok {
		if cmd.Quantity < 0 {
			return nil, domain.NotFound("no inventory for store %s product %s", cmd.StoreID, cmd.ProductID)
		}
		rec = domain.InventoryRecord{StoreID: cmd.StoreID, ProductID: cmd.ProductID}
	}

	next := rec.CurrentStock + cmd.Quantity
	if next < 0 {
		return nil, domain.InsufficientStock("store %s product %s has %d units, cannot remove %d",
			cmd.StoreID, cmd.ProductID, rec.CurrentStock, -cmd.Quantity)
	}

	rec.CurrentStock = next
	rec.LastUpdated = at.UTC()
	r.inventory[key] = rec

	if cmd.IdempotencyKey != "" {
		r.applied[cmd.IdempotencyKey] = appliedDelta{cmd: cmd, record: rec}
	}

	return &domain.DeltaResult{Record: rec}, nil
}

func (r *Repository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, domain.NotFound("unknown product %s", productID)
	}
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *Repository) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[storeID]
	if !ok {
		return nil, domain.NotFound("unknown store %s", storeID)
	}
	return &s, nil
}

func (r *Repository) ListStores(ctx context.Context) ([]domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out, nil
}

func (r *Repository) ListTransferHistory(ctx context.Context) ([]domain.TransferHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TransferHistory, len(r.history))
	copy(out, r.history)
	return out, nil
}

func (r *Repository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		r.products[p.ProductID] = p
	}
	return nil
}

func (r *Repository) UpsertStores(ctx context.Context, stores []domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range stores {
		r.stores[s.StoreID] = s
	}
	return nil
}

func (r *Repository) UpsertInventory(ctx context.Context, records []domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		if rec.LastUpdated.IsZero() {
			rec.LastUpdated = time.Now().UTC()
		}
		r.inventory[rec.Key()] = rec
	}
	return nil
}

// UpsertTransferHistory replaces the row for the same route and product.
func (r *Repository) UpsertTransferHistory(ctx context.Context, history []domain.TransferHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range history {
		replaced := false
		for i, existing := range r.history {
			if existing.SourceStoreID == h.SourceStoreID && existing.TargetStoreID == h.TargetStoreID && existing.ProductID == h.ProductID {
				r.history[i] = h
				replaced = true
				break
			}
		}
		if !replaced {
			r.history = append(r.history, h)
		}
	}
	return nil
}
