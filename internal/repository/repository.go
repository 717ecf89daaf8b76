package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

// InventoryRepository persists on-hand stock. ApplyDelta must be atomic:
// the stock change and the idempotency record commit together or not at all.
type InventoryRepository interface {
	GetInventory(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error)
	ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRecord, error)
	ApplyDelta(ctx context.Context, cmd domain.DeltaCommand, at time.Time) (*domain.DeltaResult, error)
}

// ReferenceRepository serves static product, store and route history data.
type ReferenceRepository interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
	ListTransferHistory(ctx context.Context) ([]domain.TransferHistory, error)
}

// SeedSink accepts bulk reference and inventory data from the seed loader.
type SeedSink interface {
	UpsertProducts(ctx context.Context, products []domain.Product) error
	UpsertStores(ctx context.Context, stores []domain.Store) error
	UpsertInventory(ctx context.Context, records []domain.InventoryRecord) error
	UpsertTransferHistory(ctx context.Context, history []domain.TransferHistory) error
}

// Store is everything a backend provides.
type Store interface {
	InventoryRepository
	ReferenceRepository
	SeedSink
}
