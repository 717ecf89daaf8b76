package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type referenceRepository struct {
	db *DB
}

func NewReferenceRepository(db *DB) *referenceRepository {
	return &referenceRepository{db: db}
}

const productColumns = `product_id, name, category, price, unit_cost, min_replenish_time, base_safety_stock, supplier_category_reliability`

func (r *referenceRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("unknown product %s", productID)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *referenceRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	if err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY product_id`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *referenceRepository) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	var s domain.Store
	err := r.db.GetContext(ctx, &s, `SELECT store_id, name, region, latitude, longitude FROM stores WHERE store_id = $1`, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("unknown store %s", storeID)
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &s, nil
}

func (r *referenceRepository) ListStores(ctx context.Context) ([]domain.Store, error) {
	stores := []domain.Store{}
	if err := r.db.SelectContext(ctx, &stores, `SELECT store_id, name, region, latitude, longitude FROM stores ORDER BY store_id`); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

func (r *referenceRepository) ListTransferHistory(ctx context.Context) ([]domain.TransferHistory, error) {
	history := []domain.TransferHistory{}
	query := `
		SELECT source_store_id, target_store_id, product_id, transfers, resolved
		FROM transfer_history
		ORDER BY source_store_id, target_store_id, product_id
	`
	if err := r.db.SelectContext(ctx, &history, query); err != nil {
		return nil, fmt.Errorf("failed to list transfer history: %w", err)
	}
	return history, nil
}

func (r *referenceRepository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO products (` + productColumns + `)
			VALUES (:product_id, :name, :category, :price, :unit_cost, :min_replenish_time, :base_safety_stock, :supplier_category_reliability)
			ON CONFLICT (product_id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				price = EXCLUDED.price,
				unit_cost = EXCLUDED.unit_cost,
				min_replenish_time = EXCLUDED.min_replenish_time,
				base_safety_stock = EXCLUDED.base_safety_stock,
				supplier_category_reliability = EXCLUDED.supplier_category_reliability
		`
		for _, p := range products {
			if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.ProductID, err)
			}
		}
		return nil
	})
}

func (r *referenceRepository) UpsertStores(ctx context.Context, stores []domain.Store) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO stores (store_id, name, region, latitude, longitude)
			VALUES (:store_id, :name, :region, :latitude, :longitude)
			ON CONFLICT (store_id) DO UPDATE SET
				name = EXCLUDED.name,
				region = EXCLUDED.region,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude
		`
		for _, s := range stores {
			if _, err := tx.NamedExecContext(ctx, query, s); err != nil {
				return fmt.Errorf("failed to upsert store %s: %w", s.StoreID, err)
			}
		}
		return nil
	})
}

func (r *referenceRepository) UpsertTransferHistory(ctx context.Context, history []domain.TransferHistory) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO transfer_history (source_store_id, target_store_id, product_id, transfers, resolved)
			VALUES (:source_store_id, :target_store_id, :product_id, :transfers, :resolved)
			ON CONFLICT (source_store_id, target_store_id, product_id) DO UPDATE SET
				transfers = EXCLUDED.transfers,
				resolved = EXCLUDED.resolved
		`
		for _, h := range history {
			if _, err := tx.NamedExecContext(ctx, query, h); err != nil {
				return fmt.Errorf("failed to upsert transfer history %s->%s: %w", h.SourceStoreID, h.TargetStoreID, err)
			}
		}
		return nil
	})
}
