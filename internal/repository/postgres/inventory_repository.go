package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryColumns = `store_id, product_id, current_stock, daily_sales_baseline, last_updated`

func (r *inventoryRepository) GetInventory(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE store_id = $1 AND product_id = $2`
	if err := r.db.GetContext(ctx, &rec, query, storeID, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("no inventory for store %s product %s", storeID, productID)
		}
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return &rec, nil
}

func (r *inventoryRepository) ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE ($1 = '' OR store_id = $1)
		  AND ($2 = '' OR product_id = $2)
		ORDER BY store_id, product_id
	`
	records := []domain.InventoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query, filter.StoreID, filter.ProductID); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return records, nil
}

type deltaRow struct {
	StoreID        string          `db:"store_id"`
	ProductID      string          `db:"product_id"`
	Quantity       int64           `db:"quantity"`
	ResultStock    sql.NullInt64   `db:"result_stock"`
	ResultBaseline sql.NullFloat64 `db:"result_baseline"`
	ResultUpdated  sql.NullTime    `db:"result_updated"`
}

// ApplyDelta locks the row, applies the change and records the idempotency
// key in one transaction.
func (r *inventoryRepository) ApplyDelta(ctx context.Context, cmd domain.DeltaCommand, at time.Time) (*domain.DeltaResult, error) {
	var result *domain.DeltaResult
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if cmd.IdempotencyKey != "" {
			replay, claimed, err := r.claimKey(ctx, tx, cmd)
			if err != nil {
				return err
			}
			if !claimed {
				result = replay
				return nil
			}
		}

		var rec domain.InventoryRecord
		err := tx.GetContext(ctx, &rec,
			`SELECT `+inventoryColumns+` FROM inventory WHERE store_id = $1 AND product_id = $2 FOR UPDATE`,
			cmd.StoreID, cmd.ProductID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if cmd.Quantity < 0 {
				return domain.NotFound("no inventory for store %s product %s", cmd.StoreID, cmd.ProductID)
			}
			rec = domain.InventoryRecord{StoreID: cmd.StoreID, ProductID: cmd.ProductID}
		case err != nil:
			return fmt.Errorf("failed to lock inventory: %w", err)
		}

		next := rec.CurrentStock + cmd.Quantity
		if next < 0 {
			return domain.InsufficientStock("store %s product %s has %d units, cannot remove %d",
				cmd.StoreID, cmd.ProductID, rec.CurrentStock, -cmd.Quantity)
		}
		rec.CurrentStock = next
		rec.LastUpdated = at.UTC()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory (store_id, product_id, current_stock, daily_sales_baseline, last_updated)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (store_id, product_id)
			DO UPDATE SET current_stock = EXCLUDED.current_stock, last_updated = EXCLUDED.last_updated
		`, rec.StoreID, rec.ProductID, rec.CurrentStock, rec.DailySalesBaseline, rec.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to write inventory: %w", err)
		}

		if cmd.IdempotencyKey != "" {
			_, err = tx.ExecContext(ctx, `
				UPDATE inventory_deltas
				SET result_stock = $2, result_baseline = $3, result_updated = $4
				WHERE idempotency_key = $1
			`, cmd.IdempotencyKey, rec.CurrentStock, rec.DailySalesBaseline, rec.LastUpdated)
			if err != nil {
				return fmt.Errorf("failed to record delta result: %w", err)
			}
		}

		result = &domain.DeltaResult{Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// claimKey reserves the idempotency key. When the key already exists it
// returns the stored outcome instead.
func (r *inventoryRepository) claimKey(ctx context.Context, tx *sqlx.Tx, cmd domain.DeltaCommand) (*domain.DeltaResult, bool, error) {
	var claimed string
	err := tx.GetContext(ctx, &claimed, `
		INSERT INTO inventory_deltas (idempotency_key, store_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING idempotency_key
	`, cmd.IdempotencyKey, cmd.StoreID, cmd.ProductID, cmd.Quantity)
	if err == nil {
		return nil, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}

	var prior deltaRow
	err = tx.GetContext(ctx, &prior, `
		SELECT store_id, product_id, quantity, result_stock, result_baseline, result_updated
		FROM inventory_deltas WHERE idempotency_key = $1
	`, cmd.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load idempotency key: %w", err)
	}

	priorCmd := domain.DeltaCommand{StoreID: prior.StoreID, ProductID: prior.ProductID, Quantity: prior.Quantity}
	if !priorCmd.SamePayload(cmd) {
		return nil, false, domain.Conflict("idempotency key %q was used for a different delta", cmd.IdempotencyKey)
	}
	if !prior.ResultStock.Valid {
		return nil, false, domain.Conflict("idempotency key %q is still in flight", cmd.IdempotencyKey)
	}

	rec := domain.InventoryRecord{
		StoreID:            prior.StoreID,
		ProductID:          prior.ProductID,
		CurrentStock:       prior.ResultStock.Int64,
		DailySalesBaseline: prior.ResultBaseline.Float64,
		LastUpdated:        prior.ResultUpdated.Time,
	}
	return &domain.DeltaResult{Record: rec, Replayed: true}, false, nil
}

func (r *inventoryRepository) UpsertInventory(ctx context.Context, records []domain.InventoryRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO inventory (store_id, product_id, current_stock, daily_sales_baseline, last_updated)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (store_id, product_id)
			DO UPDATE SET
				current_stock = EXCLUDED.current_stock,
				daily_sales_baseline = EXCLUDED.daily_sales_baseline,
				last_updated = EXCLUDED.last_updated
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			updated := rec.LastUpdated
			if updated.IsZero() {
				updated = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx, rec.StoreID, rec.ProductID, rec.CurrentStock, rec.DailySalesBaseline, updated); err != nil {
				return fmt.Errorf("failed to upsert inventory %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
}
