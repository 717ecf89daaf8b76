package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

func openTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	databaseURL := os.Getenv("RESTOCK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set RESTOCK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	db, err := sqlx.Connect("pgx", databaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewStore(Wrap(db, 4)), db
}

func TestApplyDeltaAgainstPostgres(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	storeID := fmt.Sprintf("S-IT-%d", stamp)
	productID := "P-IT"
	key := fmt.Sprintf("idem-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM inventory WHERE store_id = $1`, storeID)
		_, _ = db.ExecContext(ctx, `DELETE FROM inventory_deltas WHERE store_id = $1`, storeID)
	})

	if _, err := s.ApplyDelta(ctx, domain.DeltaCommand{StoreID: storeID, ProductID: productID, Quantity: -1}, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on a missing record, got %v", err)
	}

	cmd := domain.DeltaCommand{StoreID: storeID, ProductID: productID, Quantity: 10, IdempotencyKey: key}
	res, err := s.ApplyDelta(ctx, cmd, time.Now())
	if err != nil {
		t.Fatalf("apply receipt: %v", err)
	}
	if res.Record.CurrentStock != 10 || res.Replayed {
		t.Fatalf("unexpected first result %+v", res)
	}

	res, err = s.ApplyDelta(ctx, cmd, time.Now())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !res.Replayed || res.Record.CurrentStock != 10 {
		t.Fatalf("expected replayed result with 10 units, got %+v", res)
	}

	cmd.Quantity = 11
	if _, err := s.ApplyDelta(ctx, cmd, time.Now()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := s.ApplyDelta(ctx, domain.DeltaCommand{StoreID: storeID, ProductID: productID, Quantity: -11}, time.Now()); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	rec, err := s.GetInventory(ctx, storeID, productID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.CurrentStock != 10 {
		t.Fatalf("expected stock to stay at 10, got %d", rec.CurrentStock)
	}
}
