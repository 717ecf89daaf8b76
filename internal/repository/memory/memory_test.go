package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

func TestApplyDeltaUpsertsOnReceipt(t *testing.T) {
	repo := New()
	ctx := context.Background()

	res, err := repo.ApplyDelta(ctx, domain.DeltaCommand{StoreID: "S1", ProductID: "P1", Quantity: 4}, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Record.CurrentStock != 4 {
		t.Fatalf("expected new record with 4 units, got %d", res.Record.CurrentStock)
	}

	if _, err := repo.ApplyDelta(ctx, domain.DeltaCommand{StoreID: "S1", ProductID: "P2", Quantity: -1}, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for an outflow on a missing record, got %v", err)
	}
}

func TestApplyDeltaIdempotency(t *testing.T) {
	repo := New()
	ctx := context.Background()
	cmd := domain.DeltaCommand{StoreID: "S1", ProductID: "P1", Quantity: 3, IdempotencyKey: "k1"}

	if _, err := repo.ApplyDelta(ctx, cmd, time.Now()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	res, err := repo.ApplyDelta(ctx, cmd, time.Now())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !res.Replayed || res.Record.CurrentStock != 3 {
		t.Fatalf("expected replayed result with 3 units, got %+v", res)
	}

	cmd.Quantity = 5
	if _, err := repo.ApplyDelta(ctx, cmd, time.Now()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for a different payload, got %v", err)
	}

	rec, err := repo.GetInventory(ctx, "S1", "P1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.CurrentStock != 3 {
		t.Fatalf("expected stock to stay at 3, got %d", rec.CurrentStock)
	}
}

func TestListInventoryIsSortedAndFiltered(t *testing.T) {
	repo := New()
	_ = repo.UpsertInventory(context.Background(), []domain.InventoryRecord{
		{StoreID: "S2", ProductID: "P1"},
		{StoreID: "S1", ProductID: "P2"},
		{StoreID: "S1", ProductID: "P1"},
	})

	all, _ := repo.ListInventory(context.Background(), domain.InventoryFilter{})
	if len(all) != 3 || all[0].StoreID != "S1" || all[0].ProductID != "P1" || all[2].StoreID != "S2" {
		t.Fatalf("unexpected ordering %+v", all)
	}

	s1, _ := repo.ListInventory(context.Background(), domain.InventoryFilter{StoreID: "S1"})
	if len(s1) != 2 {
		t.Fatalf("expected 2 records for S1, got %d", len(s1))
	}
}
