package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := InsufficientStock("store %s product %s: have 2, need 5", "S1", "P1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock sentinel match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("did not expect not found match")
	}

	wrapped := fmt.Errorf("apply delta: %w", err)
	if !errors.Is(wrapped, ErrInsufficientStock) {
		t.Fatalf("expected match through fmt wrapping")
	}

	stacked := pkgerrors.Wrap(UpstreamTimeout(nil, "forecast"), "decision")
	if KindOf(stacked) != KindUpstreamTimeout {
		t.Fatalf("expected upstream timeout through pkg/errors, got %s", KindOf(stacked))
	}
}

func TestKindOfPlainErrorIsInternal(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("expected internal kind")
	}
}

func TestDaysMarshalsInfinity(t *testing.T) {
	payload, err := json.Marshal(map[string]Days{"a": InfiniteDays(), "b": 2.5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"a":"infinite","b":2.5}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestInvolvesStore(t *testing.T) {
	transfer := TransferAction{
		ActionBase:    ActionBase{ActionType: ActionTransfer, StoreID: "S2"},
		SourceStoreID: "S1",
		TargetStoreID: "S2",
	}
	if !InvolvesStore(transfer, "S1") || !InvolvesStore(transfer, "S2") {
		t.Fatalf("expected transfer to involve both stores")
	}
	order := OrderAction{ActionBase: ActionBase{ActionType: ActionOrder, StoreID: "S3"}}
	if InvolvesStore(order, "S1") {
		t.Fatalf("order for S3 must not involve S1")
	}
}

func TestPriorityRankOrdersHighFirst(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Fatalf("unexpected rank ordering")
	}
}

func TestParseBatchMode(t *testing.T) {
	tests := []struct {
		in   string
		want BatchMode
		ok   bool
	}{
		{"sale", BatchModeSale, true},
		{" Receipt ", BatchModeReceipt, true},
		{"DELTA", BatchModeDelta, true},
		{"refund", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseBatchMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseBatchMode(%q) = %q, %v; expected %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
