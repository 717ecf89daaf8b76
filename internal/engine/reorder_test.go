package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

func flatDemand(value float64, days int) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestReorderScenarioS1P1(t *testing.T) {
	today := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)
	rec, err := DefaultPolicy().Reorder(ReorderInput{
		Record:   domain.InventoryRecord{StoreID: "S1", ProductID: "P1", CurrentStock: 5},
		LeadTime: 3,
		Demand:   flatDemand(2, 10),
		Today:    today,
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	if rec.SafetyStockUnits != 2 {
		t.Fatalf("expected safety stock 2, got %d", rec.SafetyStockUnits)
	}
	if rec.ReorderPointUnits != 8 {
		t.Fatalf("expected reorder point 8, got %d", rec.ReorderPointUnits)
	}
	if !rec.ReorderNeeded {
		t.Fatalf("expected reorder to be needed")
	}
	if rec.SuggestedOrderQuantity < 6 {
		t.Fatalf("expected suggested quantity >= 6, got %d", rec.SuggestedOrderQuantity)
	}
	if rec.SuggestedOrderDate == nil || !rec.SuggestedOrderDate.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected order date %v", rec.SuggestedOrderDate)
	}
	if rec.SuggestedDeliveryDate == nil || !rec.SuggestedDeliveryDate.Equal(time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected delivery date %v", rec.SuggestedDeliveryDate)
	}
}

func TestReorderWithoutDemandSignal(t *testing.T) {
	for name, demand := range map[string][]float64{
		"empty":    nil,
		"all zero": flatDemand(0, 10),
	} {
		rec, err := DefaultPolicy().Reorder(ReorderInput{
			Record:   domain.InventoryRecord{StoreID: "S1", ProductID: "P1", CurrentStock: 0},
			LeadTime: 3,
			Demand:   demand,
			Today:    time.Now(),
		})
		if err != nil {
			t.Fatalf("%s: reorder: %v", name, err)
		}
		if rec.ReorderNeeded {
			t.Fatalf("%s: expected no reorder", name)
		}
		if !strings.Contains(rec.Notes, "no demand signal") {
			t.Fatalf("%s: expected notes to mention missing demand, got %q", name, rec.Notes)
		}
		if rec.SuggestedOrderDate != nil {
			t.Fatalf("%s: expected no order date", name)
		}
	}
}

func TestReorderAboveReorderPoint(t *testing.T) {
	rec, err := DefaultPolicy().Reorder(ReorderInput{
		Record:   domain.InventoryRecord{CurrentStock: 20},
		LeadTime: 3,
		Demand:   flatDemand(2, 10),
		Today:    time.Now(),
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if rec.ReorderNeeded || rec.SuggestedOrderQuantity != 0 {
		t.Fatalf("expected no reorder above the reorder point, got %+v", rec)
	}
}

func TestReorderPointNeverBelowSafetyStock(t *testing.T) {
	for _, factor := range []float64{0.5, 1, 1.65, 3} {
		policy := DefaultPolicy()
		policy.SafetyFactor = factor
		for _, avg := range []float64{0.01, 0.3, 1, 2.5, 17} {
			for _, lead := range []int{0, 1, 3, 20} {
				rec, err := policy.Reorder(ReorderInput{LeadTime: lead, Demand: flatDemand(avg, 7), Today: time.Now()})
				if err != nil {
					t.Fatalf("reorder: %v", err)
				}
				if rec.ReorderPointUnits < rec.SafetyStockUnits {
					t.Fatalf("factor %v avg %v lead %d: rop %d < safety %d",
						factor, avg, lead, rec.ReorderPointUnits, rec.SafetyStockUnits)
				}
			}
		}
	}
}

func TestReorderIgnoresFloatNoise(t *testing.T) {
	rec, err := DefaultPolicy().Reorder(ReorderInput{LeadTime: 30, Demand: flatDemand(0.1, 30), Today: time.Now()})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	// 0.1 summed thirty times is not exactly 3
	if rec.ReorderPointUnits != 4 {
		t.Fatalf("expected reorder point 3 + 1 safety, got %d", rec.ReorderPointUnits)
	}
}

func TestReorderRejectsNegativeLeadTime(t *testing.T) {
	_, err := DefaultPolicy().Reorder(ReorderInput{LeadTime: -1, Demand: flatDemand(1, 3)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReorderHorizonAddsPadding(t *testing.T) {
	if got := DefaultPolicy().ReorderHorizon(3); got != 10 {
		t.Fatalf("expected horizon 10, got %d", got)
	}
	p := DefaultPolicy()
	p.ReorderPaddingDays = 0
	if got := p.ReorderHorizon(0); got != 1 {
		t.Fatalf("expected minimum horizon 1, got %d", got)
	}
}
