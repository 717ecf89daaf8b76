package engine

import (
	"errors"
	"testing"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

func stockingInput(stock int64, base, reliability float64, lead int, demand []float64) StockingInput {
	return StockingInput{
		Record: domain.InventoryRecord{StoreID: "S1", ProductID: "P1", CurrentStock: stock},
		Product: domain.Product{
			ProductID:                   "P1",
			MinReplenishTime:            lead,
			BaseSafetyStock:             base,
			SupplierCategoryReliability: reliability,
		},
		Demand: demand,
	}
}

func TestOptimalStockingTarget(t *testing.T) {
	res, err := DefaultPolicy().OptimalStocking(stockingInput(12, 10, 1, 5, flatDemand(2, 30)))
	if err != nil {
		t.Fatalf("optimal stocking: %v", err)
	}
	if res.ReliabilityFactor != 1 {
		t.Fatalf("expected factor 1 for a perfect supplier, got %v", res.ReliabilityFactor)
	}
	if res.CalculatedSafetyStock != 10 {
		t.Fatalf("expected safety stock 10, got %d", res.CalculatedSafetyStock)
	}
	if res.Total30DayForecastedDemand != 60 {
		t.Fatalf("expected total demand 60, got %v", res.Total30DayForecastedDemand)
	}
	if res.TargetInventoryLevel != 20 {
		t.Fatalf("expected target 20, got %d", res.TargetInventoryLevel)
	}
	if res.StockPosition != domain.PositionUnderstock {
		t.Fatalf("expected understock, got %s", res.StockPosition)
	}
}

func TestOptimalStockingLeadTimeOverride(t *testing.T) {
	in := stockingInput(24, 10, 1, 5, flatDemand(2, 30))
	in.LeadTimeOverride = 2
	res, err := DefaultPolicy().OptimalStocking(in)
	if err != nil {
		t.Fatalf("optimal stocking: %v", err)
	}
	if res.EffectiveLeadTime != 7 || res.TargetInventoryLevel != 24 {
		t.Fatalf("expected effective lead 7 and target 24, got %d / %d", res.EffectiveLeadTime, res.TargetInventoryLevel)
	}
	if res.StockPosition != domain.PositionOptimal {
		t.Fatalf("expected optimal at equality, got %s", res.StockPosition)
	}

	in.LeadTimeOverride = -6
	if _, err := DefaultPolicy().OptimalStocking(in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for negative effective lead, got %v", err)
	}
}

func TestReliabilityFactorDecreasesWithReliability(t *testing.T) {
	p := DefaultPolicy()
	prev := p.ReliabilityFactor(0)
	for _, r := range []float64{0.2, 0.5, 0.7, 0.9, 0.99, 1} {
		f := p.ReliabilityFactor(r)
		if f > prev {
			t.Fatalf("factor increased from %v to %v at reliability %v", prev, f, r)
		}
		if f < 1 {
			t.Fatalf("factor below 1 at reliability %v: %v", r, f)
		}
		prev = f
	}
	if p.ReliabilityFactor(1.4) != 1 {
		t.Fatalf("expected reliability above 1 to clamp")
	}
}

func TestTargetMonotoneInFactorAndDemand(t *testing.T) {
	p := DefaultPolicy()

	prevTarget := int64(-1)
	for _, r := range []float64{1, 0.95, 0.8, 0.7, 0.5, 0} {
		res, err := p.OptimalStocking(stockingInput(0, 13, r, 6, flatDemand(3.3, 30)))
		if err != nil {
			t.Fatalf("optimal stocking: %v", err)
		}
		if res.TargetInventoryLevel < prevTarget {
			t.Fatalf("target decreased as reliability factor grew: %d < %d", res.TargetInventoryLevel, prevTarget)
		}
		prevTarget = res.TargetInventoryLevel
	}

	prevTarget = -1
	for _, daily := range []float64{0, 0.4, 1, 2.2, 9, 40} {
		res, err := p.OptimalStocking(stockingInput(0, 13, 0.8, 6, flatDemand(daily, 30)))
		if err != nil {
			t.Fatalf("optimal stocking: %v", err)
		}
		if res.TargetInventoryLevel < prevTarget {
			t.Fatalf("target decreased as demand grew: %d < %d", res.TargetInventoryLevel, prevTarget)
		}
		prevTarget = res.TargetInventoryLevel
	}
}
