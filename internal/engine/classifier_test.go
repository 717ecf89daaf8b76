package engine

import (
	"errors"
	"testing"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

func snapshot(store, product string, stock int64, daily float64, lead int) StockSnapshot {
	return StockSnapshot{
		Record: domain.InventoryRecord{
			StoreID:            store,
			ProductID:          product,
			CurrentStock:       stock,
			DailySalesBaseline: daily,
		},
		Product: domain.Product{ProductID: product, Name: "Item " + product, MinReplenishTime: lead},
	}
}

func TestOverstockRatioAgainstThreshold(t *testing.T) {
	items := []StockSnapshot{snapshot("S1", "P1", 300, 2, 3)}

	alerts, err := OverstockAlerts(items, 3.0, 30)
	if err != nil {
		t.Fatalf("overstock: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].ProjectedDemand != 60 || alerts[0].OverstockRatio != 5.0 {
		t.Fatalf("expected projected 60 ratio 5, got %v / %v", alerts[0].ProjectedDemand, alerts[0].OverstockRatio)
	}

	alerts, err = OverstockAlerts(items, 6.0, 30)
	if err != nil {
		t.Fatalf("overstock: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alert at 6x, got %d", len(alerts))
	}
}

func TestOverstockZeroDemandUsesSentinel(t *testing.T) {
	items := []StockSnapshot{
		snapshot("S1", "P1", 10, 0, 3),
		snapshot("S1", "P2", 0, 0, 3),
		snapshot("S2", "P1", 400, 1, 3),
	}

	alerts, err := OverstockAlerts(items, 3.0, 30)
	if err != nil {
		t.Fatalf("overstock: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].ProductID != "P1" || alerts[0].StoreID != "S1" || alerts[0].OverstockRatio != OverstockRatioSentinel {
		t.Fatalf("expected zero-demand item first with sentinel ratio, got %+v", alerts[0])
	}
	if alerts[1].StoreID != "S2" || alerts[1].OverstockRatio != 13.33 {
		t.Fatalf("unexpected second alert %+v", alerts[1])
	}
}

func TestOverstockRejectsBadParameters(t *testing.T) {
	if _, err := OverstockAlerts(nil, 0, 30); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero multiplier, got %v", err)
	}
	if _, err := OverstockAlerts(nil, 3, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero days, got %v", err)
	}
}

func TestLowStockCategoriesAndOrder(t *testing.T) {
	items := []StockSnapshot{
		snapshot("S1", "C", 10, 2, 3),  // 5 days, low
		snapshot("S1", "D", 100, 2, 3), // 50 days, not flagged
		snapshot("S1", "B", 4, 2, 3),   // 2 days, critical
		snapshot("S1", "E", 5, 0, 3),   // never runs out
		snapshot("S1", "A", 0, 1, 3),   // out of stock
	}

	alerts, err := LowStockAlerts(items, 7)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}

	want := []struct {
		product  string
		days     domain.Days
		category domain.AlertCategory
	}{
		{"A", 0, domain.AlertCritical},
		{"B", 2, domain.AlertCritical},
		{"C", 5, domain.AlertLow},
	}
	for i, w := range want {
		got := alerts[i]
		if got.ProductID != w.product || got.DaysRemaining != w.days || got.AlertCategory != w.category {
			t.Fatalf("alert %d: expected %+v, got %+v", i, w, got)
		}
	}
	if alerts[0].AlertReason != "Currently out of stock." {
		t.Fatalf("unexpected out of stock reason %q", alerts[0].AlertReason)
	}
}

func TestLowStockCriticalBoundaryIsStrict(t *testing.T) {
	// 6 / 2 = 3 days, equal to the lead time, so not critical
	alerts, err := LowStockAlerts([]StockSnapshot{snapshot("S1", "P1", 6, 2, 3)}, 7)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertCategory != domain.AlertLow {
		t.Fatalf("expected a single Low alert, got %+v", alerts)
	}
}

func TestLowStockRejectsNegativeDaysLeft(t *testing.T) {
	if _, err := LowStockAlerts(nil, -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDaysRemainingInfiniteWithoutDemand(t *testing.T) {
	if !domain.Days(DaysRemaining(5, 0)).IsInfinite() {
		t.Fatalf("expected infinite days remaining")
	}
}

func TestClassifyPosition(t *testing.T) {
	cases := []struct {
		stock, target int64
		want          domain.StockPosition
	}{
		{5, 10, domain.PositionUnderstock},
		{10, 10, domain.PositionOptimal},
		{11, 10, domain.PositionOverstock},
	}
	for _, c := range cases {
		if got := ClassifyPosition(c.stock, c.target); got != c.want {
			t.Fatalf("stock %d target %d: expected %s, got %s", c.stock, c.target, c.want, got)
		}
	}
}
