package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

// OverstockRatioSentinel stands in for an infinite ratio (stock with no
// projected demand) in responses and exports.
const OverstockRatioSentinel = 999999.0

// StockSnapshot pairs an inventory record with its product reference data.
type StockSnapshot struct {
	Record  domain.InventoryRecord
	Product domain.Product
}

// DaysRemaining is stock / daily demand. Zero stock is always 0 days and
// positive stock with no demand never runs out.
func DaysRemaining(stock int64, dailyDemand float64) float64 {
	if stock <= 0 {
		return 0
	}
	if dailyDemand <= 0 {
		return math.Inf(1)
	}
	return float64(stock) / dailyDemand
}

// IsCritical reports whether stock runs out before a reorder placed today
// could arrive.
func IsCritical(stock int64, dailyDemand float64, leadTime int) bool {
	if stock <= 0 {
		return true
	}
	return DaysRemaining(stock, dailyDemand) < float64(leadTime)
}

// LowStockAlerts flags items projected to run out within daysLeft days,
// soonest first.
func LowStockAlerts(items []StockSnapshot, daysLeft float64) ([]domain.LowStockAlert, error) {
	if daysLeft < 0 || math.IsNaN(daysLeft) {
		return nil, domain.Validation("days_left must be >= 0, got %v", daysLeft)
	}

	alerts := make([]domain.LowStockAlert, 0)
	for _, item := range items {
		stock := item.Record.CurrentStock
		demand := item.Record.DailySalesBaseline
		lead := item.Product.MinReplenishTime

		days := DaysRemaining(stock, demand)
		if days > daysLeft {
			continue
		}

		alert := domain.LowStockAlert{
			StoreID:          item.Record.StoreID,
			ProductID:        item.Record.ProductID,
			ProductName:      productName(item.Product, item.Record.ProductID),
			CurrentStock:     stock,
			DailyDemandSim:   demand,
			MinReplenishTime: lead,
			DaysRemaining:    domain.Days(roundFloat(days, 2)),
		}

		switch {
		case stock <= 0:
			alert.AlertCategory = domain.AlertCritical
			alert.AlertReason = "Currently out of stock."
		case IsCritical(stock, demand, lead):
			alert.AlertCategory = domain.AlertCritical
			alert.AlertReason = fmt.Sprintf("Projected to run out in %.2f days, before the replenishment time of %d days.", days, lead)
		default:
			alert.AlertCategory = domain.AlertLow
			alert.AlertReason = fmt.Sprintf("Projected to run out in %.2f days (within %v days limit).", days, daysLeft)
		}

		alerts = append(alerts, alert)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})

	return alerts, nil
}

// OverstockAlerts flags items holding more than multiplier times their
// projected demand over days, most overstocked first.
func OverstockAlerts(items []StockSnapshot, multiplier float64, days int) ([]domain.OverstockAlert, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) {
		return nil, domain.Validation("threshold_multiplier must be > 0, got %v", multiplier)
	}
	if days <= 0 {
		return nil, domain.Validation("days_for_demand must be > 0, got %d", days)
	}

	alerts := make([]domain.OverstockAlert, 0)
	for _, item := range items {
		stock := item.Record.CurrentStock
		demand := item.Record.DailySalesBaseline
		projected := math.Max(0, demand) * float64(days)

		var ratio float64
		switch {
		case projected > 0:
			ratio = float64(stock) / projected
		case stock > 0:
			ratio = math.Inf(1)
		default:
			continue
		}
		if ratio <= multiplier {
			continue
		}

		display := OverstockRatioSentinel
		reason := fmt.Sprintf("Current stock (%d) has no projected demand over %d days.", stock, days)
		if !math.IsInf(ratio, 1) {
			display = roundFloat(ratio, 2)
			reason = fmt.Sprintf("Current stock (%d) is %.2f times the projected demand of %.2f units over %d days (threshold: %vx).",
				stock, ratio, projected, days, multiplier)
		}

		alerts = append(alerts, domain.OverstockAlert{
			StoreID:             item.Record.StoreID,
			ProductID:           item.Record.ProductID,
			ProductName:         productName(item.Product, item.Record.ProductID),
			CurrentStock:        stock,
			DailyDemandSim:      demand,
			ProjectedDemand:     roundFloat(projected, 2),
			DaysForDemand:       days,
			ThresholdMultiplier: multiplier,
			OverstockRatio:      display,
			AlertCategory:       domain.AlertOverstocked,
			AlertReason:         reason,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].OverstockRatio > alerts[j].OverstockRatio
	})

	return alerts, nil
}

// ClassifyPosition compares stock to its target. Equality is optimal.
func ClassifyPosition(stock, target int64) domain.StockPosition {
	switch {
	case stock < target:
		return domain.PositionUnderstock
	case stock > target:
		return domain.PositionOverstock
	default:
		return domain.PositionOptimal
	}
}

func productName(p domain.Product, productID string) string {
	if p.Name != "" {
		return p.Name
	}
	return "Product " + productID
}
