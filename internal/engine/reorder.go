package engine

import (
	"fmt"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

type ReorderInput struct {
	Record   domain.InventoryRecord
	LeadTime int
	Demand   []float64
	Today    time.Time
}

// Reorder computes safety stock, reorder point and order quantity from the
// forecast demand of one (store, product).
func (p Policy) Reorder(in ReorderInput) (domain.ReorderRecommendation, error) {
	if in.LeadTime < 0 {
		return domain.ReorderRecommendation{}, domain.Validation("min_replenish_time must be >= 0, got %d", in.LeadTime)
	}

	rec := domain.ReorderRecommendation{
		StoreID:              in.Record.StoreID,
		ProductID:            in.Record.ProductID,
		CurrentStock:         in.Record.CurrentStock,
		MinReplenishTimeDays: in.LeadTime,
	}

	if sum(in.Demand) <= 0 {
		rec.Notes = "No reorder suggested: no demand signal in the forecast."
		return rec, nil
	}

	avg := mean(in.Demand)
	leadDemand := avg * float64(in.LeadTime)

	rec.AvgDailyDemand = roundFloat(avg, 2)
	rec.SafetyStockUnits = ceilUnits(avg * p.SafetyFactor)
	rec.ReorderPointUnits = ceilUnits(leadDemand) + rec.SafetyStockUnits
	rec.ReorderNeeded = rec.CurrentStock <= rec.ReorderPointUnits

	if !rec.ReorderNeeded {
		rec.Notes = fmt.Sprintf("Stock of %d is above the reorder point of %d units.",
			rec.CurrentStock, rec.ReorderPointUnits)
		return rec, nil
	}

	gap := float64(rec.ReorderPointUnits - rec.CurrentStock)
	rec.SuggestedOrderQuantity = ceilUnits(maxFloat(gap, leadDemand))

	today := domain.DateOnly(in.Today)
	delivery := today.AddDate(0, 0, in.LeadTime)
	rec.SuggestedOrderDate = &today
	rec.SuggestedDeliveryDate = &delivery
	rec.Notes = fmt.Sprintf("Stock of %d is at or below the reorder point of %d units; order %d units today for delivery in %d days.",
		rec.CurrentStock, rec.ReorderPointUnits, rec.SuggestedOrderQuantity, in.LeadTime)

	return rec, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
