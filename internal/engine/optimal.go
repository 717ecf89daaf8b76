package engine

import (
	"fmt"
	"math"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

type StockingInput struct {
	Record           domain.InventoryRecord
	Product          domain.Product
	Demand           []float64
	LeadTimeOverride int
}

// ReliabilityFactor maps supplier reliability in [0,1] to a safety stock
// multiplier: 1.0 for a perfect supplier, growing linearly with the
// configured penalty as reliability drops.
func (p Policy) ReliabilityFactor(reliability float64) float64 {
	if math.IsNaN(reliability) {
		reliability = 0
	}
	return 1 + (1-clamp(reliability, 0, 1))*p.ReliabilityPenalty
}

// TargetLevel is safety stock plus expected consumption over the effective
// lead time, scaled from the window total.
func (p Policy) TargetLevel(windowDemand float64, effectiveLead int, safetyStock int64) int64 {
	perDay := math.Max(0, windowDemand) / float64(p.StockingWindowDays)
	return ceilUnits(perDay*float64(effectiveLead)) + safetyStock
}

// OptimalStocking derives the target inventory level for one item and
// classifies its current position against it.
func (p Policy) OptimalStocking(in StockingInput) (domain.OptimalStockingResult, error) {
	lead := in.Product.MinReplenishTime
	effective := lead + in.LeadTimeOverride
	if effective < 0 {
		return domain.OptimalStockingResult{}, domain.Validation(
			"effective lead time must be >= 0 (min_replenish_time %d + override %d)", lead, in.LeadTimeOverride)
	}

	base := math.Max(0, in.Product.BaseSafetyStock)
	factor := p.ReliabilityFactor(in.Product.SupplierCategoryReliability)
	safety := ceilUnits(base * factor)
	total := sum(in.Demand)
	target := p.TargetLevel(total, effective, safety)
	stock := in.Record.CurrentStock
	position := ClassifyPosition(stock, target)

	res := domain.OptimalStockingResult{
		StoreID:                     in.Record.StoreID,
		ProductID:                   in.Record.ProductID,
		CurrentStock:                stock,
		BaseSafetyStock:             base,
		SupplierCategoryReliability: in.Product.SupplierCategoryReliability,
		ReliabilityFactor:           roundFloat(factor, 4),
		CalculatedSafetyStock:       safety,
		Total30DayForecastedDemand:  roundFloat(total, 2),
		TargetInventoryLevel:        target,
		MinReplenishTime:            lead,
		LeadTimeOverride:            in.LeadTimeOverride,
		EffectiveLeadTime:           effective,
		StockPosition:               position,
	}

	switch position {
	case domain.PositionUnderstock:
		res.Notes = fmt.Sprintf("Current stock of %d is %d units below the target of %d.", stock, target-stock, target)
	case domain.PositionOverstock:
		res.Notes = fmt.Sprintf("Current stock of %d is %d units above the target of %d.", stock, stock-target, target)
	default:
		res.Notes = fmt.Sprintf("Current stock matches the target of %d.", target)
	}

	return res, nil
}
