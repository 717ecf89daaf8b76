// Package engine holds the pure replenishment and remediation math. Nothing
// here does I/O; callers fetch inventory, reference data and forecasts and
// pass them in.
package engine

// Policy carries every tunable constant of the engine. Zero values are
// replaced by DefaultPolicy values in Normalize.
type Policy struct {
	SafetyFactor       float64
	ReorderPaddingDays int
	ReliabilityPenalty float64
	StockingWindowDays int

	MaxTransferKm       float64
	MaxTransferCost     float64
	TransferFixedFee    float64
	TransferCostPerKm   float64
	TransferCostPerUnit float64

	HighViabilityScore      float64
	MediumViabilityScore    float64
	HighPriorityFeasibility float64
	SmallDeviationRatio     float64

	HoldingCostRate   float64
	MarkdownRate      float64
	OrderFixedCost    float64
	DefaultMarginRate float64

	LowStockDaysLeft    float64
	OverstockMultiplier float64
	OverstockDays       int
}

func DefaultPolicy() Policy {
	return Policy{
		SafetyFactor:            1.0,
		ReorderPaddingDays:      7,
		ReliabilityPenalty:      1.5,
		StockingWindowDays:      30,
		MaxTransferKm:           500,
		MaxTransferCost:         1000,
		TransferFixedFee:        25,
		TransferCostPerKm:       1.2,
		TransferCostPerUnit:     0.15,
		HighViabilityScore:      70,
		MediumViabilityScore:    40,
		HighPriorityFeasibility: 70,
		SmallDeviationRatio:     0.10,
		HoldingCostRate:         0.20,
		MarkdownRate:            0.25,
		OrderFixedCost:          15,
		DefaultMarginRate:       0.30,
		LowStockDaysLeft:        7,
		OverstockMultiplier:     3.0,
		OverstockDays:           30,
	}
}

// Normalize fills unset (non-positive) fields from DefaultPolicy. Rates
// that may legitimately be zero (fees, holding, markdown) are kept as is
// unless negative.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()

	if p.SafetyFactor <= 0 {
		p.SafetyFactor = d.SafetyFactor
	}
	if p.ReorderPaddingDays < 0 {
		p.ReorderPaddingDays = d.ReorderPaddingDays
	}
	if p.ReliabilityPenalty < 0 {
		p.ReliabilityPenalty = d.ReliabilityPenalty
	}
	if p.StockingWindowDays <= 0 {
		p.StockingWindowDays = d.StockingWindowDays
	}
	if p.MaxTransferKm <= 0 {
		p.MaxTransferKm = d.MaxTransferKm
	}
	if p.MaxTransferCost <= 0 {
		p.MaxTransferCost = d.MaxTransferCost
	}
	if p.TransferFixedFee < 0 {
		p.TransferFixedFee = d.TransferFixedFee
	}
	if p.TransferCostPerKm < 0 {
		p.TransferCostPerKm = d.TransferCostPerKm
	}
	if p.TransferCostPerUnit < 0 {
		p.TransferCostPerUnit = d.TransferCostPerUnit
	}
	if p.HighViabilityScore <= 0 {
		p.HighViabilityScore = d.HighViabilityScore
	}
	if p.MediumViabilityScore <= 0 || p.MediumViabilityScore > p.HighViabilityScore {
		p.MediumViabilityScore = minFloat(d.MediumViabilityScore, p.HighViabilityScore)
	}
	if p.HighPriorityFeasibility <= 0 {
		p.HighPriorityFeasibility = d.HighPriorityFeasibility
	}
	if p.SmallDeviationRatio < 0 {
		p.SmallDeviationRatio = d.SmallDeviationRatio
	}
	if p.HoldingCostRate < 0 {
		p.HoldingCostRate = d.HoldingCostRate
	}
	if p.MarkdownRate < 0 || p.MarkdownRate >= 1 {
		p.MarkdownRate = d.MarkdownRate
	}
	if p.OrderFixedCost < 0 {
		p.OrderFixedCost = d.OrderFixedCost
	}
	if p.DefaultMarginRate <= 0 || p.DefaultMarginRate >= 1 {
		p.DefaultMarginRate = d.DefaultMarginRate
	}
	if p.LowStockDaysLeft < 0 {
		p.LowStockDaysLeft = d.LowStockDaysLeft
	}
	if p.OverstockMultiplier <= 0 {
		p.OverstockMultiplier = d.OverstockMultiplier
	}
	if p.OverstockDays <= 0 {
		p.OverstockDays = d.OverstockDays
	}
	return p
}

// ReorderHorizon is the forecast length needed for a reorder decision.
func (p Policy) ReorderHorizon(leadTime int) int {
	h := leadTime + p.ReorderPaddingDays
	if h < 1 {
		h = 1
	}
	return h
}
