package engine

import (
	"math"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	distanceWeight = 0.40
	costWeight     = 0.30
	historyWeight  = 0.30

	neutralHistoryScore = 50.0
)

type TransferInput struct {
	Source    domain.Store
	Target    domain.Store
	ProductID string
	Quantity  int64
	History   domain.TransferHistory
}

// HaversineKm is the great-circle distance between two stores.
func HaversineKm(a, b domain.Store) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// TransferCost is a fixed fee plus freight by distance and handling by unit.
func (p Policy) TransferCost(distanceKm float64, quantity int64) float64 {
	return p.TransferFixedFee + distanceKm*p.TransferCostPerKm + float64(quantity)*p.TransferCostPerUnit
}

// FeasibilityScore combines the three sub-scores with fixed weights.
func FeasibilityScore(distanceScore, costScore, historyScore float64) int {
	score := distanceScore*distanceWeight + costScore*costWeight + historyScore*historyWeight
	return int(math.Round(clamp(score, 0, 100)))
}

// Viability bands a final score using the configured thresholds.
func (p Policy) Viability(score int) domain.Viability {
	switch s := float64(score); {
	case s >= p.HighViabilityScore:
		return domain.ViabilityHigh
	case s >= p.MediumViabilityScore:
		return domain.ViabilityMedium
	default:
		return domain.ViabilityLow
	}
}

// HistoryScore is the share of past transfers on the route that resolved
// the shortage, or the neutral midpoint without history.
func HistoryScore(h domain.TransferHistory) float64 {
	if h.Transfers <= 0 {
		return neutralHistoryScore
	}
	resolved := math.Min(float64(h.Resolved), float64(h.Transfers))
	return 100 * math.Max(0, resolved) / float64(h.Transfers)
}

// ScoreTransfer rates moving Quantity units from Source to Target.
func (p Policy) ScoreTransfer(in TransferInput) (domain.TransferDetails, error) {
	if in.Source.StoreID == in.Target.StoreID {
		return domain.TransferDetails{}, domain.Validation("source and target store must differ, both are %q", in.Source.StoreID)
	}
	if in.Quantity <= 0 {
		return domain.TransferDetails{}, domain.Validation("transfer quantity must be > 0, got %d", in.Quantity)
	}

	km := HaversineKm(in.Source, in.Target)
	cost := p.TransferCost(km, in.Quantity)

	distanceScore := roundFloat(100*math.Max(0, 1-km/p.MaxTransferKm), 2)
	costScore := roundFloat(100*math.Max(0, 1-cost/p.MaxTransferCost), 2)
	historyScore := roundFloat(HistoryScore(in.History), 2)
	final := FeasibilityScore(distanceScore, costScore, historyScore)

	return domain.TransferDetails{
		DistanceScore:          distanceScore,
		CostScore:              costScore,
		HistoricalSuccessScore: historyScore,
		FinalFeasibilityScore:  final,
		ViabilityCategory:      p.Viability(final),
		CalculatedDistanceKm:   roundFloat(km, 2),
		CalculatedTransferCost: roundFloat(cost, 2),
	}, nil
}
