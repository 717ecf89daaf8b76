package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

func TestFeasibilityScoreWeights(t *testing.T) {
	cases := []struct {
		distance, cost, history float64
		want                    int
	}{
		{80, 60, 100, 80},
		{60, 80, 100, 78},
		{0, 0, 0, 0},
		{100, 100, 100, 100},
		{50, 50, 50, 50},
		{12.5, 0, 0, 5},
	}
	for _, c := range cases {
		if got := FeasibilityScore(c.distance, c.cost, c.history); got != c.want {
			t.Fatalf("(%v,%v,%v): expected %d, got %d", c.distance, c.cost, c.history, c.want, got)
		}
	}
}

func TestFeasibilityScoreBounded(t *testing.T) {
	for d := 0.0; d <= 100; d += 12.5 {
		for c := 0.0; c <= 100; c += 12.5 {
			for h := 0.0; h <= 100; h += 12.5 {
				score := FeasibilityScore(d, c, h)
				if score < 0 || score > 100 {
					t.Fatalf("score out of range for (%v,%v,%v): %d", d, c, h, score)
				}
			}
		}
	}
}

func TestScoreTransferNearbyStores(t *testing.T) {
	details, err := DefaultPolicy().ScoreTransfer(TransferInput{
		Source:    domain.Store{StoreID: "S1", Latitude: -6.2, Longitude: 106.8},
		Target:    domain.Store{StoreID: "S2", Latitude: -6.2, Longitude: 106.8},
		ProductID: "P1",
		Quantity:  100,
	})
	if err != nil {
		t.Fatalf("score transfer: %v", err)
	}
	// cost 25 + 0 km + 100 * 0.15 = 40
	if details.CalculatedTransferCost != 40 || details.CostScore != 96 {
		t.Fatalf("unexpected cost %v / score %v", details.CalculatedTransferCost, details.CostScore)
	}
	if details.DistanceScore != 100 || details.HistoricalSuccessScore != 50 {
		t.Fatalf("unexpected distance %v / history %v", details.DistanceScore, details.HistoricalSuccessScore)
	}
	if details.FinalFeasibilityScore != 84 || details.ViabilityCategory != domain.ViabilityHigh {
		t.Fatalf("expected 84/high, got %d/%s", details.FinalFeasibilityScore, details.ViabilityCategory)
	}
}

func TestScoreTransferFarStoresAreLowViability(t *testing.T) {
	details, err := DefaultPolicy().ScoreTransfer(TransferInput{
		Source:   domain.Store{StoreID: "S1", Latitude: 0, Longitude: 0},
		Target:   domain.Store{StoreID: "S9", Latitude: 0, Longitude: 10},
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("score transfer: %v", err)
	}
	if details.DistanceScore != 0 || details.CostScore != 0 {
		t.Fatalf("expected zero distance and cost scores, got %+v", details)
	}
	if details.FinalFeasibilityScore != 15 || details.ViabilityCategory != domain.ViabilityLow {
		t.Fatalf("expected 15/low, got %d/%s", details.FinalFeasibilityScore, details.ViabilityCategory)
	}
}

func TestScoreTransferValidation(t *testing.T) {
	store := domain.Store{StoreID: "S1"}
	if _, err := DefaultPolicy().ScoreTransfer(TransferInput{Source: store, Target: store, Quantity: 1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for same store, got %v", err)
	}
	if _, err := DefaultPolicy().ScoreTransfer(TransferInput{Source: store, Target: domain.Store{StoreID: "S2"}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestHistoryScore(t *testing.T) {
	if got := HistoryScore(domain.TransferHistory{Transfers: 4, Resolved: 3}); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if got := HistoryScore(domain.TransferHistory{}); got != 50 {
		t.Fatalf("expected neutral 50, got %v", got)
	}
}

func TestHaversineOneDegreeLatitude(t *testing.T) {
	km := HaversineKm(domain.Store{Latitude: 0}, domain.Store{Latitude: 1})
	if math.Abs(km-111.19) > 0.5 {
		t.Fatalf("expected about 111 km, got %v", km)
	}
}

func TestViabilityBandsAreConfigurable(t *testing.T) {
	p := DefaultPolicy()
	if p.Viability(70) != domain.ViabilityHigh || p.Viability(69) != domain.ViabilityMedium || p.Viability(39) != domain.ViabilityLow {
		t.Fatalf("unexpected default banding")
	}
	p.HighViabilityScore = 90
	p.MediumViabilityScore = 60
	if p.Viability(70) != domain.ViabilityMedium || p.Viability(59) != domain.ViabilityLow {
		t.Fatalf("custom bands not applied")
	}
}
