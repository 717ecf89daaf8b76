// Package forecast wraps the external demand model behind a single-method
// interface and normalizes what it returns.
package forecast

import (
	"context"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

// Forecaster predicts daily demand. Implementations return one point per
// day starting at q.StartDate and report unknown pairs with
// domain.ErrUnknownProduct.
type Forecaster interface {
	Forecast(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error)
}

// ForecasterFunc adapts a function to Forecaster.
type ForecasterFunc func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error)

func (f ForecasterFunc) Forecast(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
	return f(ctx, q)
}

// Series yields forecast points in date order. It is single-pass: once
// drained it stays empty.
type Series struct {
	points []domain.ForecastPoint
	next   int
}

func newSeries(points []domain.ForecastPoint) *Series {
	return &Series{points: points}
}

// Next returns the next point, or false when the series is exhausted.
func (s *Series) Next() (domain.ForecastPoint, bool) {
	if s.next >= len(s.points) {
		return domain.ForecastPoint{}, false
	}
	p := s.points[s.next]
	s.next++
	return p, true
}

// Len is the number of points not yet consumed.
func (s *Series) Len() int { return len(s.points) - s.next }

// Collect drains the remaining points.
func (s *Series) Collect() []domain.ForecastPoint {
	out := make([]domain.ForecastPoint, 0, s.Len())
	for {
		p, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// Demand drains the remaining points and returns their predicted demand.
func (s *Series) Demand() []float64 {
	out := make([]float64, 0, s.Len())
	for {
		p, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, p.PredictedDemand)
	}
}
