package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func stubForecaster(values ...float64) ForecasterFunc {
	return func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		points := make([]domain.ForecastPoint, len(values))
		for i, v := range values {
			points[i] = domain.ForecastPoint{PredictedDemand: v}
		}
		return points, nil
	}
}

func newTestAdapter(f Forecaster) *Adapter {
	return NewAdapter(f, nil, 50*time.Millisecond).WithClock(func() time.Time { return fixedNow })
}

func TestForecastRejectsNonPositiveHorizon(t *testing.T) {
	called := false
	adapter := newTestAdapter(ForecasterFunc(func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		called = true
		return nil, nil
	}))

	for _, h := range []int{0, -3} {
		if _, err := adapter.Forecast(context.Background(), "S1", "P1", h, domain.ScenarioOverride{}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("horizon %d: expected validation error, got %v", h, err)
		}
	}
	if called {
		t.Fatalf("forecaster must not be called for an invalid horizon")
	}
}

func TestForecastDatesStartTomorrow(t *testing.T) {
	series, err := newTestAdapter(stubForecaster(1, 2, 3)).Forecast(context.Background(), "S1", "P1", 3, domain.ScenarioOverride{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", series.Len())
	}

	points := series.Collect()
	for i, p := range points {
		want := time.Date(2026, 10, 20+i, 0, 0, 0, 0, time.UTC)
		if !p.Date.Equal(want) {
			t.Fatalf("point %d: expected %s, got %s", i, want, p.Date)
		}
		if p.StoreID != "S1" || p.ProductID != "P1" {
			t.Fatalf("point %d: ids not stamped: %+v", i, p)
		}
	}
}

func TestForecastClampsAndTruncates(t *testing.T) {
	series, err := newTestAdapter(stubForecaster(-4, 2, 5, 9)).Forecast(context.Background(), "S1", "P1", 3, domain.ScenarioOverride{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	demand := series.Demand()
	if len(demand) != 3 || demand[0] != 0 || demand[1] != 2 || demand[2] != 5 {
		t.Fatalf("unexpected demand %v", demand)
	}
}

func TestForecastShortResultIsUnavailable(t *testing.T) {
	_, err := newTestAdapter(stubForecaster(1, 2)).Forecast(context.Background(), "S1", "P1", 5, domain.ScenarioOverride{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestForecastTimeout(t *testing.T) {
	slow := ForecasterFunc(func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := newTestAdapter(slow).Forecast(context.Background(), "S1", "P1", 3, domain.ScenarioOverride{})
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected upstream timeout, got %v", err)
	}
}

func TestForecastErrorMapping(t *testing.T) {
	unknown := ForecasterFunc(func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		return nil, domain.NotFound("inventory %s/%s", q.StoreID, q.ProductID)
	})
	if _, err := newTestAdapter(unknown).Forecast(context.Background(), "S1", "P9", 3, domain.ScenarioOverride{}); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Fatalf("expected unknown product, got %v", err)
	}

	broken := ForecasterFunc(func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		return nil, errors.New("connection refused")
	})
	if _, err := newTestAdapter(broken).Forecast(context.Background(), "S1", "P1", 3, domain.ScenarioOverride{}); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestForecastPassesScenarioVerbatim(t *testing.T) {
	var seen domain.ScenarioOverride
	recorder := ForecasterFunc(func(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
		seen = q.Scenario
		return make([]domain.ForecastPoint, q.Horizon), nil
	})

	discount := -0.2
	if _, err := newTestAdapter(recorder).Forecast(context.Background(), "S1", "P1", 2, domain.ScenarioOverride{Discount: &discount}); err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if seen.Discount == nil || *seen.Discount != -0.2 {
		t.Fatalf("expected negative discount to pass through, got %v", seen.Discount)
	}
	if seen.Weather != nil {
		t.Fatalf("expected unset fields to stay unset")
	}
}

func TestSeriesIsSinglePass(t *testing.T) {
	series, err := newTestAdapter(stubForecaster(1, 1)).Forecast(context.Background(), "S1", "P1", 2, domain.ScenarioOverride{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if _, ok := series.Next(); !ok {
		t.Fatalf("expected a first point")
	}
	if series.Len() != 1 {
		t.Fatalf("expected 1 point left, got %d", series.Len())
	}
	if got := len(series.Collect()); got != 1 {
		t.Fatalf("expected 1 remaining point, got %d", got)
	}
	if series.Len() != 0 {
		t.Fatalf("expected a drained series, got %d left", series.Len())
	}
	if _, ok := series.Next(); ok {
		t.Fatalf("expected exhausted series")
	}
	if got := len(series.Collect()); got != 0 {
		t.Fatalf("expected no points on a second pass, got %d", got)
	}
}

type stubInventory map[string]domain.InventoryRecord

func (s stubInventory) GetInventory(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error) {
	rec, ok := s[storeID+"/"+productID]
	if !ok {
		return nil, domain.NotFound("inventory %s/%s", storeID, productID)
	}
	return &rec, nil
}

func TestBaselineForecasterAppliesScenario(t *testing.T) {
	inv := stubInventory{"S1/P1": {StoreID: "S1", ProductID: "P1", DailySalesBaseline: 4}}
	adapter := newTestAdapter(NewBaselineForecaster(inv))

	series, err := adapter.Forecast(context.Background(), "S1", "P1", 5, domain.ScenarioOverride{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, d := range series.Demand() {
		if d != 4 {
			t.Fatalf("expected flat baseline 4, got %v", d)
		}
	}

	discount := 0.5
	series, err = adapter.Forecast(context.Background(), "S1", "P1", 1, domain.ScenarioOverride{Discount: &discount})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if d := series.Demand()[0]; d != 6 {
		t.Fatalf("expected discounted demand 6, got %v", d)
	}

	if _, err := adapter.Forecast(context.Background(), "S2", "P1", 1, domain.ScenarioOverride{}); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Fatalf("expected unknown product, got %v", err)
	}
}

func TestHTTPForecaster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req httpForecastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ProductID == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"date":"2026-10-20","predicted_demand":3.5},{"date":"2026-10-21","predicted_demand":4}]}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(NewHTTPForecaster(srv.URL, srv.Client()))

	series, err := adapter.Forecast(context.Background(), "S1", "P1", 2, domain.ScenarioOverride{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	demand := series.Demand()
	if len(demand) != 2 || demand[0] != 3.5 || demand[1] != 4 {
		t.Fatalf("unexpected demand %v", demand)
	}

	if _, err := adapter.Forecast(context.Background(), "S1", "missing", 2, domain.ScenarioOverride{}); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Fatalf("expected unknown product, got %v", err)
	}
}
