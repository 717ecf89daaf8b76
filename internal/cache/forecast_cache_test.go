package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/restock-engine/internal/config"
	"github.com/andresuchdata/restock-engine/internal/domain"
)

func TestForecastKeyDependsOnScenario(t *testing.T) {
	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	base := domain.ForecastQuery{StoreID: "S1", ProductID: "P1", Horizon: 7, StartDate: start}

	discount := 0.1
	withDiscount := base
	withDiscount.Scenario.Discount = &discount

	if ForecastKey(base) == ForecastKey(withDiscount) {
		t.Fatalf("expected scenario to change the cache key")
	}

	sunny, shouting := "Sunny", " SUNNY "
	a, b := base, base
	a.Scenario.Weather = &sunny
	b.Scenario.Weather = &shouting
	if ForecastKey(a) != ForecastKey(b) {
		t.Fatalf("expected weather to be normalized")
	}

	nextDay := base
	nextDay.StartDate = start.AddDate(0, 0, 1)
	if ForecastKey(base) == ForecastKey(nextDay) {
		t.Fatalf("expected start date to change the cache key")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	q := domain.ForecastQuery{StoreID: "S1", ProductID: "P1", Horizon: 1}
	if err := c.Set(context.Background(), q, []domain.ForecastPoint{{PredictedDemand: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(context.Background(), q); ok || err != nil {
		t.Fatalf("expected a miss from the noop cache, got ok=%v err=%v", ok, err)
	}
}

func TestForecastKeysLiveUnderInvalidationPrefix(t *testing.T) {
	q := domain.ForecastQuery{StoreID: "S1", ProductID: "P1", Horizon: 30, StartDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}
	if key := ForecastKey(q); !strings.HasPrefix(key, forecastKeyPrefix+":") {
		t.Fatalf("expected %q to start with %q", key, forecastKeyPrefix)
	}
}
