package forecast

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/andresuchdata/restock-engine/internal/cache"
	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/rs/zerolog/log"
)

// Adapter calls a Forecaster under a timeout and guarantees the result has
// exactly the requested number of non-negative points dated from tomorrow.
type Adapter struct {
	forecaster Forecaster
	cache      cache.ForecastCache
	timeout    time.Duration
	now        func() time.Time
}

func NewAdapter(f Forecaster, c cache.ForecastCache, timeout time.Duration) *Adapter {
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	return &Adapter{forecaster: f, cache: c, timeout: timeout, now: time.Now}
}

// WithClock replaces the clock; used by tests.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.now = now
	return a
}

// Today is the adapter's notion of the current date.
func (a *Adapter) Today() time.Time {
	return domain.DateOnly(a.now())
}

func (a *Adapter) Forecast(ctx context.Context, storeID, productID string, horizon int, scenario domain.ScenarioOverride) (*Series, error) {
	if horizon <= 0 {
		return nil, domain.Validation("horizon must be > 0, got %d", horizon)
	}

	q := domain.ForecastQuery{
		StoreID:   storeID,
		ProductID: productID,
		Horizon:   horizon,
		StartDate: a.Today().AddDate(0, 0, 1),
		Scenario:  scenario,
	}

	if points, ok, err := a.cache.Get(ctx, q); err == nil && ok && len(points) == horizon {
		return newSeries(points), nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.forecaster.Forecast(callCtx, q)
	if err != nil {
		return nil, classifyError(callCtx, err, q)
	}

	points, err := normalize(raw, q)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, q, points); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}

	return newSeries(points), nil
}

func classifyError(ctx context.Context, err error, q domain.ForecastQuery) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.UpstreamTimeout(err, "forecaster timed out for %s/%s", q.StoreID, q.ProductID)
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindUnknownProduct:
		return domain.UnknownProduct("no demand history for store %s product %s", q.StoreID, q.ProductID)
	case domain.KindInternal:
		return domain.UpstreamUnavailable(err, "forecaster unavailable")
	default:
		return err
	}
}

// normalize stamps dates and ids, drops extra points and clamps negative
// or NaN predictions to zero.
func normalize(raw []domain.ForecastPoint, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
	if len(raw) < q.Horizon {
		return nil, domain.UpstreamUnavailable(nil, "forecaster returned %d of %d points", len(raw), q.Horizon)
	}

	points := make([]domain.ForecastPoint, q.Horizon)
	for i := range points {
		demand := raw[i].PredictedDemand
		if math.IsNaN(demand) || demand < 0 {
			demand = 0
		}
		points[i] = domain.ForecastPoint{
			Date:            q.StartDate.AddDate(0, 0, i),
			StoreID:         q.StoreID,
			ProductID:       q.ProductID,
			PredictedDemand: demand,
		}
	}
	return points, nil
}
