package forecast

import (
	"context"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

const holidayLift = 1.2

// InventoryReader is the slice of the inventory store the baseline needs.
type InventoryReader interface {
	GetInventory(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error)
}

// BaselineForecaster projects each record's historical daily sales flat
// across the horizon. A discount lifts demand proportionally and a named
// holiday adds a fixed lift; other scenario fields are ignored.
type BaselineForecaster struct {
	inventory InventoryReader
}

func NewBaselineForecaster(inventory InventoryReader) *BaselineForecaster {
	return &BaselineForecaster{inventory: inventory}
}

func (f *BaselineForecaster) Forecast(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
	rec, err := f.inventory.GetInventory(ctx, q.StoreID, q.ProductID)
	if err != nil {
		return nil, err
	}

	daily := rec.DailySalesBaseline * scenarioLift(q.Scenario)

	points := make([]domain.ForecastPoint, q.Horizon)
	for i := range points {
		points[i] = domain.ForecastPoint{
			Date:            q.StartDate.AddDate(0, 0, i),
			StoreID:         q.StoreID,
			ProductID:       q.ProductID,
			PredictedDemand: daily,
		}
	}
	return points, nil
}

func scenarioLift(s domain.ScenarioOverride) float64 {
	lift := 1.0
	if s.Discount != nil {
		lift *= 1 + *s.Discount
	}
	if s.HolidayType != nil {
		h := strings.ToLower(strings.TrimSpace(*s.HolidayType))
		if h != "" && h != "none" {
			lift *= holidayLift
		}
	}
	if lift < 0 {
		return 0
	}
	return lift
}
