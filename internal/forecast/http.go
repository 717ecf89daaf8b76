package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/pkg/errors"
)

// HTTPForecaster posts queries to a remote model service.
type HTTPForecaster struct {
	endpoint string
	client   *http.Client
}

func NewHTTPForecaster(endpoint string, client *http.Client) *HTTPForecaster {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPForecaster{endpoint: endpoint, client: client}
}

type httpForecastRequest struct {
	StoreID   string                  `json:"store_id"`
	ProductID string                  `json:"product_id"`
	Horizon   int                     `json:"horizon"`
	StartDate string                  `json:"start_date"`
	Scenario  domain.ScenarioOverride `json:"scenario"`
}

type httpForecastResponse struct {
	Predictions []struct {
		Date            string  `json:"date"`
		PredictedDemand float64 `json:"predicted_demand"`
	} `json:"predictions"`
}

func (f *HTTPForecaster) Forecast(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, error) {
	body, err := json.Marshal(httpForecastRequest{
		StoreID:   q.StoreID,
		ProductID: q.ProductID,
		Horizon:   q.Horizon,
		StartDate: q.StartDate.Format("2006-01-02"),
		Scenario:  q.Scenario,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode forecast request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build forecast request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call forecaster")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.UnknownProduct("forecaster has no history for store %s product %s", q.StoreID, q.ProductID)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.Validation("forecaster rejected query: %s", bytes.TrimSpace(msg))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("forecaster returned status %d", resp.StatusCode)
	}

	var decoded httpForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decode forecast response")
	}

	points := make([]domain.ForecastPoint, 0, len(decoded.Predictions))
	for i, p := range decoded.Predictions {
		date := q.StartDate.AddDate(0, 0, i)
		if parsed, err := time.Parse("2006-01-02", p.Date); err == nil {
			date = parsed
		}
		points = append(points, domain.ForecastPoint{
			Date:            date,
			StoreID:         q.StoreID,
			ProductID:       q.ProductID,
			PredictedDemand: p.PredictedDemand,
		})
	}
	return points, nil
}
