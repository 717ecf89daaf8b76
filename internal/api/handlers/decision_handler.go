package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/service"
	"github.com/andresuchdata/restock-engine/internal/tabular"
	"github.com/gin-gonic/gin"
)

const (
	defaultForecastDays = 7
	maxForecastDays     = 365
)

type DecisionHandler struct {
	service *service.DecisionService
}

func NewDecisionHandler(service *service.DecisionService) *DecisionHandler {
	return &DecisionHandler{service: service}
}

func (h *DecisionHandler) GetLowStockAlerts(c *gin.Context) {
	policy := h.service.Policy()
	daysLeft, err := queryFloat(c, "days_left", policy.LowStockDaysLeft)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts, err := h.service.GetLowStockAlerts(c.Request.Context(), daysLeft, c.Query("store_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsCSV(c) {
		writeCSV(c, "low_stock_alerts.csv", func(w gin.ResponseWriter) error {
			return tabular.WriteLowStockAlerts(w, alerts)
		})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *DecisionHandler) GetOverstockAlerts(c *gin.Context) {
	policy := h.service.Policy()
	multiplier, err := queryFloat(c, "threshold_multiplier", policy.OverstockMultiplier)
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := queryInt(c, "days_for_demand", policy.OverstockDays)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts, err := h.service.GetOverstockAlerts(c.Request.Context(), multiplier, days, c.Query("store_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsCSV(c) {
		writeCSV(c, "overstock_alerts.csv", func(w gin.ResponseWriter) error {
			return tabular.WriteOverstockAlerts(w, alerts)
		})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *DecisionHandler) GetForecast(c *gin.Context) {
	days, err := queryInt(c, "days", defaultForecastDays)
	if err != nil {
		respondError(c, err)
		return
	}
	if days > maxForecastDays {
		badRequest(c, "days must be <= %d, got %d", maxForecastDays, days)
		return
	}
	scenario, err := parseScenario(c)
	if err != nil {
		respondError(c, err)
		return
	}

	points, err := h.service.GetForecast(c.Request.Context(), c.Param("store"), c.Param("product"), days, scenario)
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsCSV(c) {
		name := fmt.Sprintf("forecast_%s_%s.csv", c.Param("store"), c.Param("product"))
		writeCSV(c, name, func(w gin.ResponseWriter) error {
			return tabular.WriteForecast(w, points)
		})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *DecisionHandler) GetReorderRecommendation(c *gin.Context) {
	rec, err := h.service.GetReorderRecommendation(c.Request.Context(), c.Param("store"), c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *DecisionHandler) GetOptimalStocking(c *gin.Context) {
	override, err := queryInt(c, "lead_time_override", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.service.GetOptimalStocking(c.Request.Context(), c.Param("store"), c.Param("product"), override)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DecisionHandler) GetRemediationActions(c *gin.Context) {
	actions, err := h.service.GetRemediationActions(c.Request.Context(), c.Query("store_id"), c.Query("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsCSV(c) {
		writeCSV(c, "remediation_actions.csv", func(w gin.ResponseWriter) error {
			return tabular.WriteActions(w, actions)
		})
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *DecisionHandler) GetTransferFeasibility(c *gin.Context) {
	source := strings.TrimSpace(c.Query("source_store_id"))
	target := strings.TrimSpace(c.Query("target_store_id"))
	if source == "" || target == "" {
		badRequest(c, "source_store_id and target_store_id are required")
		return
	}
	qty, err := queryInt(c, "quantity", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.service.GetTransferFeasibility(c.Request.Context(), source, target, c.Query("product_id"), int64(qty))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("invalid %s %q: must be an integer", name, raw)
	}
	return v, nil
}

func queryFloat(c *gin.Context, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := parseFinite(raw)
	if err != nil {
		return 0, domain.Validation("invalid %s %q: must be a finite number", name, raw)
	}
	return v, nil
}

func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseScenario reads the optional what-if inputs. Absent parameters stay
// nil so the forecaster uses its baseline.
func parseScenario(c *gin.Context) (domain.ScenarioOverride, error) {
	var s domain.ScenarioOverride

	floats := []struct {
		name string
		dst  **float64
	}{
		{"discount", &s.Discount},
		{"price", &s.Price},
		{"competitor_price", &s.CompetitorPrice},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(c.Query(f.name))
		if raw == "" {
			continue
		}
		v, err := parseFinite(raw)
		if err != nil {
			return s, domain.Validation("invalid %s %q: must be a finite number", f.name, raw)
		}
		*f.dst = &v
	}

	if v := strings.TrimSpace(c.Query("holiday_type")); v != "" {
		s.HolidayType = &v
	}
	if v := strings.TrimSpace(c.Query("weather")); v != "" {
		s.Weather = &v
	}
	return s, nil
}
