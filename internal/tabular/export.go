package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

var (
	lowStockHeader = []string{
		"store_id", "product_id", "product_name", "current_stock", "daily_demand_sim",
		"min_replenish_time", "days_remaining", "alert_category", "alert_reason",
	}
	overstockHeader = []string{
		"store_id", "product_id", "product_name", "current_stock", "daily_demand_sim",
		"projected_demand_for_x_days", "days_for_demand", "threshold_multiplier",
		"overstock_ratio", "alert_category", "alert_reason",
	}
	forecastHeader = []string{"date", "product_id", "store_id", "predicted_demand"}
	actionHeader   = []string{
		"action_type", "store_id", "product_id", "priority", "suggested_quantity", "reason",
		"estimated_net_profit", "associated_cost", "impact_notes", "markdown_rate",
		"source_store_id", "target_store_id", "distance_score", "cost_score",
		"historical_success_score", "final_feasibility_score", "viability_category",
		"calculated_distance_km", "calculated_transfer_cost",
	}
)

func WriteLowStockAlerts(w io.Writer, alerts []domain.LowStockAlert) error {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			a.StoreID,
			a.ProductID,
			a.ProductName,
			formatInt(a.CurrentStock),
			formatFloat(a.DailyDemandSim),
			strconv.Itoa(a.MinReplenishTime),
			a.DaysRemaining.String(),
			string(a.AlertCategory),
			a.AlertReason,
		})
	}
	return writeAll(w, lowStockHeader, rows)
}

func WriteOverstockAlerts(w io.Writer, alerts []domain.OverstockAlert) error {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			a.StoreID,
			a.ProductID,
			a.ProductName,
			formatInt(a.CurrentStock),
			formatFloat(a.DailyDemandSim),
			formatFloat(a.ProjectedDemand),
			strconv.Itoa(a.DaysForDemand),
			formatFloat(a.ThresholdMultiplier),
			formatFloat(a.OverstockRatio),
			string(a.AlertCategory),
			a.AlertReason,
		})
	}
	return writeAll(w, overstockHeader, rows)
}

func WriteForecast(w io.Writer, points []domain.ForecastPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Date.Format(time.DateOnly),
			p.ProductID,
			p.StoreID,
			formatFloat(p.PredictedDemand),
		})
	}
	return writeAll(w, forecastHeader, rows)
}

// WriteActions flattens every action type into one table. Columns that do
// not apply to an action stay empty.
func WriteActions(w io.Writer, actions []domain.RemediationAction) error {
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		base := a.Common()
		row := []string{
			string(base.ActionType),
			base.StoreID,
			base.ProductID,
			string(base.Priority),
			formatInt(base.SuggestedQuantity),
			base.Reason,
			formatFloat(base.EstimatedNetProfit),
			formatFloat(base.AssociatedCost),
			base.ImpactNotes,
			"", "", "", "", "", "", "", "", "", "",
		}

		switch act := a.(type) {
		case domain.PromoteAction:
			row[9] = formatFloat(act.MarkdownRate)
		case domain.TransferAction:
			d := act.TransferDetails
			row[10] = act.SourceStoreID
			row[11] = act.TargetStoreID
			row[12] = formatFloat(d.DistanceScore)
			row[13] = formatFloat(d.CostScore)
			row[14] = formatFloat(d.HistoricalSuccessScore)
			row[15] = strconv.Itoa(d.FinalFeasibilityScore)
			row[16] = string(d.ViabilityCategory)
			row[17] = formatFloat(d.CalculatedDistanceKm)
			row[18] = formatFloat(d.CalculatedTransferCost)
		}
		rows = append(rows, row)
	}
	return writeAll(w, actionHeader, rows)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
