package domain

import (
	"math"
	"strconv"
	"time"
)

// InventoryRecord is the on-hand position of one product in one store.
type InventoryRecord struct {
	StoreID            string    `json:"store_id" db:"store_id"`
	ProductID          string    `json:"product_id" db:"product_id"`
	CurrentStock       int64     `json:"current_stock" db:"current_stock"`
	DailySalesBaseline float64   `json:"daily_sales_baseline" db:"daily_sales_baseline"`
	LastUpdated        time.Time `json:"last_updated" db:"last_updated"`
}

func (r InventoryRecord) Key() InventoryKey {
	return InventoryKey{StoreID: r.StoreID, ProductID: r.ProductID}
}

// InventoryKey identifies a (store, product) pair.
type InventoryKey struct {
	StoreID   string
	ProductID string
}

func (k InventoryKey) String() string {
	return k.StoreID + "/" + k.ProductID
}

// InventoryFilter narrows inventory listings; empty fields match everything.
type InventoryFilter struct {
	StoreID   string
	ProductID string
}

func (f InventoryFilter) Matches(r InventoryRecord) bool {
	if f.StoreID != "" && f.StoreID != r.StoreID {
		return false
	}
	if f.ProductID != "" && f.ProductID != r.ProductID {
		return false
	}
	return true
}

// Product is static reference data for a sellable item.
type Product struct {
	ProductID                   string  `json:"product_id" db:"product_id"`
	Name                        string  `json:"name" db:"name"`
	Category                    string  `json:"category" db:"category"`
	Price                       float64 `json:"price" db:"price"`
	UnitCost                    float64 `json:"unit_cost" db:"unit_cost"`
	MinReplenishTime            int     `json:"min_replenish_time" db:"min_replenish_time"`
	BaseSafetyStock             float64 `json:"base_safety_stock" db:"base_safety_stock"`
	SupplierCategoryReliability float64 `json:"supplier_category_reliability" db:"supplier_category_reliability"`
}

// Store is a physical location.
type Store struct {
	StoreID   string  `json:"store_id" db:"store_id"`
	Name      string  `json:"name" db:"name"`
	Region    string  `json:"region" db:"region"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// TransferHistory counts past transfers on a route and how many of them
// fixed the shortage at the target without it recurring.
type TransferHistory struct {
	SourceStoreID string `json:"source_store_id" db:"source_store_id"`
	TargetStoreID string `json:"target_store_id" db:"target_store_id"`
	ProductID     string `json:"product_id,omitempty" db:"product_id"`
	Transfers     int    `json:"transfers" db:"transfers"`
	Resolved      int    `json:"resolved" db:"resolved"`
}

// ForecastPoint is one day of predicted demand.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	ProductID       string    `json:"product_id"`
	StoreID         string    `json:"store_id"`
	PredictedDemand float64   `json:"predicted_demand"`
}

// ScenarioOverride holds optional what-if inputs. A nil field means the
// forecaster falls back to its historical baseline.
type ScenarioOverride struct {
	Discount        *float64 `json:"discount,omitempty"`
	HolidayType     *string  `json:"holiday_type,omitempty"`
	Weather         *string  `json:"weather,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	CompetitorPrice *float64 `json:"competitor_price,omitempty"`
}

func (s ScenarioOverride) IsBaseline() bool {
	return s.Discount == nil && s.HolidayType == nil && s.Weather == nil &&
		s.Price == nil && s.CompetitorPrice == nil
}

// ForecastQuery is what the adapter hands to a Forecaster.
type ForecastQuery struct {
	StoreID   string           `json:"store_id"`
	ProductID string           `json:"product_id"`
	Horizon   int              `json:"horizon"`
	StartDate time.Time        `json:"start_date"`
	Scenario  ScenarioOverride `json:"scenario"`
}

type ReorderRecommendation struct {
	StoreID                string     `json:"store_id"`
	ProductID              string     `json:"product_id"`
	CurrentStock           int64      `json:"current_stock"`
	MinReplenishTimeDays   int        `json:"min_replenish_time_days"`
	AvgDailyDemand         float64    `json:"average_daily_forecasted_demand"`
	SafetyStockUnits       int64      `json:"safety_stock_units"`
	ReorderPointUnits      int64      `json:"reorder_point_units"`
	ReorderNeeded          bool       `json:"reorder_needed"`
	SuggestedOrderQuantity int64      `json:"suggested_order_quantity"`
	SuggestedOrderDate     *time.Time `json:"suggested_order_date,omitempty"`
	SuggestedDeliveryDate  *time.Time `json:"suggested_delivery_date,omitempty"`
	Notes                  string     `json:"notes"`
}

type OptimalStockingResult struct {
	StoreID                     string        `json:"store_id"`
	ProductID                   string        `json:"product_id"`
	CurrentStock                int64         `json:"current_stock"`
	BaseSafetyStock             float64       `json:"base_safety_stock"`
	SupplierCategoryReliability float64       `json:"supplier_category_reliability"`
	ReliabilityFactor           float64       `json:"reliability_factor"`
	CalculatedSafetyStock       int64         `json:"calculated_safety_stock"`
	Total30DayForecastedDemand  float64       `json:"total_30_day_forecasted_demand"`
	TargetInventoryLevel        int64         `json:"target_inventory_level"`
	MinReplenishTime            int           `json:"min_replenish_time"`
	LeadTimeOverride            int           `json:"lead_time_override"`
	EffectiveLeadTime           int           `json:"effective_lead_time"`
	StockPosition               StockPosition `json:"stock_position"`
	Notes                       string        `json:"notes"`
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days renders +Inf as "infinite" so JSON stays valid.
type Days float64

func InfiniteDays() Days { return Days(math.Inf(1)) }

func (d Days) IsInfinite() bool { return math.IsInf(float64(d), 1) }

func (d Days) String() string {
	if d.IsInfinite() {
		return "infinite"
	}
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

func (d Days) MarshalJSON() ([]byte, error) {
	if d.IsInfinite() {
		return []byte(`"infinite"`), nil
	}
	return []byte(strconv.FormatFloat(float64(d), 'f', -1, 64)), nil
}

type LowStockAlert struct {
	StoreID          string        `json:"store_id"`
	ProductID        string        `json:"product_id"`
	ProductName      string        `json:"product_name"`
	CurrentStock     int64         `json:"current_stock"`
	DailyDemandSim   float64       `json:"daily_demand_sim"`
	MinReplenishTime int           `json:"min_replenish_time"`
	DaysRemaining    Days          `json:"days_remaining"`
	AlertCategory    AlertCategory `json:"alert_category"`
	AlertReason      string        `json:"alert_reason"`
}

type OverstockAlert struct {
	StoreID             string        `json:"store_id"`
	ProductID           string        `json:"product_id"`
	ProductName         string        `json:"product_name"`
	CurrentStock        int64         `json:"current_stock"`
	DailyDemandSim      float64       `json:"daily_demand_sim"`
	ProjectedDemand     float64       `json:"projected_demand_for_x_days"`
	DaysForDemand       int           `json:"days_for_demand"`
	ThresholdMultiplier float64       `json:"threshold_multiplier"`
	OverstockRatio      float64       `json:"overstock_ratio"`
	AlertCategory       AlertCategory `json:"alert_category"`
	AlertReason         string        `json:"alert_reason"`
}

// DeltaCommand changes on-hand stock by Quantity (negative = outflow).
type DeltaCommand struct {
	StoreID        string `json:"store_id"`
	ProductID      string `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (c DeltaCommand) Key() InventoryKey {
	return InventoryKey{StoreID: c.StoreID, ProductID: c.ProductID}
}

// SamePayload reports whether two commands describe the same delta.
func (c DeltaCommand) SamePayload(other DeltaCommand) bool {
	return c.StoreID == other.StoreID && c.ProductID == other.ProductID && c.Quantity == other.Quantity
}

type DeltaResult struct {
	Record   InventoryRecord `json:"record"`
	Replayed bool            `json:"replayed"`
}

// BatchMode selects how batch quantities are interpreted.
type BatchMode string

const (
	BatchModeDelta   BatchMode = "delta"
	BatchModeSale    BatchMode = "sale"
	BatchModeReceipt BatchMode = "receipt"
)

// DeltaRow is one parsed batch row. ParseError is set when the row could
// not be read and must be reported without being applied.
type DeltaRow struct {
	Row        int
	StoreID    string
	ProductID  string
	Quantity   int64
	ParseError string
}

const (
	RowStatusSuccess = "success"
	RowStatusError   = "error"
)

type RowResult struct {
	Row       int              `json:"row"`
	StoreID   string           `json:"store_id"`
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	Status    string           `json:"status"`
	Record    *InventoryRecord `json:"record,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind ErrorKind        `json:"error_kind,omitempty"`
}

type BatchResult struct {
	Mode      BatchMode   `json:"mode"`
	Results   []RowResult `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
