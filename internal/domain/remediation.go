package domain

// RemediationAction is one of OrderAction, PromoteAction or TransferAction.
// The set is closed; switch on the concrete type or on Common().ActionType.
type RemediationAction interface {
	Common() ActionBase
	remediationAction()
}

// ActionBase carries the fields every action has. StoreID is the store
// whose position the action corrects.
type ActionBase struct {
	ActionType         ActionType `json:"action_type"`
	StoreID            string     `json:"store_id"`
	ProductID          string     `json:"product_id"`
	Priority           Priority   `json:"priority"`
	SuggestedQuantity  int64      `json:"suggested_quantity"`
	Reason             string     `json:"reason"`
	EstimatedNetProfit float64    `json:"estimated_net_profit"`
	AssociatedCost     float64    `json:"associated_cost"`
	ImpactNotes        string     `json:"impact_notes"`
}

func (b ActionBase) Common() ActionBase { return b }

type OrderAction struct {
	ActionBase
}

type PromoteAction struct {
	ActionBase
	MarkdownRate float64 `json:"markdown_rate"`
}

type TransferAction struct {
	ActionBase
	SourceStoreID   string          `json:"source_store_id"`
	TargetStoreID   string          `json:"target_store_id"`
	TransferDetails TransferDetails `json:"transfer_details"`
}

func (OrderAction) remediationAction()    {}
func (PromoteAction) remediationAction()  {}
func (TransferAction) remediationAction() {}

// InvolvesStore reports whether the action touches storeID as subject,
// transfer source or transfer target.
func InvolvesStore(a RemediationAction, storeID string) bool {
	if a.Common().StoreID == storeID {
		return true
	}
	if t, ok := a.(TransferAction); ok {
		return t.SourceStoreID == storeID || t.TargetStoreID == storeID
	}
	return false
}

type TransferDetails struct {
	DistanceScore          float64   `json:"distance_score"`
	CostScore              float64   `json:"cost_score"`
	HistoricalSuccessScore float64   `json:"historical_success_score"`
	FinalFeasibilityScore  int       `json:"final_feasibility_score"`
	ViabilityCategory      Viability `json:"viability_category"`
	CalculatedDistanceKm   float64   `json:"calculated_distance_km"`
	CalculatedTransferCost float64   `json:"calculated_transfer_cost"`
}

// TransferFeasibility is the standalone answer for one candidate transfer.
type TransferFeasibility struct {
	SourceStoreID string `json:"source_store_id"`
	TargetStoreID string `json:"target_store_id"`
	ProductID     string `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	TransferDetails
}
