package domain

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRanks = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Rank orders priorities high first. Unknown values sort last.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return len(priorityRanks)
}

type Viability string

const (
	ViabilityHigh   Viability = "high"
	ViabilityMedium Viability = "medium"
	ViabilityLow    Viability = "low"
)

type AlertCategory string

const (
	AlertCritical    AlertCategory = "Critical"
	AlertLow         AlertCategory = "Low"
	AlertOverstocked AlertCategory = "Overstocked"
)

type StockPosition string

const (
	PositionUnderstock StockPosition = "understock"
	PositionOverstock  StockPosition = "overstock"
	PositionOptimal    StockPosition = "optimal"
)

type ActionType string

const (
	ActionOrder    ActionType = "order"
	ActionPromote  ActionType = "promote"
	ActionTransfer ActionType = "transfer"
)

// ParseBatchMode maps the :mode segment of a batch route to a mode.
func ParseBatchMode(s string) (BatchMode, bool) {
	switch BatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case BatchModeDelta:
		return BatchModeDelta, true
	case BatchModeSale:
		return BatchModeSale, true
	case BatchModeReceipt:
		return BatchModeReceipt, true
	}
	return "", false
}
