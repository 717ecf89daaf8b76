package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// PlanItem is one (store, product) with its computed stocking target.
type PlanItem struct {
	Record   domain.InventoryRecord
	Product  domain.Product
	Stocking domain.OptimalStockingResult
}

// RouteKey identifies a directed store pair for one product.
type RouteKey struct {
	Source  string
	Target  string
	Product string
}

type PlanInput struct {
	Items   []PlanItem
	Stores  map[string]domain.Store
	History map[RouteKey]domain.TransferHistory
}

type transferCandidate struct {
	source   *PlanItem
	quantity int64
	details  domain.TransferDetails
}

// Plan turns stocking targets into Order, Transfer and Promote actions,
// sorted high priority first and stable within a tier.
func (p Policy) Plan(in PlanInput) []domain.RemediationAction {
	items := make([]PlanItem, len(in.Items))
	copy(items, in.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Record.StoreID != items[j].Record.StoreID {
			return items[i].Record.StoreID < items[j].Record.StoreID
		}
		return items[i].Record.ProductID < items[j].Record.ProductID
	})

	// surplus left on each overstocked item after transfers draw from it
	surplus := make(map[domain.InventoryKey]int64)
	byProduct := make(map[string][]*PlanItem)
	for i := range items {
		item := &items[i]
		byProduct[item.Record.ProductID] = append(byProduct[item.Record.ProductID], item)
		if extra := item.Record.CurrentStock - item.Stocking.TargetInventoryLevel; extra > 0 {
			surplus[item.Record.Key()] = extra
		}
	}

	actions := make([]domain.RemediationAction, 0)

	for i := range items {
		item := &items[i]
		deficit := item.Stocking.TargetInventoryLevel - item.Record.CurrentStock
		if deficit <= 0 {
			continue
		}

		if best, ok := p.bestTransfer(item, deficit, byProduct[item.Record.ProductID], surplus, in); ok {
			surplus[best.source.Record.Key()] -= best.quantity
			deficit -= best.quantity
			actions = append(actions, p.transferAction(item, best))
		}

		if deficit > 0 {
			actions = append(actions, p.orderAction(item, deficit))
		}
	}

	for i := range items {
		item := &items[i]
		left := surplus[item.Record.Key()]
		if left <= 0 {
			continue
		}
		actions = append(actions, p.promoteAction(item, left))
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Common().Priority.Rank() < actions[j].Common().Priority.Rank()
	})

	return actions
}

// bestTransfer picks the surplus source with the highest feasibility, then
// the shortest distance, then the lowest store id. Low viability sources
// are never chosen.
func (p Policy) bestTransfer(target *PlanItem, deficit int64, peers []*PlanItem, surplus map[domain.InventoryKey]int64, in PlanInput) (transferCandidate, bool) {
	targetStore, ok := in.Stores[target.Record.StoreID]
	if !ok {
		return transferCandidate{}, false
	}

	var (
		best  transferCandidate
		found bool
	)
	for _, peer := range peers {
		if peer.Record.StoreID == target.Record.StoreID {
			continue
		}
		available := surplus[peer.Record.Key()]
		if available <= 0 {
			continue
		}
		sourceStore, ok := in.Stores[peer.Record.StoreID]
		if !ok {
			continue
		}

		qty := deficit
		if available < qty {
			qty = available
		}

		details, err := p.ScoreTransfer(TransferInput{
			Source:    sourceStore,
			Target:    targetStore,
			ProductID: target.Record.ProductID,
			Quantity:  qty,
			History:   in.History[RouteKey{Source: peer.Record.StoreID, Target: target.Record.StoreID, Product: target.Record.ProductID}],
		})
		if err != nil || details.ViabilityCategory == domain.ViabilityLow {
			continue
		}

		candidate := transferCandidate{source: peer, quantity: qty, details: details}
		if !found || betterCandidate(candidate, best) {
			best = candidate
			found = true
		}
	}

	return best, found
}

func betterCandidate(a, b transferCandidate) bool {
	if a.details.FinalFeasibilityScore != b.details.FinalFeasibilityScore {
		return a.details.FinalFeasibilityScore > b.details.FinalFeasibilityScore
	}
	if a.details.CalculatedDistanceKm != b.details.CalculatedDistanceKm {
		return a.details.CalculatedDistanceKm < b.details.CalculatedDistanceKm
	}
	return a.source.Record.StoreID < b.source.Record.StoreID
}

func (p Policy) orderAction(item *PlanItem, qty int64) domain.OrderAction {
	q := decimal.NewFromInt(qty)
	recovered := q.Mul(p.unitMargin(item.Product))
	cost := decimal.NewFromFloat(p.OrderFixedCost)

	return domain.OrderAction{
		ActionBase: domain.ActionBase{
			ActionType:         domain.ActionOrder,
			StoreID:            item.Record.StoreID,
			ProductID:          item.Record.ProductID,
			Priority:           p.shortagePriority(item, nil),
			SuggestedQuantity:  qty,
			Reason:             shortageReason(item),
			EstimatedNetProfit: money(recovered.Sub(cost)),
			AssociatedCost:     money(cost),
			ImpactNotes: fmt.Sprintf("Order %d units from the supplier; expected arrival in %d days.",
				qty, item.Stocking.EffectiveLeadTime),
		},
	}
}

func (p Policy) transferAction(item *PlanItem, c transferCandidate) domain.TransferAction {
	q := decimal.NewFromInt(c.quantity)
	holding := q.Mul(p.unitCost(c.source.Product)).Mul(decimal.NewFromFloat(p.HoldingCostRate))
	recovered := q.Mul(p.unitMargin(item.Product)).Add(holding)
	cost := decimal.NewFromFloat(c.details.CalculatedTransferCost)

	return domain.TransferAction{
		ActionBase: domain.ActionBase{
			ActionType:         domain.ActionTransfer,
			StoreID:            item.Record.StoreID,
			ProductID:          item.Record.ProductID,
			Priority:           p.shortagePriority(item, &c.details),
			SuggestedQuantity:  c.quantity,
			Reason:             shortageReason(item),
			EstimatedNetProfit: money(recovered.Sub(cost)),
			AssociatedCost:     money(cost),
			ImpactNotes: fmt.Sprintf("Move %d surplus units from store %s (%.1f km, feasibility %d, %s viability).",
				c.quantity, c.source.Record.StoreID, c.details.CalculatedDistanceKm,
				c.details.FinalFeasibilityScore, c.details.ViabilityCategory),
		},
		SourceStoreID:   c.source.Record.StoreID,
		TargetStoreID:   item.Record.StoreID,
		TransferDetails: c.details,
	}
}

func (p Policy) promoteAction(item *PlanItem, qty int64) domain.PromoteAction {
	q := decimal.NewFromInt(qty)
	recovered := q.Mul(p.unitCost(item.Product)).Mul(decimal.NewFromFloat(p.HoldingCostRate))
	cost := q.Mul(decimal.NewFromFloat(item.Product.Price)).Mul(decimal.NewFromFloat(p.MarkdownRate))

	priority := domain.PriorityMedium
	if p.smallDeviation(item) {
		priority = domain.PriorityLow
	}

	return domain.PromoteAction{
		ActionBase: domain.ActionBase{
			ActionType:        domain.ActionPromote,
			StoreID:           item.Record.StoreID,
			ProductID:         item.Record.ProductID,
			Priority:          priority,
			SuggestedQuantity: qty,
			Reason: fmt.Sprintf("Stock of %d exceeds the target of %d by %d units.",
				item.Record.CurrentStock, item.Stocking.TargetInventoryLevel, qty),
			EstimatedNetProfit: money(recovered.Sub(cost)),
			AssociatedCost:     money(cost),
			ImpactNotes: fmt.Sprintf("Mark down %d units by %.0f%% to clear surplus and free holding cost.",
				qty, p.MarkdownRate*100),
		},
		MarkdownRate: p.MarkdownRate,
	}
}

func (p Policy) shortagePriority(item *PlanItem, details *domain.TransferDetails) domain.Priority {
	daily := 0.0
	if p.StockingWindowDays > 0 {
		daily = item.Stocking.Total30DayForecastedDemand / float64(p.StockingWindowDays)
	}
	if IsCritical(item.Record.CurrentStock, daily, item.Product.MinReplenishTime) {
		return domain.PriorityHigh
	}
	if details != nil && float64(details.FinalFeasibilityScore) >= p.HighPriorityFeasibility {
		return domain.PriorityHigh
	}
	if p.smallDeviation(item) {
		return domain.PriorityLow
	}
	return domain.PriorityMedium
}

func (p Policy) smallDeviation(item *PlanItem) bool {
	target := item.Stocking.TargetInventoryLevel
	gap := math.Abs(float64(item.Record.CurrentStock - target))
	return gap/math.Max(float64(target), 1) < p.SmallDeviationRatio
}

func shortageReason(item *PlanItem) string {
	return fmt.Sprintf("Stock of %d is below the target of %d by %d units.",
		item.Record.CurrentStock, item.Stocking.TargetInventoryLevel,
		item.Stocking.TargetInventoryLevel-item.Record.CurrentStock)
}

// unitCost falls back to price less the default margin when no cost is known.
func (p Policy) unitCost(prod domain.Product) decimal.Decimal {
	if prod.UnitCost > 0 {
		return decimal.NewFromFloat(prod.UnitCost)
	}
	return decimal.NewFromFloat(prod.Price).Mul(decimal.NewFromFloat(1 - p.DefaultMarginRate))
}

func (p Policy) unitMargin(prod domain.Product) decimal.Decimal {
	margin := decimal.NewFromFloat(prod.Price).Sub(p.unitCost(prod))
	if margin.IsNegative() {
		return decimal.Zero
	}
	return margin
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
