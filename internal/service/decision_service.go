package service

import (
	"context"
	"errors"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/engine"
	"github.com/andresuchdata/restock-engine/internal/forecast"
	"github.com/andresuchdata/restock-engine/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultPlanConcurrency = 8

// DecisionService joins inventory, reference data and forecasts and hands
// them to the pure engine calculators.
type DecisionService struct {
	inventory       *InventoryService
	reference       repository.ReferenceRepository
	forecasts       *forecast.Adapter
	policy          engine.Policy
	planConcurrency int
}

func NewDecisionService(inventory *InventoryService, reference repository.ReferenceRepository, forecasts *forecast.Adapter, policy engine.Policy, planConcurrency int) *DecisionService {
	if planConcurrency <= 0 {
		planConcurrency = defaultPlanConcurrency
	}
	return &DecisionService{
		inventory:       inventory,
		reference:       reference,
		forecasts:       forecasts,
		policy:          policy.Normalize(),
		planConcurrency: planConcurrency,
	}
}

func (s *DecisionService) Policy() engine.Policy { return s.policy }

// GetForecast returns days points of predicted demand starting tomorrow.
func (s *DecisionService) GetForecast(ctx context.Context, storeID, productID string, days int, scenario domain.ScenarioOverride) ([]domain.ForecastPoint, error) {
	if err := validateKey(storeID, productID); err != nil {
		return nil, err
	}
	series, err := s.forecasts.Forecast(ctx, storeID, productID, days, scenario)
	if err != nil {
		return nil, err
	}
	return series.Collect(), nil
}

func (s *DecisionService) GetReorderRecommendation(ctx context.Context, storeID, productID string) (*domain.ReorderRecommendation, error) {
	rec, product, err := s.loadItem(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	lead := product.MinReplenishTime
	series, err := s.forecasts.Forecast(ctx, storeID, productID, s.policy.ReorderHorizon(lead), domain.ScenarioOverride{})
	if err != nil {
		return nil, err
	}

	out, err := s.policy.Reorder(engine.ReorderInput{
		Record:   *rec,
		LeadTime: lead,
		Demand:   series.Demand(),
		Today:    s.forecasts.Today(),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DecisionService) GetOptimalStocking(ctx context.Context, storeID, productID string, leadTimeOverride int) (*domain.OptimalStockingResult, error) {
	rec, product, err := s.loadItem(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	out, err := s.optimalStocking(ctx, *rec, *product, leadTimeOverride)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DecisionService) optimalStocking(ctx context.Context, rec domain.InventoryRecord, product domain.Product, leadTimeOverride int) (domain.OptimalStockingResult, error) {
	series, err := s.forecasts.Forecast(ctx, rec.StoreID, rec.ProductID, s.policy.StockingWindowDays, domain.ScenarioOverride{})
	if err != nil {
		return domain.OptimalStockingResult{}, err
	}
	return s.policy.OptimalStocking(engine.StockingInput{
		Record:           rec,
		Product:          product,
		Demand:           series.Demand(),
		LeadTimeOverride: leadTimeOverride,
	})
}

func (s *DecisionService) GetLowStockAlerts(ctx context.Context, daysLeft float64, storeID string) ([]domain.LowStockAlert, error) {
	items, err := s.snapshots(ctx, domain.InventoryFilter{StoreID: strings.TrimSpace(storeID)})
	if err != nil {
		return nil, err
	}
	return engine.LowStockAlerts(items, daysLeft)
}

func (s *DecisionService) GetOverstockAlerts(ctx context.Context, multiplier float64, days int, storeID string) ([]domain.OverstockAlert, error) {
	items, err := s.snapshots(ctx, domain.InventoryFilter{StoreID: strings.TrimSpace(storeID)})
	if err != nil {
		return nil, err
	}
	return engine.OverstockAlerts(items, multiplier, days)
}

func (s *DecisionService) GetTransferFeasibility(ctx context.Context, sourceStoreID, targetStoreID, productID string, quantity int64) (*domain.TransferFeasibility, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.Validation("product_id is required")
	}
	if sourceStoreID == targetStoreID {
		return nil, domain.Validation("source and target store must differ, both are %q", sourceStoreID)
	}

	source, err := s.reference.GetStore(ctx, sourceStoreID)
	if err != nil {
		return nil, err
	}
	target, err := s.reference.GetStore(ctx, targetStoreID)
	if err != nil {
		return nil, err
	}
	history, err := s.reference.ListTransferHistory(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.policy.ScoreTransfer(engine.TransferInput{
		Source:    *source,
		Target:    *target,
		ProductID: productID,
		Quantity:  quantity,
		History:   routeHistory(history, productID)[engine.RouteKey{Source: sourceStoreID, Target: targetStoreID, Product: productID}],
	})
	if err != nil {
		return nil, err
	}

	return &domain.TransferFeasibility{
		SourceStoreID:   sourceStoreID,
		TargetStoreID:   targetStoreID,
		ProductID:       productID,
		Quantity:        quantity,
		TransferDetails: details,
	}, nil
}

// GetRemediationActions plans across every store so transfers can draw on
// surplus elsewhere, then keeps the actions matching the filters.
func (s *DecisionService) GetRemediationActions(ctx context.Context, storeID, productID string) ([]domain.RemediationAction, error) {
	storeID = strings.TrimSpace(storeID)
	productID = strings.TrimSpace(productID)

	// transfers never cross products, so a product filter can narrow the plan
	snapshots, err := s.snapshots(ctx, domain.InventoryFilter{ProductID: productID})
	if err != nil {
		return nil, err
	}

	stores, err := s.reference.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.reference.ListTransferHistory(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]engine.PlanItem, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.planConcurrency)
	for i, snap := range snapshots {
		i, snap := i, snap
		g.Go(func() error {
			stocking, err := s.optimalStocking(gctx, snap.Record, snap.Product, 0)
			if err != nil {
				return err
			}
			items[i] = engine.PlanItem{Record: snap.Record, Product: snap.Product, Stocking: stocking}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	storeMap := make(map[string]domain.Store, len(stores))
	for _, st := range stores {
		storeMap[st.StoreID] = st
	}

	actions := s.policy.Plan(engine.PlanInput{
		Items:   items,
		Stores:  storeMap,
		History: planHistory(history, items),
	})

	filtered := make([]domain.RemediationAction, 0, len(actions))
	for _, a := range actions {
		if storeID != "" && !domain.InvolvesStore(a, storeID) {
			continue
		}
		if productID != "" && a.Common().ProductID != productID {
			continue
		}
		filtered = append(filtered, a)
	}

	log.Debug().
		Int("items", len(items)).
		Int("actions", len(actions)).
		Int("returned", len(filtered)).
		Msg("remediation: plan built")

	return filtered, nil
}

// loadItem fetches the record and its product. A product without
// reference data is reported as unknown.
func (s *DecisionService) loadItem(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, *domain.Product, error) {
	rec, err := s.inventory.Get(ctx, storeID, productID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.reference.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.UnknownProduct("unknown product %s", productID)
		}
		return nil, nil, err
	}
	return rec, product, nil
}

func (s *DecisionService) snapshots(ctx context.Context, filter domain.InventoryFilter) ([]engine.StockSnapshot, error) {
	records, err := s.inventory.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	products, err := s.reference.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}

	out := make([]engine.StockSnapshot, 0, len(records))
	for _, rec := range records {
		p, ok := byID[rec.ProductID]
		if !ok {
			p = domain.Product{ProductID: rec.ProductID}
		}
		out = append(out, engine.StockSnapshot{Record: rec, Product: p})
	}
	return out, nil
}

// routeHistory sums one product's history per route. Rows without a
// product apply to every product on the route.
func routeHistory(history []domain.TransferHistory, productID string) map[engine.RouteKey]domain.TransferHistory {
	out := make(map[engine.RouteKey]domain.TransferHistory)
	for _, h := range history {
		if h.ProductID != "" && h.ProductID != productID {
			continue
		}
		key := engine.RouteKey{Source: h.SourceStoreID, Target: h.TargetStoreID, Product: productID}
		agg := out[key]
		agg.SourceStoreID = h.SourceStoreID
		agg.TargetStoreID = h.TargetStoreID
		agg.ProductID = productID
		agg.Transfers += h.Transfers
		agg.Resolved += h.Resolved
		out[key] = agg
	}
	return out
}

// planHistory builds routeHistory for every product in the plan so a
// planned transfer scores exactly like a standalone feasibility query.
func planHistory(history []domain.TransferHistory, items []engine.PlanItem) map[engine.RouteKey]domain.TransferHistory {
	out := make(map[engine.RouteKey]domain.TransferHistory)
	seen := make(map[string]struct{})
	for _, item := range items {
		productID := item.Record.ProductID
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}
		for key, h := range routeHistory(history, productID) {
			out[key] = h
		}
	}
	return out
}
