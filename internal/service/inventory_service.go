package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 8

type InventoryService struct {
	repo             repository.InventoryRepository
	locks            *keyLock
	storeTimeout     time.Duration
	batchConcurrency int
	now              func() time.Time
}

func NewInventoryService(repo repository.InventoryRepository, storeTimeout time.Duration, batchConcurrency int) *InventoryService {
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &InventoryService{
		repo:             repo,
		locks:            newKeyLock(),
		storeTimeout:     storeTimeout,
		batchConcurrency: batchConcurrency,
		now:              time.Now,
	}
}

// withStoreTimeout bounds one backend call and maps its deadline to an
// upstream timeout.
func (s *InventoryService) withStoreTimeout(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return domain.UpstreamTimeout(err, "inventory store timed out during %s", op)
	}
	return err
}

func (s *InventoryService) Get(ctx context.Context, storeID, productID string) (*domain.InventoryRecord, error) {
	if err := validateKey(storeID, productID); err != nil {
		return nil, err
	}

	var rec *domain.InventoryRecord
	err := s.withStoreTimeout(ctx, "get", func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetInventory(ctx, storeID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *InventoryService) List(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	err := s.withStoreTimeout(ctx, "list", func(ctx context.Context) error {
		var err error
		records, err = s.repo.ListInventory(ctx, filter)
		return err
	})
	return records, err
}

// ApplyDelta changes stock for one key. Writers on the same key are
// serialized; an over-draw leaves the stock untouched.
func (s *InventoryService) ApplyDelta(ctx context.Context, cmd domain.DeltaCommand) (*domain.DeltaResult, error) {
	cmd.StoreID = strings.TrimSpace(cmd.StoreID)
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)
	if err := validateKey(cmd.StoreID, cmd.ProductID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cmd.Key())
	defer unlock()

	var res *domain.DeltaResult
	err := s.withStoreTimeout(ctx, "apply delta", func(ctx context.Context) error {
		var err error
		res, err = s.repo.ApplyDelta(ctx, cmd, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Replayed {
		log.Debug().Str("key", cmd.IdempotencyKey).Str("inventory", cmd.Key().String()).Msg("inventory: replayed delta")
	}
	return res, nil
}

// RecordSale removes quantity units.
func (s *InventoryService) RecordSale(ctx context.Context, storeID, productID string, quantity int64, idempotencyKey string) (*domain.DeltaResult, error) {
	if quantity <= 0 {
		return nil, domain.Validation("sale quantity must be > 0, got %d", quantity)
	}
	return s.ApplyDelta(ctx, domain.DeltaCommand{StoreID: storeID, ProductID: productID, Quantity: -quantity, IdempotencyKey: idempotencyKey})
}

// RecordReceipt adds quantity units.
func (s *InventoryService) RecordReceipt(ctx context.Context, storeID, productID string, quantity int64, idempotencyKey string) (*domain.DeltaResult, error) {
	if quantity <= 0 {
		return nil, domain.Validation("receipt quantity must be > 0, got %d", quantity)
	}
	return s.ApplyDelta(ctx, domain.DeltaCommand{StoreID: storeID, ProductID: productID, Quantity: quantity, IdempotencyKey: idempotencyKey})
}

// BatchApply applies rows and reports each one. Rows on different keys
// run concurrently; rows on the same key keep their submission order.
func (s *InventoryService) BatchApply(ctx context.Context, mode domain.BatchMode, rows []domain.DeltaRow) *domain.BatchResult {
	result := &domain.BatchResult{
		Mode:    mode,
		Results: make([]domain.RowResult, len(rows)),
	}

	var order []domain.InventoryKey
	groups := make(map[domain.InventoryKey][]int)
	for i, row := range rows {
		result.Results[i] = domain.RowResult{
			Row:       row.Row,
			StoreID:   row.StoreID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
		}

		if err := batchRowError(mode, row); err != nil {
			setRowError(&result.Results[i], err)
			continue
		}

		key := domain.InventoryKey{StoreID: strings.TrimSpace(row.StoreID), ProductID: strings.TrimSpace(row.ProductID)}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for _, key := range order {
		indexes := groups[key]
		g.Go(func() error {
			for _, i := range indexes {
				row := rows[i]
				res, err := s.ApplyDelta(ctx, domain.DeltaCommand{
					StoreID:   row.StoreID,
					ProductID: row.ProductID,
					Quantity:  signedQuantity(mode, row.Quantity),
				})
				if err != nil {
					setRowError(&result.Results[i], err)
					continue
				}
				rec := res.Record
				result.Results[i].Status = domain.RowStatusSuccess
				result.Results[i].Record = &rec
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range result.Results {
		if r.Status == domain.RowStatusSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	log.Info().
		Str("mode", string(mode)).
		Int("rows", len(rows)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("inventory: batch applied")

	return result
}

func batchRowError(mode domain.BatchMode, row domain.DeltaRow) error {
	if row.ParseError != "" {
		return domain.Validation("row %d: %s", row.Row, row.ParseError)
	}
	if err := validateKey(row.StoreID, row.ProductID); err != nil {
		return err
	}
	if mode != domain.BatchModeDelta && row.Quantity <= 0 {
		return domain.Validation("row %d: %s quantity must be > 0, got %d", row.Row, mode, row.Quantity)
	}
	return nil
}

func signedQuantity(mode domain.BatchMode, qty int64) int64 {
	if mode == domain.BatchModeSale {
		return -qty
	}
	return qty
}

func setRowError(r *domain.RowResult, err error) {
	r.Status = domain.RowStatusError
	r.Error = domain.MessageOf(err)
	r.ErrorKind = domain.KindOf(err)
}

func validateKey(storeID, productID string) error {
	if strings.TrimSpace(storeID) == "" {
		return domain.Validation("store_id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Validation("product_id is required")
	}
	return nil
}
