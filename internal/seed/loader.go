// Package seed loads reference data and starting inventory from
// newline-delimited JSON files.
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	ProductsFile        = "products.json"
	StoresFile          = "stores.json"
	InventoryFile       = "inventory.json"
	TransferHistoryFile = "transfer_history.json"

	defaultBatchSize = 500
)

// Files lists every file the loader understands, in load order.
var Files = []string{ProductsFile, StoresFile, InventoryFile, TransferHistoryFile}

type Summary struct {
	Products        int `json:"products"`
	Stores          int `json:"stores"`
	Inventory       int `json:"inventory"`
	TransferHistory int `json:"transfer_history"`
}

func (s Summary) Total() int {
	return s.Products + s.Stores + s.Inventory + s.TransferHistory
}

type Loader struct {
	sink      repository.SeedSink
	batchSize int
	now       func() time.Time
}

func NewLoader(sink repository.SeedSink, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Loader{sink: sink, batchSize: batchSize, now: time.Now}
}

// LoadDir loads whichever seed files exist in dir. A directory with none
// of them is an error.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Summary, error) {
	var summary Summary
	found := 0

	for _, name := range Files {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			log.Warn().Str("file", path).Msg("seed: file not found, skipping")
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("failed to open %s: %w", path, err)
		}
		found++

		n, err := l.Load(ctx, name, f)
		f.Close()
		if err != nil {
			return summary, fmt.Errorf("failed to load %s: %w", path, err)
		}

		switch name {
		case ProductsFile:
			summary.Products = n
		case StoresFile:
			summary.Stores = n
		case InventoryFile:
			summary.Inventory = n
		case TransferHistoryFile:
			summary.TransferHistory = n
		}
		log.Info().Str("file", path).Int("records", n).Msg("seed: loaded")
	}

	if found == 0 {
		return summary, domain.Validation("no seed files found in %s", dir)
	}
	return summary, nil
}

// Load reads one seed file by its base name and returns the number of
// records written.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (int, error) {
	switch filepath.Base(name) {
	case ProductsFile:
		return loadBatches(ctx, r, l.batchSize, decodeProduct, l.sink.UpsertProducts)
	case StoresFile:
		return loadBatches(ctx, r, l.batchSize, decodeStore, l.sink.UpsertStores)
	case InventoryFile:
		return loadBatches(ctx, r, l.batchSize, l.decodeInventory, l.sink.UpsertInventory)
	case TransferHistoryFile:
		return loadBatches(ctx, r, l.batchSize, decodeTransferHistory, l.sink.UpsertTransferHistory)
	}
	return 0, domain.Validation("unknown seed file %q", name)
}

func loadBatches[T any](ctx context.Context, r io.Reader, size int, decode func([]byte) (T, error), write func(context.Context, []T) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	batch := make([]T, 0, size)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := write(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		item, err := decode([]byte(raw))
		if err != nil {
			return total, domain.Validation("line %d: %v", line, err)
		}
		batch = append(batch, item)
		if len(batch) == size {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("failed to read seed file: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

type productLine struct {
	ProductID                   flexID   `json:"product_id"`
	Name                        string   `json:"name"`
	Category                    string   `json:"category"`
	Price                       float64  `json:"price"`
	UnitCost                    float64  `json:"unit_cost"`
	MinReplenishTime            int      `json:"min_replenish_time"`
	BaseSafetyStock             float64  `json:"base_safety_stock"`
	SupplierCategoryReliability *float64 `json:"supplier_category_reliability"`
}

func decodeProduct(raw []byte) (domain.Product, error) {
	var p productLine
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Product{}, err
	}
	id := p.ProductID.String()
	if id == "" {
		return domain.Product{}, fmt.Errorf("product_id is required")
	}
	if p.MinReplenishTime < 0 {
		return domain.Product{}, fmt.Errorf("product %s: min_replenish_time must be >= 0", id)
	}
	reliability := 1.0
	if p.SupplierCategoryReliability != nil {
		reliability = *p.SupplierCategoryReliability
	}
	return domain.Product{
		ProductID:                   id,
		Name:                        p.Name,
		Category:                    p.Category,
		Price:                       p.Price,
		UnitCost:                    p.UnitCost,
		MinReplenishTime:            p.MinReplenishTime,
		BaseSafetyStock:             p.BaseSafetyStock,
		SupplierCategoryReliability: reliability,
	}, nil
}

type storeLine struct {
	StoreID   flexID  `json:"store_id"`
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func decodeStore(raw []byte) (domain.Store, error) {
	var s storeLine
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Store{}, err
	}
	if s.StoreID.String() == "" {
		return domain.Store{}, fmt.Errorf("store_id is required")
	}
	return domain.Store{
		StoreID:   s.StoreID.String(),
		Name:      s.Name,
		Region:    s.Region,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}, nil
}

type inventoryLine struct {
	StoreID            flexID   `json:"store_id"`
	ProductID          flexID   `json:"product_id"`
	CurrentStock       int64    `json:"current_stock"`
	DailySalesBaseline *float64 `json:"daily_sales_baseline"`
	DailySalesSimBase  *float64 `json:"daily_sales_simulation_base"`
	LastUpdated        string   `json:"last_updated"`
}

// decodeInventory accepts either baseline field name; the daily baseline
// defaults to one unit and a missing or unreadable timestamp to now.
func (l *Loader) decodeInventory(raw []byte) (domain.InventoryRecord, error) {
	var in inventoryLine
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.InventoryRecord{}, err
	}
	rec := domain.InventoryRecord{
		StoreID:            in.StoreID.String(),
		ProductID:          in.ProductID.String(),
		CurrentStock:       in.CurrentStock,
		DailySalesBaseline: 1,
	}
	if rec.StoreID == "" || rec.ProductID == "" {
		return rec, fmt.Errorf("store_id and product_id are required")
	}
	if rec.CurrentStock < 0 {
		return rec, fmt.Errorf("inventory %s: current_stock must be >= 0", rec.Key())
	}

	switch {
	case in.DailySalesBaseline != nil:
		rec.DailySalesBaseline = *in.DailySalesBaseline
	case in.DailySalesSimBase != nil:
		rec.DailySalesBaseline = *in.DailySalesSimBase
	}

	rec.LastUpdated = l.now().UTC()
	if in.LastUpdated != "" {
		if t, ok := parseTimestamp(in.LastUpdated); ok {
			rec.LastUpdated = t
		}
	}
	return rec, nil
}

type transferHistoryLine struct {
	SourceStoreID flexID `json:"source_store_id"`
	TargetStoreID flexID `json:"target_store_id"`
	ProductID     flexID `json:"product_id"`
	Transfers     int    `json:"transfers"`
	Resolved      int    `json:"resolved"`
}

func decodeTransferHistory(raw []byte) (domain.TransferHistory, error) {
	var h transferHistoryLine
	if err := json.Unmarshal(raw, &h); err != nil {
		return domain.TransferHistory{}, err
	}
	if h.SourceStoreID.String() == "" || h.TargetStoreID.String() == "" {
		return domain.TransferHistory{}, fmt.Errorf("source_store_id and target_store_id are required")
	}
	if h.Transfers < 0 || h.Resolved < 0 || h.Resolved > h.Transfers {
		return domain.TransferHistory{}, fmt.Errorf("resolved must be between 0 and transfers")
	}
	return domain.TransferHistory{
		SourceStoreID: h.SourceStoreID.String(),
		TargetStoreID: h.TargetStoreID.String(),
		ProductID:     h.ProductID.String(),
		Transfers:     h.Transfers,
		Resolved:      h.Resolved,
	}, nil
}

// flexID accepts ids written either as strings or as bare numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
