package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/andresuchdata/restock-engine/internal/storage"
	"github.com/andresuchdata/restock-engine/internal/tabular"
	"github.com/rs/zerolog/log"
)

// ExportService writes decision reports as CSV files and, when a bucket is
// configured, uploads them under prefix.
type ExportService struct {
	decisions *DecisionService
	objects   storage.ObjectStorage
	dir       string
	prefix    string
	now       func() time.Time
}

func NewExportService(decisions *DecisionService, objects storage.ObjectStorage, dir, prefix string) *ExportService {
	return &ExportService{
		decisions: decisions,
		objects:   objects,
		dir:       dir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// ExportAlerts writes the low stock and overstock reports using the
// policy's default thresholds.
func (s *ExportService) ExportAlerts(ctx context.Context, storeID string) ([]string, error) {
	policy := s.decisions.Policy()

	low, err := s.decisions.GetLowStockAlerts(ctx, policy.LowStockDaysLeft, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to build low stock alerts: %w", err)
	}
	over, err := s.decisions.GetOverstockAlerts(ctx, policy.OverstockMultiplier, policy.OverstockDays, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to build overstock alerts: %w", err)
	}

	var lowBuf, overBuf bytes.Buffer
	if err := tabular.WriteLowStockAlerts(&lowBuf, low); err != nil {
		return nil, err
	}
	if err := tabular.WriteOverstockAlerts(&overBuf, over); err != nil {
		return nil, err
	}

	stamp := s.now().UTC().Format("20060102_150405")
	lowPath, err := s.publish(ctx, fmt.Sprintf("low_stock_alerts_%s.csv", stamp), lowBuf.Bytes())
	if err != nil {
		return nil, err
	}
	overPath, err := s.publish(ctx, fmt.Sprintf("overstock_alerts_%s.csv", stamp), overBuf.Bytes())
	if err != nil {
		return nil, err
	}
	return []string{lowPath, overPath}, nil
}

func (s *ExportService) ExportRemediation(ctx context.Context, storeID, productID string) (string, error) {
	actions, err := s.decisions.GetRemediationActions(ctx, storeID, productID)
	if err != nil {
		return "", fmt.Errorf("failed to build remediation actions: %w", err)
	}

	var buf bytes.Buffer
	if err := tabular.WriteActions(&buf, actions); err != nil {
		return "", err
	}

	name := fmt.Sprintf("remediation_actions_%s.csv", s.now().UTC().Format("20060102_150405"))
	return s.publish(ctx, name, buf.Bytes())
}

// publish writes the file locally and uploads it when storage is set. It
// returns the local path.
func (s *ExportService) publish(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	local := filepath.Join(s.dir, name)
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", local, err)
	}

	if s.objects != nil {
		key := path.Join(s.prefix, name)
		if err := s.objects.UploadObject(ctx, key, data); err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", key, err)
		}
		log.Info().Str("key", key).Msg("export: uploaded report")
	}

	log.Info().Str("path", local).Int("bytes", len(data)).Msg("export: wrote report")
	return local, nil
}
