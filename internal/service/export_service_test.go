package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/andresuchdata/restock-engine/internal/storage"
)

type recordingStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func (r *recordingStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (r *recordingStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (r *recordingStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uploads == nil {
		r.uploads = make(map[string][]byte)
	}
	r.uploads[key] = data
	return nil
}

func TestExportRemediationWritesAndUploads(t *testing.T) {
	f := newFixture(t)
	objects := &recordingStorage{}
	dir := t.TempDir()

	exports := NewExportService(f.decisions, objects, dir, "reports")
	path, err := exports.ExportRemediation(context.Background(), "", "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two actions, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "transfer,S1,P1,high,6,") {
		t.Fatalf("unexpected first action %q", lines[1])
	}

	if len(objects.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(objects.uploads))
	}
	for key := range objects.uploads {
		if !strings.HasPrefix(key, "reports/remediation_actions_") {
			t.Fatalf("unexpected upload key %q", key)
		}
	}
}

func TestExportAlertsWithoutStorage(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	exports := NewExportService(f.decisions, nil, dir, "")
	paths, err := exports.ExportAlerts(context.Background(), "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected two reports, got %v", paths)
	}

	low, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read low stock report: %v", err)
	}
	if !strings.Contains(string(low), "S1,P1,Widget,2,") {
		t.Fatalf("expected S1 in the low stock report, got %q", low)
	}
}
