package drive

import (
	"context"
	"fmt"
	"io"

	"github.com/andresuchdata/restock-engine/internal/seed"
	"github.com/rs/zerolog/log"
)

// FileSource is the part of Service the ingester needs.
type FileSource interface {
	FindFolderByPath(ctx context.Context, path string) (string, error)
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// IngestService streams seed files from a drive folder straight into the
// seed loader.
type IngestService struct {
	source FileSource
	loader *seed.Loader
}

func NewIngestService(source FileSource, loader *seed.Loader) *IngestService {
	return &IngestService{source: source, loader: loader}
}

// IngestFolder loads every recognised seed file in folderPath, in the
// loader's dependency order.
func (s *IngestService) IngestFolder(ctx context.Context, folderPath string) (seed.Summary, error) {
	var summary seed.Summary

	folderID, err := s.source.FindFolderByPath(ctx, folderPath)
	if err != nil {
		return summary, err
	}
	files, err := s.source.ListFiles(ctx, folderID)
	if err != nil {
		return summary, err
	}

	byName := make(map[string]*File, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}

	for _, name := range seed.Files {
		f, ok := byName[name]
		if !ok {
			continue
		}

		n, err := s.ingestFile(ctx, f)
		if err != nil {
			return summary, fmt.Errorf("failed to ingest %s: %w", name, err)
		}

		switch name {
		case seed.ProductsFile:
			summary.Products = n
		case seed.StoresFile:
			summary.Stores = n
		case seed.InventoryFile:
			summary.Inventory = n
		case seed.TransferHistoryFile:
			summary.TransferHistory = n
		}
		log.Info().Str("file", name).Str("id", f.ID).Int("records", n).Msg("drive: ingested seed file")
	}

	if summary.Total() == 0 {
		log.Warn().Str("folder", folderPath).Msg("drive: no seed records found")
	}
	return summary, nil
}

func (s *IngestService) ingestFile(ctx context.Context, f *File) (int, error) {
	pr, pw := io.Pipe()
	go func() {
		err := s.source.DownloadFile(ctx, f.ID, pw)
		pw.CloseWithError(err)
	}()

	n, err := s.loader.Load(ctx, f.Name, pr)
	// unblock the downloader if the loader stopped early
	pr.CloseWithError(err)
	return n, err
}
