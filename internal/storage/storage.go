package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the S3-compatible operations used for seed files
// and report exports.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// FetchFiles downloads the objects under prefix whose base name is in
// names into dir and returns the local paths. Other objects are ignored.
func FetchFiles(ctx context.Context, objects ObjectStorage, prefix, dir string, names []string) ([]string, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	infos, err := objects.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var paths []string
	for _, info := range infos {
		name := path.Base(info.Key)
		if _, ok := wanted[name]; !ok {
			continue
		}
		dest := filepath.Join(dir, name)
		if err := objects.DownloadObject(ctx, info.Key, dest); err != nil {
			return paths, fmt.Errorf("failed to download %s: %w", info.Key, err)
		}
		log.Debug().Str("key", info.Key).Int64("size", info.Size).Str("dest", dest).Msg("downloaded object")
		paths = append(paths, dest)
	}
	return paths, nil
}
