package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeObjects struct {
	objects map[string]string
	failKey string
}

func (f *fakeObjects) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for key, body := range f.objects {
		out = append(out, ObjectInfo{Key: key, Size: int64(len(body))})
	}
	return out, nil
}

func (f *fakeObjects) DownloadObject(ctx context.Context, key, destPath string) error {
	if key == f.failKey {
		return errors.New("boom")
	}
	return os.WriteFile(destPath, []byte(f.objects[key]), 0644)
}

func (f *fakeObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	return nil
}

func TestFetchFilesKeepsWantedNames(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{
		"seeds/products.json": `{"product_id":"P1"}`,
		"seeds/notes.txt":     "ignore me",
	}}
	dir := t.TempDir()

	paths, err := FetchFiles(context.Background(), objects, "seeds/", dir, []string{"products.json", "stores.json"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "products.json") {
		t.Fatalf("unexpected paths %v", paths)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"product_id":"P1"}` {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestFetchFilesReportsDownloadFailure(t *testing.T) {
	objects := &fakeObjects{
		objects: map[string]string{"seeds/stores.json": "{}"},
		failKey: "seeds/stores.json",
	}

	if _, err := FetchFiles(context.Background(), objects, "seeds/", t.TempDir(), []string{"stores.json"}); err == nil {
		t.Fatal("expected a download error")
	}
}
