package generator_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/acm/pkg/storage"
)

// diskStore is a thin storage.Provider fake backed by a real directory,
// used where a test's subprocess fixture writes its output to an actual
// file rather than an in-memory map.
type diskStore struct {
	dir string
}

func newDiskStore(dir string) *diskStore { return &diskStore{dir: dir} }

func (d *diskStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.dir, path)
}

func (d *diskStore) Read(_ context.Context, path string) (storage.ReadResult, error) {
	data, err := os.ReadFile(d.resolve(path))
	if err != nil {
		return storage.ReadResult{}, err
	}
	sum := sha256.Sum256(data)
	return storage.ReadResult{Bytes: data, Hash: "sha256:" + hex.EncodeToString(sum[:]), Size: int64(len(data))}, nil
}

func (d *diskStore) Write(_ context.Context, path string, data []byte, _ string) (string, error) {
	full := d.resolve(path)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return "file:" + full, nil
}

func (d *diskStore) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(d.resolve(path))
	return err == nil, nil
}

func (d *diskStore) Hash(ctx context.Context, path string) (string, error) {
	res, err := d.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Hash, nil
}

func (d *diskStore) BatchWrite(ctx context.Context, items []storage.BatchItem, message string) error {
	for _, it := range items {
		if _, err := d.Write(ctx, it.Path, it.Bytes, message); err != nil {
			return err
		}
	}
	return nil
}

func (d *diskStore) Flags() storage.Flags { return storage.Flags{} }
