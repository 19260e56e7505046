package generator_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/codeready-toolchain/acm/pkg/storage"
)

// memStore is a minimal in-memory storage.Provider fake for adapter
// tests — concrete storage providers are out of scope for this module,
// so tests exercise the interface against a fixture rather than a real
// backend.
type memStore struct {
	files map[string][]byte
}

func newMemStore(files map[string][]byte) *memStore {
	return &memStore{files: files}
}

func (m *memStore) Read(_ context.Context, path string) (storage.ReadResult, error) {
	data, ok := m.files[path]
	if !ok {
		return storage.ReadResult{}, errors.New("not found: " + path)
	}
	sum := sha256.Sum256(data)
	return storage.ReadResult{Bytes: data, Hash: "sha256:" + hex.EncodeToString(sum[:]), Size: int64(len(data))}, nil
}

func (m *memStore) Write(_ context.Context, path string, data []byte, _ string) (string, error) {
	m.files[path] = data
	return "mem:" + path, nil
}

func (m *memStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *memStore) Hash(ctx context.Context, path string) (string, error) {
	res, err := m.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Hash, nil
}

func (m *memStore) BatchWrite(ctx context.Context, items []storage.BatchItem, message string) error {
	for _, it := range items {
		if _, err := m.Write(ctx, it.Path, it.Bytes, message); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Flags() storage.Flags { return storage.Flags{} }
