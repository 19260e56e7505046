package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/acm/pkg/storage"
)

// localFSProvider is a minimal filesystem-backed storage.Provider used
// only so this binary can run standalone. spec.md's Non-goals place
// concrete storage providers (GitHub, local filesystem) out of scope —
// pkg/storage stays interface-only; a real deployment plugs in its own
// provider (GitHub-backed, most likely, mirroring the teacher's git
// integration) in place of this one.
type localFSProvider struct {
	root string
}

func newLocalFSProvider(root string) (*localFSProvider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localstorage: create root: %w", err)
	}
	return &localFSProvider{root: root}, nil
}

func (p *localFSProvider) resolve(path string) (string, error) {
	full := filepath.Join(p.root, filepath.Clean("/"+path))
	if full != p.root && !isWithin(p.root, full) {
		return "", fmt.Errorf("localstorage: path %q escapes root", path)
	}
	return full, nil
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (p *localFSProvider) Read(_ context.Context, path string) (storage.ReadResult, error) {
	full, err := p.resolve(path)
	if err != nil {
		return storage.ReadResult{}, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return storage.ReadResult{}, fmt.Errorf("localstorage: read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return storage.ReadResult{
		Bytes: data,
		Hash:  "sha256:" + hex.EncodeToString(sum[:]),
		Size:  int64(len(data)),
	}, nil
}

func (p *localFSProvider) Write(_ context.Context, path string, data []byte, _ string) (string, error) {
	full, err := p.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("localstorage: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("localstorage: write %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

func (p *localFSProvider) Exists(_ context.Context, path string) (bool, error) {
	full, err := p.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("localstorage: stat %s: %w", path, err)
	}
	return true, nil
}

func (p *localFSProvider) Hash(ctx context.Context, path string) (string, error) {
	res, err := p.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Hash, nil
}

// BatchWrite has no real atomicity here: each item is written in turn,
// matching Flags().AtomicBatch == false.
func (p *localFSProvider) BatchWrite(ctx context.Context, items []storage.BatchItem, message string) error {
	for _, item := range items {
		if _, err := p.Write(ctx, item.Path, item.Bytes, message); err != nil {
			return err
		}
	}
	return nil
}

func (p *localFSProvider) Flags() storage.Flags {
	return storage.Flags{
		AtomicBatch:      false,
		VersionedHistory: false,
		NativeHash:       true,
		RateLimited:      false,
	}
}
