// Package storage defines the Storage Capability contract the core
// consumes for reading and writing document/artifact content, per
// spec.md §6.1. Concrete providers (GitHub, local filesystem) are
// explicitly out of scope (spec.md Non-goals) — the core depends only on
// this interface, and reconciles via the artifact index rather than
// relying on any provider's atomicity guarantees.
package storage

import "context"

// Flags advertises what a Provider implementation can guarantee, so the
// core can choose whether to rely on atomic batches or fall back to
// per-item writes with index-based reconciliation.
type Flags struct {
	AtomicBatch     bool
	VersionedHistory bool
	NativeHash      bool
	RateLimited     bool
}

// ReadResult is the outcome of a Provider.Read call.
type ReadResult struct {
	Bytes []byte
	Hash  string // "git:<sha>" or "sha256:<hex>"
	Size  int64
}

// BatchItem is one write within a Provider.BatchWrite call.
type BatchItem struct {
	Path    string
	Bytes   []byte
	Message string
}

// Provider is the Storage Capability the core depends on: semantic
// read/write/exists/hash operations keyed by logical path, per
// spec.md §6.1. Implementations live outside this module.
type Provider interface {
	Read(ctx context.Context, path string) (ReadResult, error)
	Write(ctx context.Context, path string, data []byte, message string) (commitRef string, err error)
	Exists(ctx context.Context, path string) (bool, error)
	Hash(ctx context.Context, path string) (string, error)
	BatchWrite(ctx context.Context, items []BatchItem, message string) error
	Flags() Flags
}
