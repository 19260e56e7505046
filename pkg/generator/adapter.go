// Package generator implements the uniform adapter contract spec.md §4.2
// defines for wrapping an external content-generation subprocess: a
// single Generate call that streams lifecycle events to a progress sink
// and returns a Result bounded by an absolute deadline.
//
// Grounded on the teacher's pkg/agent.LLMClient interface shape — an
// interface wrapping an out-of-process capability, a request struct, and
// a channel-based streaming result — adapted from the teacher's gRPC/LLM
// domain to a subprocess/document domain.
package generator

import (
	"context"
	"time"
)

// EventType is one of the lifecycle events a Generate call reports to its
// progress sink, per spec.md §4.2. Delivery is cooperative and best
// effort: a progress sink that blocks or panics must not break Generate.
type EventType string

const (
	EventStarted         EventType = "STARTED"
	EventLLMCallStart    EventType = "LLM_CALL_START"
	EventLLMCallComplete EventType = "LLM_CALL_COMPLETE"
	EventWriting         EventType = "WRITING"
	EventCompleted       EventType = "COMPLETED"
	EventFailed          EventType = "FAILED"
)

// ProgressEvent is one lifecycle notification emitted during Generate.
type ProgressEvent struct {
	Type      EventType
	Detail    string
	Timestamp time.Time
}

// ProgressSink receives ProgressEvents during Generate. Adapters must
// treat delivery as best-effort — a full or nil sink must never block or
// fail generation.
type ProgressSink func(ProgressEvent)

// ErrorCode classifies why a Generate call did not produce usable
// content, per spec.md §4.2 and §4.7.
type ErrorCode string

const (
	ErrorCodeNone             ErrorCode = ""
	ErrorCodeTimeout          ErrorCode = "Timeout"
	ErrorCodeContentEmpty     ErrorCode = "ContentEmpty"
	ErrorCodeGroundingMissing ErrorCode = "GroundingMissing"
	ErrorCodeReasoningMissing ErrorCode = "ReasoningMissing"
	ErrorCodeValidationFail   ErrorCode = "ValidationFail"
	ErrorCodeProcessError     ErrorCode = "ProcessError"
	ErrorCodeAuthFailure      ErrorCode = "AuthFailure"
	ErrorCodeInvalidConfig    ErrorCode = "InvalidConfig"
)

// Metadata is the provenance attached to a successful Result.
type Metadata struct {
	Provider       string
	Model          string
	Iteration      int
	InputTokens    int
	OutputTokens   int
	DurationSeconds float64
	Version        string
}

// Result is the outcome of one Generate call, per spec.md §4.2's contract.
// If Success is true, Content is guaranteed non-empty and non-whitespace —
// enforcing that postcondition is each adapter's responsibility, not the
// caller's.
type Result struct {
	Success     bool
	Content     []byte
	ContentHash string
	Error       string
	ErrorCode   ErrorCode
	Metadata    Metadata
}

// Input bundles everything an adapter needs to produce one candidate:
// the source document, the generator's resolved config, and the
// instructions/guidelines digests that feed the batch payload (§4.2.1).
type Input struct {
	DocumentContent []byte
	DocumentTitle   string
	GeneratorName   string
	Model           string
	Temperature     float64
	Iteration       int
	Params          map[string]any
	InstructionsDigest string
	GuidelinesDigest   string
	OutputDir          string
}

// Adapter is the uniform generator contract, per spec.md §4.2. Exactly
// two concrete implementations exist: FPFAdapter and GPTRAdapter.
type Adapter interface {
	// Name identifies this adapter instance ("fpf", "gptr", or a
	// configured alias) for logging, events, and the per-generator
	// concurrency semaphore.
	Name() string

	// Generate produces one candidate, honoring deadline as an absolute
	// wall-clock instant: the adapter MUST return before it, even if that
	// means success=false, error_code=Timeout.
	Generate(ctx context.Context, input Input, deadline time.Time, sink ProgressSink) (Result, error)

	// HealthCheck reports whether the adapter's backing subprocess binary
	// and environment are usable.
	HealthCheck(ctx context.Context) bool

	// MaxConcurrent is this adapter's per-generator concurrency ceiling.
	// pkg/executor does not call it; its per-generator semaphores are sized
	// from the concurrency config's per_generator value.
	MaxConcurrent() int

	// SupportsIterations reports whether this adapter can be invoked more
	// than once per document to produce independent candidates.
	SupportsIterations() bool
}

func emit(sink ProgressSink, typ EventType, detail string) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink(ProgressEvent{Type: typ, Detail: detail, Timestamp: time.Now()})
}
