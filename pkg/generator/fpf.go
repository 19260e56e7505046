package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/acm/pkg/storage"
	"github.com/codeready-toolchain/acm/pkg/subprocess"
)

// fpfBatchPayload is the JSON document fed to the fpf-cli subprocess on
// stdin, per spec.md §6.2.
type fpfBatchPayload struct {
	Runs      []fpfRunSpec `json:"runs"`
	FileA     string       `json:"file_a"`
	FileB     string       `json:"file_b,omitempty"`
	OutputDir string       `json:"output_dir"`
}

type fpfRunSpec struct {
	Model              string  `json:"model"`
	Temperature        float64 `json:"temperature"`
	InstructionsDigest string  `json:"instructions_digest"`
	GuidelinesDigest   string  `json:"guidelines_digest"`
	Iteration          int     `json:"iteration"`
}

// fpfEvent is one newline-delimited JSON event fpf-cli writes to stdout.
type fpfEvent struct {
	Event string `json:"event"`
	// run_complete fields
	OK    bool   `json:"ok"`
	Path  string `json:"path"`
	Model string `json:"model"`
	// progress fields
	Detail string `json:"detail"`
	// grounding metadata, present on a successful run_complete event
	Grounded  bool `json:"grounded"`
	Reasoned  bool `json:"reasoned"`
	InputTok  int  `json:"input_tokens"`
	OutputTok int  `json:"output_tokens"`
}

const fpfMaxGroundingRetries = 3

// FPFAdapter wraps the fpf-cli content-generation subprocess, per
// spec.md §4.2.1: a single JSON batch on stdin, newline-delimited JSON
// events on stdout, and a grounding/reasoning retry discipline driven by
// the subprocess's own exit-code taxonomy.
type FPFAdapter struct {
	name          string
	command       string
	args          []string
	env           map[string]string
	store         storage.Provider
	maxConcurrent int
	perAttempt    time.Duration
	total         time.Duration
	maxRetries    int
	killGrace     time.Duration
}

// NewFPFAdapter builds an FPFAdapter. cmd/args are the fpf-cli binary and
// its base arguments (e.g. ["--config", cfgFile, "--stdin-json"]); store
// is the Storage Capability used to read the generated file back.
func NewFPFAdapter(name, command string, args []string, env map[string]string, store storage.Provider, maxConcurrent int, perAttempt, total time.Duration, killGrace time.Duration) *FPFAdapter {
	return &FPFAdapter{
		name:          name,
		command:       command,
		args:          args,
		env:           env,
		store:         store,
		maxConcurrent: maxConcurrent,
		perAttempt:    perAttempt,
		total:         total,
		maxRetries:    1 + fpfMaxGroundingRetries,
		killGrace:     killGrace,
	}
}

func (a *FPFAdapter) Name() string            { return a.name }
func (a *FPFAdapter) MaxConcurrent() int      { return a.maxConcurrent }
func (a *FPFAdapter) SupportsIterations() bool { return true }

func (a *FPFAdapter) HealthCheck(ctx context.Context) bool {
	res, err := subprocess.Run(ctx, subprocess.Config{
		Command:           a.command,
		Args:              append(append([]string{}, a.args...), "--version"),
		Env:               a.env,
		PerAttemptTimeout: 5 * time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        1,
	}, nil)
	return err == nil && res.ExitCode == 0
}

// Generate implements Adapter. It applies up to fpfMaxGroundingRetries
// grounding-reinforced retries, each with a progressively stronger
// instructions preamble, before surfacing failure — per spec.md §4.2.1.
func (a *FPFAdapter) Generate(ctx context.Context, input Input, deadline time.Time, sink ProgressSink) (Result, error) {
	emit(sink, EventStarted, "")

	remaining := time.Until(deadline)
	if remaining <= 0 {
		emit(sink, EventFailed, "deadline already passed")
		return Result{Success: false, ErrorCode: ErrorCodeTimeout, Error: "deadline exceeded before start"}, nil
	}

	instructions := input.InstructionsDigest
	reinforceGrounding, reinforceReasoning := false, false

	start := time.Now()
	for attempt := 0; attempt <= fpfMaxGroundingRetries; attempt++ {
		if time.Now().After(deadline) {
			emit(sink, EventFailed, "deadline exceeded during grounding retries")
			return Result{Success: false, ErrorCode: ErrorCodeTimeout, Error: "deadline exceeded"}, nil
		}

		preamble := instructions
		if reinforceGrounding {
			preamble = "IMPORTANT: responses MUST include grounding metadata / web-search citations.\n" + preamble
		}
		if reinforceReasoning {
			preamble = "IMPORTANT: responses MUST include step-by-step reasoning.\n" + preamble
		}

		payload := fpfBatchPayload{
			Runs: []fpfRunSpec{{
				Model:              input.Model,
				Temperature:        input.Temperature,
				InstructionsDigest: preamble,
				GuidelinesDigest:   input.GuidelinesDigest,
				Iteration:          input.Iteration,
			}},
			FileA:     input.DocumentTitle,
			OutputDir: input.OutputDir,
		}
		stdin, err := json.Marshal(payload)
		if err != nil {
			return Result{Success: false, ErrorCode: ErrorCodeInvalidConfig, Error: err.Error()}, nil
		}

		emit(sink, EventLLMCallStart, fmt.Sprintf("attempt %d", attempt+1))

		budgetLeft := time.Until(deadline)
		res, runErr := subprocess.Run(ctx, subprocess.Config{
			Command:           a.command,
			Args:              a.args,
			Env:               a.env,
			Stdin:             stdin,
			PerAttemptTimeout: min(a.perAttempt, budgetLeft),
			TotalTimeout:      min(a.total, budgetLeft),
			MaxRetries:        1, // grounding retries are driven here, not inside subprocess.Run
			KillGrace:         a.killGrace,
			Classify:          subprocess.FPFClassifier,
		}, func(line string) { emit(sink, EventLLMCallComplete, line) })

		if runErr != nil && res.ExitCode == 0 {
			emit(sink, EventFailed, runErr.Error())
			return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: runErr.Error()}, nil
		}

		complete, found := findRunComplete(res.Stdout)
		switch res.ExitCode {
		case 1:
			reinforceGrounding = true
			continue
		case 2:
			reinforceReasoning = true
			continue
		case 3:
			reinforceGrounding, reinforceReasoning = true, true
			continue
		case 4:
			reinforceGrounding, reinforceReasoning = true, true
			continue
		case 0:
			if !found || !complete.OK {
				emit(sink, EventFailed, "no run_complete event")
				return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: "fpf exited 0 without a successful run_complete event"}, nil
			}
			if !complete.Grounded {
				// re-verify grounding metadata; absent means reclassify as 1.
				reinforceGrounding = true
				continue
			}
			return a.finish(ctx, complete, input, start, sink)
		default:
			emit(sink, EventFailed, fmt.Sprintf("exit code %d", res.ExitCode))
			return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: fmt.Sprintf("fpf exited %d", res.ExitCode)}, nil
		}
	}

	emit(sink, EventFailed, "grounding retries exhausted")
	return Result{Success: false, ErrorCode: ErrorCodeGroundingMissing, Error: "exhausted grounding-reinforced retries"}, nil
}

func (a *FPFAdapter) finish(ctx context.Context, complete fpfEvent, input Input, start time.Time, sink ProgressSink) (Result, error) {
	emit(sink, EventWriting, complete.Path)
	read, err := a.store.Read(ctx, complete.Path)
	if err != nil {
		emit(sink, EventFailed, err.Error())
		return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: err.Error()}, nil
	}
	if len(bytes.TrimSpace(read.Bytes)) == 0 {
		emit(sink, EventFailed, "empty content")
		return Result{Success: false, ErrorCode: ErrorCodeContentEmpty, Error: "generated file is empty"}, nil
	}

	sum := sha256.Sum256(read.Bytes)
	emit(sink, EventCompleted, complete.Path)
	return Result{
		Success:     true,
		Content:     read.Bytes,
		ContentHash: "sha256:" + hex.EncodeToString(sum[:]),
		Metadata: Metadata{
			Provider:        a.name,
			Model:           complete.Model,
			Iteration:       input.Iteration,
			InputTokens:     complete.InputTok,
			OutputTokens:    complete.OutputTok,
			DurationSeconds: time.Since(start).Seconds(),
		},
	}, nil
}

func findRunComplete(stdout []byte) (fpfEvent, bool) {
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev fpfEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Event == "run_complete" {
			return ev, true
		}
	}
	return fpfEvent{}, false
}

