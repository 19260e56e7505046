package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/codeready-toolchain/acm/pkg/storage"
	"github.com/codeready-toolchain/acm/pkg/subprocess"
)

// gptrFinalLine is the single terminal JSON line gpt-researcher's CLI
// writes to stdout on success, per spec.md §6.2.
type gptrFinalLine struct {
	Path  string `json:"path"`
	Model string `json:"model"`
}

// GPTRAdapter wraps the gpt-researcher subprocess: a prompt-file path and
// report-type flag, model selection through SMART_LLM/FAST_LLM/
// STRATEGIC_LLM environment variables, and a one-shot retry covering the
// transient "prompt file not found" race, per spec.md §4.2.2.
type GPTRAdapter struct {
	name          string
	command       string
	reportType    string
	promptWriter  func(ctx context.Context, content []byte) (path string, cleanup func(), err error)
	env           map[string]string
	store         storage.Provider
	maxConcurrent int
	perAttempt    time.Duration
	total         time.Duration
	killGrace     time.Duration
}

// NewGPTRAdapter builds a GPTRAdapter. promptWriter materializes the
// prompt file gpt-researcher reads and returns a cleanup func; store
// reads back the generated report.
func NewGPTRAdapter(name, command, reportType string, promptWriter func(ctx context.Context, content []byte) (string, func(), error), env map[string]string, store storage.Provider, maxConcurrent int, perAttempt, total, killGrace time.Duration) *GPTRAdapter {
	return &GPTRAdapter{
		name:          name,
		command:       command,
		reportType:    reportType,
		promptWriter:  promptWriter,
		env:           env,
		store:         store,
		maxConcurrent: maxConcurrent,
		perAttempt:    perAttempt,
		total:         total,
		killGrace:     killGrace,
	}
}

func (a *GPTRAdapter) Name() string             { return a.name }
func (a *GPTRAdapter) MaxConcurrent() int       { return a.maxConcurrent }
func (a *GPTRAdapter) SupportsIterations() bool { return false }

func (a *GPTRAdapter) HealthCheck(ctx context.Context) bool {
	res, err := subprocess.Run(ctx, subprocess.Config{
		Command:           a.command,
		Args:              []string{"--version"},
		Env:               a.env,
		PerAttemptTimeout: 5 * time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        1,
	}, nil)
	return err == nil && res.ExitCode == 0
}

func (a *GPTRAdapter) Generate(ctx context.Context, input Input, deadline time.Time, sink ProgressSink) (Result, error) {
	emit(sink, EventStarted, "")

	if time.Now().After(deadline) {
		emit(sink, EventFailed, "deadline already passed")
		return Result{Success: false, ErrorCode: ErrorCodeTimeout, Error: "deadline exceeded before start"}, nil
	}

	promptPath, cleanup, err := a.promptWriter(ctx, input.DocumentContent)
	if err != nil {
		emit(sink, EventFailed, err.Error())
		return Result{Success: false, ErrorCode: ErrorCodeInvalidConfig, Error: err.Error()}, nil
	}
	defer cleanup()

	env := make(map[string]string, len(a.env)+3)
	for k, v := range a.env {
		env[k] = v
	}
	if input.Model != "" {
		env["SMART_LLM"] = input.Model
		env["FAST_LLM"] = input.Model
		env["STRATEGIC_LLM"] = input.Model
	}

	start := time.Now()
	emit(sink, EventLLMCallStart, "")

	budgetLeft := time.Until(deadline)
	res, runErr := subprocess.Run(ctx, subprocess.Config{
		Command:           a.command,
		Args:              []string{"--prompt-file", promptPath, "--report-type", a.reportType},
		Env:               env,
		PerAttemptTimeout: min(a.perAttempt, budgetLeft),
		TotalTimeout:      min(a.total, budgetLeft),
		MaxRetries:        2, // one-shot retry for the "prompt file not found" race
		KillGrace:         a.killGrace,
		Classify:          subprocess.GPTRClassifier,
	}, func(line string) { emit(sink, EventLLMCallComplete, line) })

	if runErr != nil {
		emit(sink, EventFailed, runErr.Error())
		code := ErrorCodeProcessError
		if res.ExitCode == -1 {
			code = ErrorCodeTimeout
		}
		return Result{Success: false, ErrorCode: code, Error: runErr.Error()}, nil
	}

	final, ok := findFinalLine(res.Stdout)
	if !ok {
		emit(sink, EventFailed, "no final JSON line on stdout")
		return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: "gptr exited 0 without a final JSON line"}, nil
	}

	emit(sink, EventWriting, final.Path)
	read, err := a.store.Read(ctx, final.Path)
	if err != nil {
		emit(sink, EventFailed, err.Error())
		return Result{Success: false, ErrorCode: ErrorCodeProcessError, Error: err.Error()}, nil
	}
	if len(bytes.TrimSpace(read.Bytes)) == 0 {
		emit(sink, EventFailed, "empty content")
		return Result{Success: false, ErrorCode: ErrorCodeContentEmpty, Error: "generated report is empty"}, nil
	}

	sum := sha256.Sum256(read.Bytes)
	emit(sink, EventCompleted, final.Path)
	return Result{
		Success:     true,
		Content:     read.Bytes,
		ContentHash: "sha256:" + hex.EncodeToString(sum[:]),
		Metadata: Metadata{
			Provider:        a.name,
			Model:           final.Model,
			Iteration:       input.Iteration,
			DurationSeconds: time.Since(start).Seconds(),
		},
	}, nil
}

func findFinalLine(stdout []byte) (gptrFinalLine, bool) {
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var fl gptrFinalLine
		if err := json.Unmarshal([]byte(line), &fl); err != nil {
			continue
		}
		if fl.Path != "" {
			return fl, true
		}
	}
	return gptrFinalLine{}, false
}
