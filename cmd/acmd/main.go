// Command acmd runs the ACM worker: it polls for queued runs, drives them
// through generation, evaluation, pairwise ranking and combination, and
// publishes progress over Postgres LISTEN/NOTIFY. Per spec.md's Non-goals
// the HTTP surface, web UI and CLI wrappers live outside this module —
// acmd is a worker process with no router.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/evaluator"
	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/executor"
	"github.com/codeready-toolchain/acm/pkg/generator"
	"github.com/codeready-toolchain/acm/pkg/judge"
	"github.com/codeready-toolchain/acm/pkg/pairwise"
	"github.com/codeready-toolchain/acm/pkg/store"
	"github.com/codeready-toolchain/acm/pkg/version"
)

func main() {
	configDir := flag.String("config-dir", ".", "directory containing acm.yaml")
	storageRoot := flag.String("storage-root", "./acm-data", "root directory for the local filesystem storage provider")
	podID := flag.String("pod-id", "", "identity this worker pool claims runs under (defaults to hostname-pid)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, *storageRoot, resolvePodID(*podID)); err != nil {
		slog.Error("acmd exited with error", "error", err)
		os.Exit(1)
	}
}

func resolvePodID(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	host, err := os.Hostname()
	if err != nil {
		host = "acmd"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func run(ctx context.Context, configDir, storageRoot, podID string) error {
	log := slog.With("pod_id", podID, "version", version.Full())
	log.Info("starting acmd")

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn := os.Getenv(cfg.Database.DSNEnv)
	if dsn == "" {
		return fmt.Errorf("environment variable %s is not set", cfg.Database.DSNEnv)
	}

	db, err := store.Open(ctx, store.Config{
		DSN:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	stores := store.NewStores(db)
	defer func() {
		if cerr := stores.Close(); cerr != nil {
			log.Error("error closing database", "error", cerr)
		}
	}()

	storageProvider, err := newLocalFSProvider(storageRoot)
	if err != nil {
		return fmt.Errorf("init storage provider: %w", err)
	}

	judges, callTimeout, err := buildJudges(cfg)
	if err != nil {
		return fmt.Errorf("build judges: %w", err)
	}

	adapters, err := buildAdapters(cfg, storageProvider)
	if err != nil {
		return fmt.Errorf("build generator adapters: %w", err)
	}

	judgeWeights := make(map[string]float64, len(cfg.Judges))
	for name, j := range cfg.Judges {
		judgeWeights[name] = j.Weight
	}

	publisher := events.NewPublisher(stores.DB.DB.DB)

	deps := &executor.Deps{
		Config:       cfg,
		Runs:         stores.Runs,
		Tasks:        stores.Tasks,
		Docs:         stores.Documents,
		Artifacts:    stores.Artifacts,
		Evals:        stores.Evals,
		Pairwise:     stores.Pairwise,
		Combined:     stores.Combined,
		Adapters:     adapters,
		Judges:       judges,
		Evaluator:    evaluator.NewFromConfig(cfg.Evaluation, judgeWeights, callTimeout),
		PairwiseEval: pairwise.NewFromConfig(stores.Pairwise, cfg.Pairwise, callTimeout),
		Storage:      storageProvider,
		Publisher:    publisher,
		Sems:         executor.NewSemaphores(cfg.Concurrency),
	}

	runExecutor := executor.NewExecutor(deps)
	pool := executor.NewWorkerPool(podID, deps, runExecutor, cfg.Worker.MaxConcurrentRuns)

	if err := executor.CleanupStartupOrphans(ctx, stores.Runs, podID); err != nil {
		log.Error("startup orphan cleanup failed", "error", err)
	}

	cancelListener := events.NewCancelListener(dsn, func(runID string) {
		if pool.CancelRun(runID) {
			log.Info("run cancelled via notify", "run_id", runID)
		}
	})
	if err := cancelListener.Start(ctx); err != nil {
		log.Error("cancel listener failed to start", "error", err)
	}

	pool.Start(ctx)
	log.Info("acmd worker pool started", "workers", cfg.Worker.MaxConcurrentRuns)

	<-ctx.Done()
	log.Info("shutdown signal received, draining")
	pool.Stop()

	return nil
}

// buildJudges constructs one judge.Client per configured judge and picks
// a single call timeout for the evaluator/pairwise engines: the longest
// timeout any configured judge declares, or 60s if none do. Per-judge
// granularity isn't threaded through evaluator.NewFromConfig/
// pairwise.NewFromConfig, which each take one callTimeout for every
// judge they call.
func buildJudges(cfg *config.Config) (map[string]*judge.Client, time.Duration, error) {
	clients := make(map[string]*judge.Client, len(cfg.Judges))
	var callTimeout time.Duration
	for name, jc := range cfg.Judges {
		apiKey := ""
		if jc.APIKeyEnv != "" {
			apiKey = os.Getenv(jc.APIKeyEnv)
		}
		client, err := judge.New(name, *jc, apiKey)
		if err != nil {
			return nil, 0, fmt.Errorf("judge %q: %w", name, err)
		}
		clients[name] = client
		if jc.Timeout > callTimeout {
			callTimeout = jc.Timeout
		}
	}
	if callTimeout == 0 {
		callTimeout = 60 * time.Second
	}
	return clients, callTimeout, nil
}

// buildAdapters constructs one generator.Adapter per configured
// generator. The subprocess binary path and base arguments are
// deployment concerns, not modeled in GeneratorYAMLConfig, and are
// resolved from environment variables named after the generator entry
// (e.g. "ACM_GENERATOR_FPF_COMMAND"). Base arguments are passed to FPF
// adapters only; a GPTR entry uses just its _COMMAND value.
func buildAdapters(cfg *config.Config, store *localFSProvider) (map[string]generator.Adapter, error) {
	adapters := make(map[string]generator.Adapter, len(cfg.Generators))
	for name, gc := range cfg.Generators {
		env := map[string]string{}
		for _, key := range gc.CommandEnv {
			if v, ok := os.LookupEnv(key); ok {
				env[key] = v
			}
		}
		killGrace := gc.KillAfter - gc.Timeout
		if killGrace <= 0 {
			killGrace = 30 * time.Second
		}

		switch gc.Adapter {
		case config.AdapterKindFPF:
			command, args := resolveCommand(name, "fpf-cli", nil)
			adapters[name] = generator.NewFPFAdapter(name, command, args, env, store, gc.MaxConcurrent, gc.Timeout, gc.KillAfter, killGrace)
		case config.AdapterKindGPTR:
			command, _ := resolveCommand(name, "gptr-cli", nil)
			adapters[name] = generator.NewGPTRAdapter(name, command, "research_report", writePromptFile, env, store, gc.MaxConcurrent, gc.Timeout, gc.KillAfter, killGrace)
		default:
			return nil, fmt.Errorf("generator %q: unsupported adapter %q", name, gc.Adapter)
		}
	}
	return adapters, nil
}

// resolveCommand reads "ACM_GENERATOR_<NAME>_COMMAND" and
// "ACM_GENERATOR_<NAME>_ARGS" (space-separated), falling back to
// defaultCommand and defaultArgs when unset.
func resolveCommand(name, defaultCommand string, defaultArgs []string) (string, []string) {
	prefix := "ACM_GENERATOR_" + strings.ToUpper(name)
	command := defaultCommand
	if v := os.Getenv(prefix + "_COMMAND"); v != "" {
		command = v
	}
	args := defaultArgs
	if v := os.Getenv(prefix + "_ARGS"); v != "" {
		args = strings.Fields(v)
	}
	return command, args
}

// writePromptFile materializes gpt-researcher's prompt file in the OS
// temp directory; the returned cleanup removes it once the subprocess
// has read it.
func writePromptFile(_ context.Context, content []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "acm-gptr-prompt-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("create prompt file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("write prompt file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("close prompt file: %w", err)
	}
	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}
