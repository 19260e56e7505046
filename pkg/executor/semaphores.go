package executor

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/codeready-toolchain/acm/pkg/config"
)

// Semaphores holds the bounded concurrency limiters spec.md §5 defines:
// one global ceiling, one per generator, one per provider, one for
// single-document evaluation, one for pairwise comparisons. Acquired
// around each suspension point the way the teacher's worker pool bounds
// concurrency with WorkerCount goroutines plus a MaxConcurrentSessions
// check — here expressed as weighted semaphores since the ceilings are
// per-dimension rather than a single pool size.
type Semaphores struct {
	Global   *semaphore.Weighted
	Eval     *semaphore.Weighted
	Pairwise *semaphore.Weighted

	mu           sync.Mutex
	perGenerator map[string]*semaphore.Weighted
	perProvider  map[string]*semaphore.Weighted
	generatorCap int64
	providerCap  int64
}

// NewSemaphores builds the limiter set from the configured budgets.
func NewSemaphores(cfg config.ConcurrencyYAMLConfig) *Semaphores {
	global := int64(cfg.Global)
	if global < 1 {
		global = 1
	}
	evalCap := int64(cfg.Eval)
	if evalCap < 1 {
		evalCap = 1
	}
	pairwiseCap := int64(cfg.Pairwise)
	if pairwiseCap < 1 {
		pairwiseCap = 1
	}
	generatorCap := int64(cfg.PerGenerator)
	if generatorCap < 1 {
		generatorCap = 1
	}
	providerCap := int64(cfg.PerProvider)
	if providerCap < 1 {
		providerCap = 1
	}
	return &Semaphores{
		Global:       semaphore.NewWeighted(global),
		Eval:         semaphore.NewWeighted(evalCap),
		Pairwise:     semaphore.NewWeighted(pairwiseCap),
		perGenerator: make(map[string]*semaphore.Weighted),
		perProvider:  make(map[string]*semaphore.Weighted),
		generatorCap: generatorCap,
		providerCap:  providerCap,
	}
}

// ForGenerator returns the semaphore bounding concurrent Generate calls
// for one named generator, creating it lazily on first use.
func (s *Semaphores) ForGenerator(name string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.perGenerator[name]
	if !ok {
		sem = semaphore.NewWeighted(s.generatorCap)
		s.perGenerator[name] = sem
	}
	return sem
}

// ForProvider returns the semaphore bounding concurrent calls against one
// named upstream provider (an LLM API a generator or judge ultimately
// calls), creating it lazily on first use.
func (s *Semaphores) ForProvider(name string) *semaphore.Weighted {
	if name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.perProvider[name]
	if !ok {
		sem = semaphore.NewWeighted(s.providerCap)
		s.perProvider[name] = sem
	}
	return sem
}
