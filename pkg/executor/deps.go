package executor

import (
	"github.com/codeready-toolchain/acm/pkg/combiner"
	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/evaluator"
	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/generator"
	"github.com/codeready-toolchain/acm/pkg/judge"
	"github.com/codeready-toolchain/acm/pkg/pairwise"
	"github.com/codeready-toolchain/acm/pkg/storage"
	"github.com/codeready-toolchain/acm/pkg/store"
)

// Deps bundles everything one Executor needs to drive a Run: the
// configuration snapshot, every repository, the constructed generator
// adapters and judge clients, and the cross-cutting evaluator/pairwise/
// combiner engines and publishers. Built once at startup in cmd/acmd and
// shared across every Worker.
//
// *judge.Client is used directly for Judges rather than threading a
// narrowed interface through this package: it already structurally
// satisfies evaluator.JudgeCaller, pairwise.JudgeCaller and
// combiner.MergeCaller, so each consumer narrows it to the shape it
// needs at the call site.
type Deps struct {
	Config *config.Config

	Runs      *store.RunRepo
	Tasks     *store.TaskRepo
	Docs      *store.DocumentRepo
	Artifacts *store.ArtifactRepo
	Evals     *store.EvalRepo
	Pairwise  *store.PairwiseRepo
	Combined  *store.CombinedRepo

	Adapters map[string]generator.Adapter
	Judges   map[string]*judge.Client

	Evaluator    *evaluator.Evaluator
	PairwiseEval *pairwise.Evaluator
	Storage      storage.Provider
	Publisher    *events.Publisher

	Sems *Semaphores
}

// evalJudges resolves a named judge list into evaluator.JudgeCaller,
// skipping names that aren't configured rather than failing the run.
func (d *Deps) evalJudges(names []string) []evaluator.JudgeCaller {
	out := make([]evaluator.JudgeCaller, 0, len(names))
	for _, n := range names {
		if j, ok := d.Judges[n]; ok {
			out = append(out, j)
		}
	}
	return out
}

// pairwiseJudges resolves a named judge list into pairwise.JudgeCaller.
func (d *Deps) pairwiseJudges(names []string) []pairwise.JudgeCaller {
	out := make([]pairwise.JudgeCaller, 0, len(names))
	for _, n := range names {
		if j, ok := d.Judges[n]; ok {
			out = append(out, j)
		}
	}
	return out
}

// mergeCaller resolves the combiner's configured merge model to a
// combiner.MergeCaller, or nil if intelligent_merge isn't in use or the
// named judge isn't configured.
func (d *Deps) mergeCaller(name string) combiner.MergeCaller {
	j, ok := d.Judges[name]
	if !ok {
		return nil
	}
	return j
}
