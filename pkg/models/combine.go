package models

import "time"

// CombineStrategy identifies one of the combiner's five merge strategies.
type CombineStrategy string

const (
	CombineConcatenate      CombineStrategy = "concatenate"
	CombineBestOfN          CombineStrategy = "best_of_n"
	CombineSectionAssembly  CombineStrategy = "section_assembly"
	CombineIntelligentMerge CombineStrategy = "intelligent_merge"
	CombineWeightedBlend    CombineStrategy = "weighted_blend"
)

// CombinedOutput is the persisted result of running a Combiner strategy
// over a document's ranked artifacts (SPEC_FULL §4, combiner.Result
// contract).
type CombinedOutput struct {
	ID                string          `db:"id"`
	RunID             string          `db:"run_id"`
	DocumentID        string          `db:"document_id"`
	StrategyUsed      CombineStrategy `db:"strategy_used"`
	SourceArtifactIDs JSONStringSlice `db:"source_artifact_ids"`
	ContentRef        string          `db:"combined_content_ref"`
	Metrics           JSONMap         `db:"metrics"`
	Warnings          JSONStringSlice `db:"warnings"`
	CreatedAt         time.Time       `db:"created_at"`
}
