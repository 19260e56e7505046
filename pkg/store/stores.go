package store

// Stores bundles every repository over one connection pool, the same way
// the teacher's database.Client bundles its Ent client — a single value
// the executor and cmd/acmd wiring pass around instead of threading eight
// separate repository arguments.
type Stores struct {
	DB        *DB
	Runs      *RunRepo
	Documents *DocumentRepo
	Artifacts *ArtifactRepo
	Tasks     *TaskRepo
	Evals     *EvalRepo
	Pairwise  *PairwiseRepo
	Combined  *CombinedRepo
}

// NewStores wires every repository over a single *DB.
func NewStores(db *DB) *Stores {
	return &Stores{
		DB:        db,
		Runs:      NewRunRepo(db),
		Documents: NewDocumentRepo(db),
		Artifacts: NewArtifactRepo(db),
		Tasks:     NewTaskRepo(db),
		Evals:     NewEvalRepo(db),
		Pairwise:  NewPairwiseRepo(db),
		Combined:  NewCombinedRepo(db),
	}
}

// Close releases the underlying connection pool.
func (s *Stores) Close() error {
	return s.DB.Close()
}
