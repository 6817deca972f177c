package storage

import (
	"context"

	"goalchase/internal/model"
)

// Store persists run history: run descriptors, per-generation summaries,
// best-fitness series and the genomes worth keeping.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenome(ctx context.Context, genome model.Genome) error
	GetGenome(ctx context.Context, id string) (model.Genome, bool, error)
}
