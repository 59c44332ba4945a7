package storage

import (
	"context"

	"genetic/internal/model"
)

// Store defines persistence operations for finished runs and their histories.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first; limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
