package storage

import (
	"time"

	"genetic/internal/model"
)

func sampleRun(id string, created time.Time) model.RunRecord {
	cfg := model.DefaultConfig[float64, uint64]()
	cfg.NumberOfVectors = 2
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		CreatedAt:       created,
		Objective:       "sphere",
		Seed:            42,
		Config:          cfg,
		Generations:     cfg.MaxGenerations,
		Evaluations:     1234,
		BestFitness:     -0.25,
		BestVectors:     [][]float64{{0.5, 0}, {0, 0}},
		Duration:        model.Duration(1500 * time.Millisecond),
	}
}
