package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the concrete configuration persisted with a run.
type RunConfig = Config[float64, uint64]

// RunRecord summarizes one finished engine run.
type RunRecord struct {
	VersionedRecord
	ID                        string      `json:"id"`
	CreatedAt                 time.Time   `json:"created_at"`
	Objective                 string      `json:"objective"`
	Seed                      uint64      `json:"seed"`
	EntropySeeded             bool        `json:"entropy_seeded"`
	Config                    RunConfig   `json:"config"`
	Generations               int         `json:"generations"`
	Evaluations               int         `json:"evaluations"`
	BestFitness               float64     `json:"best_fitness"`
	BestVectors               [][]float64 `json:"best_vectors"`
	BestMutationProbabilities []float64   `json:"best_mutation_probabilities,omitempty"`
	Duration                  Duration    `json:"duration"`
}

// GenerationDiagnostics describes the population right after a generation step.
type GenerationDiagnostics struct {
	Generation              int     `json:"generation"`
	BestFitness             float64 `json:"best_fitness"`
	GenerationBest          float64 `json:"generation_best"`
	MeanFitness             float64 `json:"mean_fitness"`
	MinFitness              float64 `json:"min_fitness"`
	StdDevFitness           float64 `json:"stddev_fitness"`
	Evaluations             int     `json:"evaluations"`
	MeanMutationProbability float64 `json:"mean_mutation_probability,omitempty"`
}

// Duration serializes as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
