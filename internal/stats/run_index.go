package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"genetic/internal/model"
)

const (
	runIndexFile = "run_index.json"
	// Fixed width so rows sort lexically by time.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Objective        string  `json:"objective"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             uint64  `json:"seed"`
	Evaluations      int     `json:"evaluations"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// IndexEntry derives the index row of a finished run.
func IndexEntry(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:            run.ID,
		Objective:        run.Objective,
		PopulationSize:   run.Config.PopulationSize,
		Generations:      run.Generations,
		Seed:             run.Seed,
		Evaluations:      run.Evaluations,
		FinalBestFitness: run.BestFitness,
		CreatedAtUTC:     run.CreatedAt.UTC().Format(timeLayout),
	}
}

// AppendRunIndex adds entry to the index under baseDir, replacing any row
// with the same run id.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index rows newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ReadGenerationDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	var diagnostics []model.GenerationDiagnostics
	ok, err := readJSON(filepath.Join(baseDir, runID, diagnosticsFile), &diagnostics)
	return diagnostics, ok, err
}
