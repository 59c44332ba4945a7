package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"genetic/internal/model"
)

const (
	configFile      = "config.json"
	historyFile     = "fitness_history.json"
	diagnosticsFile = "generation_diagnostics.json"
	seriesFile      = "fitness_series.csv"
	bestFile        = "best.json"
)

// RunConfig is the config.json artifact.
type RunConfig struct {
	RunID         string          `json:"run_id"`
	Objective     string          `json:"objective"`
	Seed          uint64          `json:"seed"`
	EntropySeeded bool            `json:"entropy_seeded"`
	Config        model.RunConfig `json:"config"`
}

// BestIndividual is the best.json artifact.
type BestIndividual struct {
	Fitness               float64     `json:"fitness"`
	Vectors               [][]float64 `json:"vectors"`
	MutationProbabilities []float64   `json:"mutation_probabilities,omitempty"`
	Generations           int         `json:"generations"`
	Evaluations           int         `json:"evaluations"`
}

type RunArtifacts struct {
	Run                   model.RunRecord
	BestByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics
}

// WriteRunArtifacts lays out one directory per run under baseDir and
// returns its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	run := artifacts.Run
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	cfg := RunConfig{
		RunID:         run.ID,
		Objective:     run.Objective,
		Seed:          run.Seed,
		EntropySeeded: run.EntropySeeded,
		Config:        run.Config,
	}
	if err := writeJSON(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, historyFile), map[string]any{"best_by_generation": artifacts.BestByGeneration, "final_best_fitness": run.BestFitness}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	best := BestIndividual{
		Fitness:               run.BestFitness,
		Vectors:               run.BestVectors,
		MutationProbabilities: run.BestMutationProbabilities,
		Generations:           run.Generations,
		Evaluations:           run.Evaluations,
	}
	if err := writeJSON(filepath.Join(runDir, bestFile), best); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if len(artifacts.BestByGeneration) > 0 {
		title := fmt.Sprintf("%s (%s)", run.Objective, run.ID)
		if err := WriteFitnessPlot(filepath.Join(runDir, FitnessPlotFile), title, artifacts.BestByGeneration, MeanSeries(artifacts.GenerationDiagnostics)); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// ExportRunArtifacts copies a run directory into outDir. config.json and
// fitness_history.json are required; the other files are copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, historyFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{diagnosticsFile, bestFile, seriesFile, FitnessPlotFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func ReadBestIndividual(baseDir, runID string) (BestIndividual, bool, error) {
	var best BestIndividual
	ok, err := readJSON(filepath.Join(baseDir, runID, bestFile), &best)
	return best, ok, err
}

func WriteFitnessSeries(runDir string, bestByGeneration []float64) error {
	file, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i),
			strconv.FormatFloat(best, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
