package genetic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"genetic/internal/codec"
	"genetic/internal/evo"
	"genetic/internal/genotype"
	"genetic/internal/metrics"
	"genetic/internal/model"
	"genetic/internal/objective"
	"genetic/internal/stats"
	"genetic/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "genetic.db"
)

// ErrNonFiniteFitness stops a run whose best fitness is NaN or infinite;
// such runs cannot be persisted.
var ErrNonFiniteFitness = errors.New("non-finite best fitness")

type (
	RunConfig             = model.RunConfig
	RunRecord             = model.RunRecord
	GenerationDiagnostics = model.GenerationDiagnostics
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	// Registerer receives the run metrics; nil disables them.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

type Client struct {
	store    storage.Store
	recorder *metrics.Recorder
	logger   *slog.Logger

	artifactsDir string
	exportsDir   string

	initOnce sync.Once
	initErr  error
	now      func() time.Time
}

type RunRequest struct {
	Objective string
	// Config defaults to DefaultConfig when left zero.
	Config RunConfig
	// UseObjectiveBounds replaces the config range with the objective's
	// suggested one when it has one.
	UseObjectiveBounds bool
	// Seed 0 draws the seed from system entropy.
	Seed uint64
	// Reporter, when set, receives verbose progress.
	Reporter Reporter[float64, uint64]
	// SkipArtifacts keeps the run out of the artifacts directory.
	SkipArtifacts bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Seed             uint64
	BestByGeneration []float64
	FinalBestFitness float64
	BestVectors      [][]float64
	Evaluations      int
	Duration         time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAt        time.Time
	Objective        string
	Seed             uint64
	Population       int
	Generations      int
	Evaluations      int
	FinalBestFitness float64
}

type RunSelector struct {
	RunID  string
	Latest bool
}

type HistoryRequest struct {
	RunSelector
	Limit int
}

type ExportRequest struct {
	RunSelector
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunSelector
	// Output defaults to fitness.png in the run's artifact directory.
	Output string
}

type ObjectiveItem struct {
	Name         string
	Description  string
	MinReal      float64
	MaxReal      float64
	MinDimension int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:        store,
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		now:          time.Now,
	}
	if opts.Registerer != nil {
		recorder, err := metrics.NewRecorder(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		c.recorder = recorder
	}
	return c, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Objectives lists the registered fitness functions.
func (c *Client) Objectives() []ObjectiveItem {
	list := objective.List()
	out := make([]ObjectiveItem, 0, len(list))
	for _, o := range list {
		out = append(out, ObjectiveItem{
			Name:         o.Name,
			Description:  o.Description,
			MinReal:      o.MinReal,
			MaxReal:      o.MaxReal,
			MinDimension: o.MinDimension,
		})
	}
	return out
}

// Run evolves a registered objective and records the run. Cancelling ctx
// stops the run after the current generation.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Objective == "" {
		req.Objective = "sphere"
	}
	obj, err := objective.Get(req.Objective)
	if err != nil {
		return RunSummary{}, err
	}

	cfg := req.Config
	if cfg == (RunConfig{}) {
		cfg = DefaultConfig[float64, uint64]()
	}
	if req.UseObjectiveBounds && obj.MaxReal > obj.MinReal {
		cfg.MinReal, cfg.MaxReal = obj.MinReal, obj.MaxReal
	}
	if cfg.Dimension < obj.MinDimension {
		return RunSummary{}, fmt.Errorf("objective %s needs dimension >= %d, got %d", obj.Name, obj.MinDimension, cfg.Dimension)
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	createdAt := c.now().UTC()
	diagnostics := make([]model.GenerationDiagnostics, 0, cfg.MaxGenerations)

	var engine *evo.Engine[float64, uint64]
	observe := func(generation int, best float64, ind *genotype.Individual[float64, uint64]) error {
		d := stats.Diagnose(generation, best, engine.Evaluations(), engine.Fitnesses(), ind.MutationProbabilities())
		if math.IsNaN(best) || math.IsInf(best, 0) {
			return fmt.Errorf("%w: generation %d best is %v", ErrNonFiniteFitness, generation, best)
		}
		diagnostics = append(diagnostics, d)
		if c.recorder != nil {
			c.recorder.Observe(runID, d)
		}
		return ctx.Err()
	}
	opts := []evo.Option[float64, uint64]{evo.WithObserver(observe)}
	if req.Reporter != nil {
		opts = append(opts, evo.WithReporter(req.Reporter))
	}

	engine, err = evo.New(cfg, evo.Pure(obj.Fitness), evo.SeedFromUint64(req.Seed), opts...)
	if err != nil {
		return RunSummary{}, err
	}
	seed := engine.Seed().Value()
	c.logger.Info("run started", "run_id", runID, "objective", obj.Name, "seed", seed,
		"population_size", cfg.PopulationSize, "generations", cfg.MaxGenerations,
		"resolution", codec.Step[float64, uint64](cfg.MinReal, cfg.MaxReal, cfg.IntegerBits))

	started := time.Now()
	if err := engine.Run(req.Reporter != nil, nil); err != nil {
		c.logger.Warn("run stopped", "run_id", runID, "generation", engine.Generation(), "error", err)
		if c.recorder != nil {
			c.recorder.Forget(runID)
		}
		return RunSummary{}, err
	}
	elapsed := time.Since(started)

	best := engine.BestIndividual()
	history := stats.BestSeries(diagnostics)
	record := model.RunRecord{
		VersionedRecord:           storage.Versioned(),
		ID:                        runID,
		CreatedAt:                 createdAt,
		Objective:                 obj.Name,
		Seed:                      seed,
		EntropySeeded:             req.Seed == 0,
		Config:                    cfg,
		Generations:               engine.Generation(),
		Evaluations:               engine.Evaluations(),
		BestFitness:               engine.BestFitness(),
		BestVectors:               best.ToRealVectors(),
		BestMutationProbabilities: best.MutationProbabilities(),
		Duration:                  model.Duration(elapsed),
	}

	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history %s: %w", runID, err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics %s: %w", runID, err)
	}

	summary := RunSummary{
		RunID:            runID,
		Seed:             seed,
		BestByGeneration: history,
		FinalBestFitness: record.BestFitness,
		BestVectors:      record.BestVectors,
		Evaluations:      record.Evaluations,
		Duration:         elapsed,
	}
	if !req.SkipArtifacts {
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
			Run:                   record,
			BestByGeneration:      history,
			GenerationDiagnostics: diagnostics,
		})
		if err != nil {
			return RunSummary{}, err
		}
		if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntry(record)); err != nil {
			return RunSummary{}, err
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}

	if c.recorder != nil {
		c.recorder.Finish(runID)
	}
	c.logger.Info("run finished", "run_id", runID, "best_fitness", record.BestFitness,
		"evaluations", record.Evaluations, "duration", elapsed)
	return summary, nil
}

// Runs lists runs known to the store or the artifacts index, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(records))
	out := make([]RunItem, 0, len(records))
	for _, r := range records {
		seen[r.ID] = true
		out = append(out, RunItem{
			RunID:            r.ID,
			CreatedAt:        r.CreatedAt,
			Objective:        r.Objective,
			Seed:             r.Seed,
			Population:       r.Config.PopulationSize,
			Generations:      r.Generations,
			Evaluations:      r.Evaluations,
			FinalBestFitness: r.BestFitness,
		})
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if seen[e.RunID] {
			continue
		}
		createdAt, _ := time.Parse(time.RFC3339Nano, e.CreatedAtUTC)
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAt:        createdAt,
			Objective:        e.Objective,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			Evaluations:      e.Evaluations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// FitnessHistory returns the best-so-far fitness of every generation.
func (c *Client) FitnessHistory(ctx context.Context, req HistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunSelector, "fitness history")
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessSeries(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req HistoryRequest) ([]GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunSelector, "diagnostics")
	if err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

// Plot renders the best and mean fitness curves of a run and returns the
// written path.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(ctx, req.RunSelector, "plot")
	if err != nil {
		return "", err
	}
	diagnostics, err := c.Diagnostics(ctx, HistoryRequest{RunSelector: RunSelector{RunID: runID}})
	if err != nil {
		return "", err
	}

	out := req.Output
	if out == "" {
		out = filepath.Join(c.artifactsDir, runID, stats.FitnessPlotFile)
	}
	if err := stats.WriteFitnessPlot(out, runID, stats.BestSeries(diagnostics), stats.MeanSeries(diagnostics)); err != nil {
		return "", err
	}
	return filepath.Clean(out), nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunSelector, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(ctx context.Context, sel RunSelector, what string) (string, error) {
	if sel.RunID != "" && sel.Latest {
		return "", errors.New("use either run id or latest")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if sel.RunID != "" {
		return sel.RunID, nil
	}
	if !sel.Latest {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}

	runs, err := c.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].RunID, nil
}
