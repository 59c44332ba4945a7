package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genetic/internal/evo"
	"genetic/internal/stats"
	"genetic/internal/storage"
	"genetic/pkg/genetic"
)

const (
	artifactsDir  = "runs"
	exportsDir    = "exports"
	defaultDBPath = "genetic.db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "objectives":
		return runObjectives(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags are shared by every command that touches run history.
type storeFlags struct {
	storeKind *string
	dbPath    *string
	artifacts *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifacts: fs.String("artifacts", artifactsDir, "run artifacts directory"),
	}
}

func (f storeFlags) client(opts genetic.Options) (*genetic.Client, error) {
	opts.StoreKind = *f.storeKind
	opts.DBPath = *f.dbPath
	opts.ArtifactsDir = *f.artifacts
	if opts.ExportsDir == "" {
		opts.ExportsDir = exportsDir
	}
	return genetic.New(opts)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config file (YAML or JSON)")
	objectiveName := fs.String("objective", "sphere", "objective name (see: geneticctl objectives)")
	seed := fs.Uint64("seed", 0, "rng seed (0 draws one from system entropy)")
	objectiveBounds := fs.Bool("objective-bounds", false, "use the objective's suggested search range")
	def := genetic.DefaultConfig[float64, uint64]()
	population := fs.Int("pop", def.PopulationSize, "population size (multiple of 4)")
	generations := fs.Int("gens", def.MaxGenerations, "generation count")
	vectors := fs.Int("vectors", def.NumberOfVectors, "number of vectors per individual")
	dimension := fs.Int("dim", def.Dimension, "values per vector")
	minReal := fs.Float64("min", def.MinReal, "lower bound of decoded values")
	maxReal := fs.Float64("max", def.MaxReal, "upper bound of decoded values")
	bits := fs.Int("bits", def.IntegerBits, "bits per gene")
	crossover := fs.String("crossover", def.CrossoverMethod.String(), "crossover: single_point_bit_level|uniform_bit_level")
	tournament := fs.Int("tournament", def.TournamentSize, "tournament size")
	elitism := fs.Bool("elitism", def.EnableElitism, "keep the best individual across generations")
	autoAdapt := fs.Bool("auto-adapt", def.EnableAutoAdaptation, "evolve per-chromosome mutation probabilities")
	mutation := fs.Float64("mutation", def.InitialMutationProbability, "initial per-bit mutation probability")
	uniformProb := fs.Float64("uniform-prob", def.UniformCrossoverProbability, "uniform crossover keep probability")
	printInterval := fs.Int("print-interval", def.PrintInterval, "progress report interval in generations")
	quiet := fs.Bool("quiet", false, "disable progress reporting")
	noArtifacts := fs.Bool("no-artifacts", false, "skip writing the artifact directory")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	file, err := loadOrDefaultRunFile(*configPath)
	if err != nil {
		return err
	}
	err = overrideFromFlags(&file, setFlags, map[string]any{
		"objective":        *objectiveName,
		"seed":             *seed,
		"objective-bounds": *objectiveBounds,
		"pop":              *population,
		"gens":             *generations,
		"vectors":          *vectors,
		"dim":              *dimension,
		"min":              *minReal,
		"max":              *maxReal,
		"bits":             *bits,
		"crossover":        *crossover,
		"tournament":       *tournament,
		"elitism":          *elitism,
		"auto-adapt":       *autoAdapt,
		"mutation":         *mutation,
		"uniform-prob":     *uniformProb,
		"print-interval":   *printInterval,
	})
	if err != nil {
		return err
	}

	terminal := stdoutIsTerminal()
	logger := newLogger(os.Stderr, terminal)

	opts := genetic.Options{Logger: logger}
	var registry *prometheus.Registry
	if *metricsAddr != "" {
		registry = prometheus.NewRegistry()
		opts.Registerer = registry
	}
	client, err := store.client(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if registry != nil {
		shutdown, err := serveMetrics(*metricsAddr, registry, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	req := genetic.RunRequest{
		Objective:          file.Objective,
		Config:             file.RunConfig,
		UseObjectiveBounds: file.UseObjectiveBounds,
		Seed:               file.Seed,
		SkipArtifacts:      *noArtifacts,
	}
	if !*quiet {
		if terminal {
			req.Reporter = evo.NewTextReporter[float64, uint64](os.Stdout)
		} else {
			req.Reporter = evo.NewLogReporter[float64, uint64](logger)
		}
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(map[string]any{
			"run_id":             summary.RunID,
			"seed":               summary.Seed,
			"final_best_fitness": summary.FinalBestFitness,
			"best_vectors":       summary.BestVectors,
			"best_by_generation": summary.BestByGeneration,
			"evaluations":        summary.Evaluations,
			"duration":           summary.Duration.String(),
			"artifacts_dir":      summary.ArtifactsDir,
		})
	}
	fmt.Printf("run completed run_id=%s seed=%d best=%s evaluations=%s duration=%s\n",
		summary.RunID, summary.Seed, formatFitness(summary.FinalBestFitness),
		formatCount(summary.Evaluations), summary.Duration.Round(time.Millisecond))
	if summary.ArtifactsDir != "" {
		fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	}
	return nil
}

// serveMetrics exposes reg over HTTP until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client(genetic.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, genetic.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string    `json:"run_id"`
			CreatedAt        time.Time `json:"created_at"`
			Objective        string    `json:"objective"`
			Seed             uint64    `json:"seed"`
			PopulationSize   int       `json:"population_size"`
			Generations      int       `json:"generations"`
			Evaluations      int       `json:"evaluations"`
			FinalBestFitness float64   `json:"final_best_fitness"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:            r.RunID,
				CreatedAt:        r.CreatedAt,
				Objective:        r.Objective,
				Seed:             r.Seed,
				PopulationSize:   r.Population,
				Generations:      r.Generations,
				Evaluations:      r.Evaluations,
				FinalBestFitness: r.FinalBestFitness,
			})
		}
		return writeJSON(items)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s created=%s objective=%s seed=%d pop=%d gens=%d evaluations=%s best=%s\n",
			r.RunID, formatTimestamp(r.CreatedAt), r.Objective, r.Seed, r.Population,
			r.Generations, formatCount(r.Evaluations), formatFitness(r.FinalBestFitness))
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkSelector(*runID, *latest, "fitness"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(genetic.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, genetic.HistoryRequest{
		RunSelector: genetic.RunSelector{RunID: *runID, Latest: *latest},
		Limit:       *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	summary := stats.SummarizeSeries(history)
	if *jsonOut {
		return writeJSON(map[string]any{
			"best_by_generation": history,
			"summary":            summary,
		})
	}
	for i, v := range history {
		fmt.Printf("generation=%d best=%s\n", i, formatFitness(v))
	}
	fmt.Printf("initial=%s final=%s improvement=%s mean=%s std=%s\n",
		formatFitness(summary.InitialBest), formatFitness(summary.FinalBest),
		formatFitness(summary.Improvement), formatFitness(summary.BestMean), formatFitness(summary.BestStd))
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkSelector(*runID, *latest, "diagnostics"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(genetic.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, genetic.HistoryRequest{
		RunSelector: genetic.RunSelector{RunID: *runID, Latest: *latest},
		Limit:       *limit,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		line := fmt.Sprintf("generation=%d best=%s generation_best=%s mean=%s min=%s std=%s evaluations=%s",
			d.Generation, formatFitness(d.BestFitness), formatFitness(d.GenerationBest),
			formatFitness(d.MeanFitness), formatFitness(d.MinFitness), formatFitness(d.StdDevFitness),
			formatCount(d.Evaluations))
		if d.MeanMutationProbability > 0 {
			line += " mean_mutation=" + formatFitness(d.MeanMutationProbability)
		}
		fmt.Println(line)
	}
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run")
	out := fs.String("out", "", "output image path (.png|.svg|.pdf); defaults to the run directory")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkSelector(*runID, *latest, "plot"); err != nil {
		return err
	}

	client, err := store.client(genetic.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Plot(ctx, genetic.PlotRequest{
		RunSelector: genetic.RunSelector{RunID: *runID, Latest: *latest},
		Output:      *out,
	})
	if err != nil {
		return err
	}
	fmt.Printf("plot written to=%s\n", path)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "export output directory")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkSelector(*runID, *latest, "export"); err != nil {
		return err
	}

	client, err := store.client(genetic.Options{ExportsDir: *outDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, genetic.ExportRequest{
		RunSelector: genetic.RunSelector{RunID: *runID, Latest: *latest},
		OutDir:      *outDir,
	})
	if err != nil {
		return err
	}
	size, err := dirSize(exported.Directory)
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s size=%s\n", exported.RunID, exported.Directory, formatBytes(size))
	return nil
}

func runObjectives(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("objectives", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit objectives as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := genetic.New(genetic.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	objectives := client.Objectives()
	if *jsonOut {
		return writeJSON(objectives)
	}
	for _, o := range objectives {
		bounds := "-"
		if o.MaxReal > o.MinReal {
			bounds = fmt.Sprintf("[%s, %s]", formatFitness(o.MinReal), formatFitness(o.MaxReal))
		}
		fmt.Printf("%-12s bounds=%s min_dim=%d  %s\n", o.Name, bounds, o.MinDimension, o.Description)
	}
	return nil
}

func checkSelector(runID string, latest bool, command string) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: geneticctl <run|runs|fitness|diagnostics|plot|export|objectives> [flags]", msg)
}
