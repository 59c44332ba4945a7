package evo

import (
	"errors"
	"math"
	"testing"

	"genetic/internal/genotype"
	"genetic/internal/model"
)

type Individual = genotype.Individual[float64, uint32]

func sphere(vectors [][]float64) float64 {
	sum := 0.0
	for _, v := range vectors {
		for _, x := range v {
			sum += x * x
		}
	}
	return -sum
}

func smallConfig() model.Config[float64, uint32] {
	cfg := model.DefaultConfig[float64, uint32]()
	cfg.PopulationSize = 20
	cfg.MaxGenerations = 15
	cfg.NumberOfVectors = 2
	cfg.Dimension = 3
	cfg.IntegerBits = 16
	cfg.MinReal = -5
	cfg.MaxReal = 5
	cfg.InitialMutationProbability = 0.02
	return cfg
}

func TestMinimalRunScenario(t *testing.T) {
	cfg := model.DefaultConfig[float64, uint32]()
	cfg.PopulationSize = 4
	cfg.MaxGenerations = 1
	cfg.NumberOfVectors = 1
	cfg.Dimension = 1
	cfg.IntegerBits = 8
	cfg.MinReal = -1
	cfg.MaxReal = 1

	identity := Pure(func(v [][]float64) float64 { return v[0][0] })
	engine, err := New(cfg, identity, FixedSeed(42))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if engine.Generation() != 1 {
		t.Fatalf("expected generation 1, got %d", engine.Generation())
	}
	if best := engine.BestFitness(); best < -1 || best > 1 {
		t.Fatalf("best fitness out of range: %v", best)
	}
	best := engine.BestIndividual()
	if got := best.ToRealVectors()[0][0]; got != engine.BestFitness() {
		t.Fatalf("best individual decodes to %v, best fitness %v", got, engine.BestFitness())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.MinReal, cfg.MaxReal = 5, -5
	if _, err := New(cfg, Pure(sphere), FixedSeed(1)); !errors.Is(err, model.ErrRangeInvalid) {
		t.Fatalf("expected range error, got %v", err)
	}
	cfg = smallConfig()
	cfg.PopulationSize = 21
	if _, err := New(cfg, Pure(sphere), FixedSeed(1)); !errors.Is(err, model.ErrPopulationSizeInvalid) {
		t.Fatalf("expected population error, got %v", err)
	}
	if _, err := New[float64, uint32](smallConfig(), nil, FixedSeed(1)); err == nil {
		t.Fatal("expected missing fitness error")
	}
}

func TestFixedSeedIsReproducible(t *testing.T) {
	for _, method := range []model.CrossoverMethod{model.SinglePointBitLevel, model.UniformBitLevel} {
		cfg := smallConfig()
		cfg.CrossoverMethod = method
		cfg.EnableAutoAdaptation = true

		a := bestSeries(t, cfg, FixedSeed(7))
		b := bestSeries(t, cfg, FixedSeed(7))
		if len(a) != cfg.MaxGenerations || len(b) != cfg.MaxGenerations {
			t.Fatalf("expected %d generations, got %d and %d", cfg.MaxGenerations, len(a), len(b))
		}
		for i := range a {
			if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
				t.Fatalf("%s: generation %d differs: %v != %v", method, i, a[i], b[i])
			}
		}
	}
}

func TestReplayEntropySeed(t *testing.T) {
	cfg := smallConfig()
	first, err := New(cfg, Pure(sphere), EntropySeed())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if !first.Seed().Fixed() {
		t.Fatal("resolved seed must be fixed")
	}
	if err := first.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	replay, err := New(cfg, Pure(sphere), first.Seed())
	if err != nil {
		t.Fatalf("new replay engine: %v", err)
	}
	if err := replay.Run(false, nil); err != nil {
		t.Fatalf("run replay: %v", err)
	}
	if first.BestFitness() != replay.BestFitness() {
		t.Fatalf("replay mismatch: %v != %v", first.BestFitness(), replay.BestFitness())
	}
}

func TestElitismKeepsBestInPopulation(t *testing.T) {
	cfg := smallConfig()
	cfg.EnableElitism = true
	cfg.InitialMutationProbability = 0.2

	engine, err := New(cfg, Pure(sphere), FixedSeed(99))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	prev := engine.BestFitness()
	for gen := 0; gen < cfg.MaxGenerations; gen++ {
		if err := engine.Step(); err != nil {
			t.Fatalf("step %d: %v", gen, err)
		}
		if engine.BestFitness() < prev {
			t.Fatalf("best fitness decreased at generation %d: %v < %v", gen, engine.BestFitness(), prev)
		}
		prev = engine.BestFitness()

		top := math.Inf(-1)
		for _, f := range engine.Fitnesses() {
			top = math.Max(top, f)
		}
		if top != engine.BestFitness() {
			t.Fatalf("generation %d: elite missing from population (max %v, best %v)", gen, top, engine.BestFitness())
		}
	}
}

func TestBestTrackedWithoutElitism(t *testing.T) {
	cfg := smallConfig()
	cfg.EnableElitism = false
	cfg.InitialMutationProbability = 0.3

	var series []float64
	engine, err := New(cfg, Pure(sphere), FixedSeed(5))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	err = engine.Run(false, func(_ int, best float64, _ *Individual) error {
		series = append(series, best)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(series); i++ {
		if series[i] < series[i-1] {
			t.Fatalf("tracked best decreased at %d", i)
		}
	}
}

func TestFitnessCalledOncePerGenotype(t *testing.T) {
	cfg := smallConfig()
	calls := 0
	fitness := Pure(func(v [][]float64) float64 {
		calls++
		return sphere(v)
	})
	engine, err := New(cfg, fitness, FixedSeed(3))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if calls != cfg.PopulationSize {
		t.Fatalf("expected %d initial evaluations, got %d", cfg.PopulationSize, calls)
	}
	if err := engine.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != engine.Evaluations() {
		t.Fatalf("evaluation counter %d disagrees with calls %d", engine.Evaluations(), calls)
	}
	// every generation replaces the whole population with fresh children;
	// only the reinjected elite may keep its cached fitness
	maxCalls := cfg.PopulationSize * (cfg.MaxGenerations + 1)
	minCalls := cfg.PopulationSize + (cfg.PopulationSize-1)*cfg.MaxGenerations
	if calls > maxCalls || calls < minCalls {
		t.Fatalf("unexpected evaluation count %d, want in [%d, %d]", calls, minCalls, maxCalls)
	}

	before := calls
	if err := engine.updateBest(); err != nil {
		t.Fatalf("update best: %v", err)
	}
	if err := engine.selection(); err != nil {
		t.Fatalf("selection: %v", err)
	}
	if calls != before {
		t.Fatalf("unchanged individuals were re-evaluated: %d extra calls", calls-before)
	}
}

func TestFitnessErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")
	cfg := smallConfig()

	if _, err := New(cfg, func([][]float64) (float64, error) { return 0, boom }, FixedSeed(1)); err != boom {
		t.Fatalf("expected initial evaluation error unchanged, got %v", err)
	}

	calls := 0
	failing := func(v [][]float64) (float64, error) {
		calls++
		if calls > cfg.PopulationSize+5 {
			return 0, boom
		}
		return sphere(v), nil
	}
	engine, err := New(cfg, failing, FixedSeed(1))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Run(false, nil); err != boom {
		t.Fatalf("expected fitness error unchanged, got %v", err)
	}
}

func TestCallbackErrorStopsRun(t *testing.T) {
	stop := errors.New("stop")
	engine, err := New(smallConfig(), Pure(sphere), FixedSeed(2))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	seen := 0
	err = engine.Run(false, func(gen int, _ float64, _ *Individual) error {
		seen++
		if gen == 2 {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Fatalf("expected callback error, got %v", err)
	}
	if seen != 3 || engine.Generation() != 3 {
		t.Fatalf("expected run to stop after generation 3, seen=%d generation=%d", seen, engine.Generation())
	}
}

func TestCallbackReceivesGenerationIndices(t *testing.T) {
	cfg := smallConfig()
	engine, err := New(cfg, Pure(sphere), FixedSeed(8))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	var called []int
	err = engine.Run(false, func(gen int, best float64, ind *Individual) error {
		called = append(called, gen)
		if best != engine.BestFitness() {
			t.Fatalf("callback best %v differs from engine best %v", best, engine.BestFitness())
		}
		if len(ind.ToRealVectors()) != cfg.NumberOfVectors {
			t.Fatal("callback individual has wrong shape")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(called) != cfg.MaxGenerations || called[0] != 0 || called[len(called)-1] != cfg.MaxGenerations-1 {
		t.Fatalf("unexpected callback generations: %v", called)
	}
}

func TestObserverRunsBeforeCallback(t *testing.T) {
	var order []string
	observer := func(int, float64, *Individual) error {
		order = append(order, "observer")
		return nil
	}
	engine, err := New(smallConfig(), Pure(sphere), FixedSeed(4), WithObserver(observer))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	err = engine.Run(false, func(int, float64, *Individual) error {
		order = append(order, "callback")
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2*smallConfig().MaxGenerations || order[0] != "observer" || order[1] != "callback" {
		t.Fatalf("unexpected hook order: %v", order[:2])
	}
}

func TestCallbackCannotAliasBest(t *testing.T) {
	engine, err := New(smallConfig(), Pure(sphere), FixedSeed(6))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	err = engine.Run(false, func(_ int, _ float64, ind *Individual) error {
		ind.SetGene(0, 0, ind.Gene(0, 0)^1)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	best := engine.BestIndividual()
	if !best.Evaluated() || best.Fitness() != engine.BestFitness() {
		t.Fatal("callback mutation leaked into the tracked best individual")
	}
}

func TestResetReinitializes(t *testing.T) {
	engine, err := New(smallConfig(), Pure(sphere), FixedSeed(10))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	bad := smallConfig()
	bad.PopulationSize = 3
	if err := engine.Reset(bad); !errors.Is(err, model.ErrPopulationSizeInvalid) {
		t.Fatalf("expected population error, got %v", err)
	}
	if engine.Generation() != smallConfig().MaxGenerations {
		t.Fatal("failed reset must leave the engine untouched")
	}

	next := smallConfig()
	next.PopulationSize = 8
	next.Dimension = 1
	if err := engine.Reset(next); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if engine.Generation() != 0 || len(engine.Population()) != 8 || engine.Config() != next {
		t.Fatalf("reset did not reinitialize state")
	}
	if engine.Evaluations() != 8 {
		t.Fatalf("expected 8 evaluations after reset, got %d", engine.Evaluations())
	}
	best := engine.BestIndividual()
	if got := len(best.ToRealVectors()[0]); got != 1 {
		t.Fatalf("best individual still has old shape: dimension %d", got)
	}
}

func TestPopulationSnapshotIsCopy(t *testing.T) {
	engine, err := New(smallConfig(), Pure(sphere), FixedSeed(12))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	snapshot := engine.Population()
	snapshot[0].SetGene(0, 0, snapshot[0].Gene(0, 0)^1)
	again := engine.Population()
	if snapshot[0].Equal(&again[0]) {
		t.Fatal("population snapshot aliases engine storage")
	}
}

func TestFloat32Uint16Engine(t *testing.T) {
	cfg := model.DefaultConfig[float32, uint16]()
	cfg.PopulationSize = 40
	cfg.MaxGenerations = 20
	cfg.Dimension = 3
	cfg.EnableAutoAdaptation = true
	absSum := Pure(func(v [][]float32) float32 {
		var sum float32
		for _, vec := range v {
			for _, x := range vec {
				sum += float32(math.Abs(float64(x)))
			}
		}
		return sum
	})
	engine, err := New(cfg, absSum, FixedSeed(21))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	initial := engine.BestFitness()
	if err := engine.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if engine.BestFitness() < initial || engine.BestFitness() > 30 {
		t.Fatalf("unexpected best fitness %v (initial %v)", engine.BestFitness(), initial)
	}
	best := engine.BestIndividual()
	if len(best.MutationProbas()) != cfg.NumberOfVectors+1 {
		t.Fatal("expected adaptive probability genes on best individual")
	}
}

func TestSphereConverges(t *testing.T) {
	cfg := smallConfig()
	cfg.PopulationSize = 60
	cfg.MaxGenerations = 80
	cfg.NumberOfVectors = 1
	cfg.Dimension = 2
	engine, err := New(cfg, Pure(sphere), FixedSeed(2024))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	initial := engine.BestFitness()
	if err := engine.Run(false, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if engine.BestFitness() < initial {
		t.Fatalf("best fitness regressed: %v < %v", engine.BestFitness(), initial)
	}
	if engine.BestFitness() < -1 {
		t.Fatalf("expected sphere optimum within distance 1 of origin, got %v", engine.BestFitness())
	}
}

func bestSeries(t *testing.T, cfg model.Config[float64, uint32], seed Seed) []float64 {
	t.Helper()
	engine, err := New(cfg, Pure(sphere), seed)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	var series []float64
	err = engine.Run(false, func(_ int, best float64, _ *Individual) error {
		series = append(series, best)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return series
}
