// Package evo drives the generational loop over binary-encoded individuals.
package evo

import (
	"errors"
	"math"
	"math/rand"
	"os"

	"genetic/internal/codec"
	"genetic/internal/genotype"
	"genetic/internal/model"
)

// FitnessFunc scores V decoded vectors of D reals. Higher is better.
type FitnessFunc[R codec.Real] func(vectors [][]R) (R, error)

// Pure adapts a fitness function that cannot fail.
func Pure[R codec.Real](f func(vectors [][]R) R) FitnessFunc[R] {
	return func(vectors [][]R) (R, error) {
		return f(vectors), nil
	}
}

// GenerationCallback is invoked after every generation with the 0-based
// generation index and the best individual seen so far.
type GenerationCallback[R codec.Real, I codec.Unsigned] func(generation int, bestFitness R, best *genotype.Individual[R, I]) error

type Option[R codec.Real, I codec.Unsigned] func(*Engine[R, I])

// WithReporter sets the collaborator that receives verbose progress.
func WithReporter[R codec.Real, I codec.Unsigned](r Reporter[R, I]) Option[R, I] {
	return func(e *Engine[R, I]) {
		e.reporter = r
	}
}

// WithObserver registers a hook that runs after every generation, before
// the Run callback.
func WithObserver[R codec.Real, I codec.Unsigned](fn GenerationCallback[R, I]) Option[R, I] {
	return func(e *Engine[R, I]) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

type Engine[R codec.Real, I codec.Unsigned] struct {
	cfg     model.Config[R, I]
	fitness FitnessFunc[R]
	seed    uint64
	rng     *rand.Rand

	population []genotype.Individual[R, I]
	selected   []genotype.Individual[R, I]

	generation  int
	evaluations int
	bestFitness R
	best        genotype.Individual[R, I]
	hasBest     bool

	reporter  Reporter[R, I]
	observers []GenerationCallback[R, I]
}

// New validates cfg, seeds the random source and builds the initial
// population. Errors from the fitness function during the initial
// evaluation are returned unchanged.
func New[R codec.Real, I codec.Unsigned](cfg model.Config[R, I], fitness FitnessFunc[R], seed Seed, opts ...Option[R, I]) (*Engine[R, I], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fitness == nil {
		return nil, errors.New("fitness function is required")
	}

	resolved := seed.resolve()
	e := &Engine[R, I]{
		cfg:     cfg,
		fitness: fitness,
		seed:    resolved,
		rng:     rand.New(rand.NewSource(int64(resolved))),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.initializePopulation(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset validates cfg, swaps it in and rebuilds the population. The random
// stream continues from where it was.
func (e *Engine[R, I]) Reset(cfg model.Config[R, I]) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	e.generation = 0
	e.evaluations = 0
	return e.initializePopulation()
}

// Run executes MaxGenerations steps. When verbose is set the reporter is
// notified every PrintInterval generations and on the last one.
func (e *Engine[R, I]) Run(verbose bool, callback GenerationCallback[R, I]) error {
	reporter := e.reporter
	if verbose && reporter == nil {
		reporter = NewTextReporter[R, I](os.Stdout)
	}
	if verbose {
		reporter.Start(e.cfg)
	}

	total := e.cfg.MaxGenerations
	for gen := 0; gen < total; gen++ {
		if err := e.Step(); err != nil {
			return err
		}

		if verbose && (gen%e.cfg.PrintInterval == 0 || gen == total-1) {
			reporter.Generation(gen, total, e.bestFitness, &e.best)
		}

		if len(e.observers) == 0 && callback == nil {
			continue
		}
		best := e.best.Clone()
		for _, observe := range e.observers {
			if err := observe(gen, e.bestFitness, &best); err != nil {
				return err
			}
		}
		if callback != nil {
			if err := callback(gen, e.bestFitness, &best); err != nil {
				return err
			}
		}
	}

	if verbose {
		reporter.Finish(e.bestFitness, &e.best)
	}
	return nil
}

// Step runs one generation: selection, elite snapshot, offspring, mutation,
// elite reinjection and best tracking.
func (e *Engine[R, I]) Step() error {
	if err := e.selection(); err != nil {
		return err
	}
	if e.cfg.EnableElitism {
		if err := e.updateBest(); err != nil {
			return err
		}
	}
	e.createOffspring()
	e.mutatePopulation()
	if e.cfg.EnableElitism {
		e.addBest()
	}
	if err := e.updateBest(); err != nil {
		return err
	}
	e.generation++
	return nil
}

func (e *Engine[R, I]) BestFitness() R {
	return e.bestFitness
}

// BestIndividual returns a copy of the best individual seen so far.
func (e *Engine[R, I]) BestIndividual() genotype.Individual[R, I] {
	return e.best.Clone()
}

func (e *Engine[R, I]) Generation() int {
	return e.generation
}

// Population returns a copy of the current population.
func (e *Engine[R, I]) Population() []genotype.Individual[R, I] {
	return genotype.ClonePopulation(e.population)
}

// Fitnesses returns the cached fitness of every member of the population.
// After New, Reset or Step every member has been evaluated.
func (e *Engine[R, I]) Fitnesses() []R {
	out := make([]R, len(e.population))
	for i := range e.population {
		out[i] = e.population[i].Fitness()
	}
	return out
}

func (e *Engine[R, I]) Config() model.Config[R, I] {
	return e.cfg
}

// Evaluations counts fitness function invocations since New or Reset.
func (e *Engine[R, I]) Evaluations() int {
	return e.evaluations
}

// Seed returns the seed the random source was built from, so an
// entropy-seeded run can be replayed.
func (e *Engine[R, I]) Seed() Seed {
	return FixedSeed(e.seed)
}

func (e *Engine[R, I]) initializePopulation() error {
	e.population = make([]genotype.Individual[R, I], e.cfg.PopulationSize)
	for i := range e.population {
		e.population[i] = genotype.Random(e.cfg, e.rng)
	}
	e.selected = make([]genotype.Individual[R, I], e.cfg.HalfPopulationSize())
	e.bestFitness = R(math.Inf(-1))
	e.best = genotype.Individual[R, I]{}
	e.hasBest = false
	return e.updateBest()
}

func (e *Engine[R, I]) evaluate(ind *genotype.Individual[R, I]) (R, error) {
	if ind.Evaluated() {
		return ind.Fitness(), nil
	}
	fitness, err := e.fitness(ind.ToRealVectors())
	if err != nil {
		return 0, err
	}
	e.evaluations++
	ind.SetFitness(fitness)
	return fitness, nil
}

func (e *Engine[R, I]) updateBest() error {
	for i := range e.population {
		fitness, err := e.evaluate(&e.population[i])
		if err != nil {
			return err
		}
		if !e.hasBest || better(fitness, e.bestFitness) {
			e.bestFitness = fitness
			e.best = e.population[i].Clone()
			e.hasBest = true
		}
	}
	return nil
}

// addBest overwrites one random slot with the saved elite.
func (e *Engine[R, I]) addBest() {
	idx := e.rng.Intn(len(e.population))
	e.population[idx] = e.best.Clone()
}

func (e *Engine[R, I]) mutatePopulation() {
	for i := range e.population {
		e.population[i].Mutate(e.rng)
	}
}

// better treats NaN as worse than any number.
func better[R codec.Real](candidate, current R) bool {
	if candidate > current {
		return true
	}
	return current != current && candidate == candidate
}
