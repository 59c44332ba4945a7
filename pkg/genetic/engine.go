// Package genetic is the embedding API: the generic engine types and a
// Client that runs named objectives and keeps their history.
package genetic

import (
	"genetic/internal/codec"
	"genetic/internal/evo"
	"genetic/internal/genotype"
	"genetic/internal/model"
)

type (
	Real     = codec.Real
	Unsigned = codec.Unsigned

	Config[R Real, I Unsigned]             = model.Config[R, I]
	Engine[R Real, I Unsigned]             = evo.Engine[R, I]
	Individual[R Real, I Unsigned]         = genotype.Individual[R, I]
	GenerationCallback[R Real, I Unsigned] = evo.GenerationCallback[R, I]
	Reporter[R Real, I Unsigned]           = evo.Reporter[R, I]
	EngineOption[R Real, I Unsigned]       = evo.Option[R, I]
	FitnessFunc[R Real]                    = evo.FitnessFunc[R]

	Seed            = evo.Seed
	CrossoverMethod = model.CrossoverMethod
	ConfigError     = model.ConfigError
)

const (
	SinglePointBitLevel = model.SinglePointBitLevel
	UniformBitLevel     = model.UniformBitLevel
)

var (
	ErrRangeInvalid           = model.ErrRangeInvalid
	ErrPopulationSizeInvalid  = model.ErrPopulationSizeInvalid
	ErrGenerationsInvalid     = model.ErrGenerationsInvalid
	ErrShapeInvalid           = model.ErrShapeInvalid
	ErrIntegerBitsInvalid     = model.ErrIntegerBitsInvalid
	ErrTournamentSizeInvalid  = model.ErrTournamentSizeInvalid
	ErrProbabilityInvalid     = model.ErrProbabilityInvalid
	ErrCrossoverMethodInvalid = model.ErrCrossoverMethodInvalid
	ErrPrintIntervalInvalid   = model.ErrPrintIntervalInvalid
	ErrCapacityExceeded       = model.ErrCapacityExceeded
)

func FixedSeed(value uint64) Seed { return evo.FixedSeed(value) }

func EntropySeed() Seed { return evo.EntropySeed() }

func DefaultConfig[R Real, I Unsigned]() Config[R, I] {
	return model.DefaultConfig[R, I]()
}

// NewEngine validates cfg and builds the initial population.
func NewEngine[R Real, I Unsigned](cfg Config[R, I], fitness FitnessFunc[R], seed Seed, opts ...EngineOption[R, I]) (*Engine[R, I], error) {
	return evo.New(cfg, fitness, seed, opts...)
}

func Pure[R Real](f func(vectors [][]R) R) FitnessFunc[R] {
	return evo.Pure(f)
}

func WithReporter[R Real, I Unsigned](r Reporter[R, I]) EngineOption[R, I] {
	return evo.WithReporter(r)
}

func WithObserver[R Real, I Unsigned](fn GenerationCallback[R, I]) EngineOption[R, I] {
	return evo.WithObserver(fn)
}
