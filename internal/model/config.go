package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"genetic/internal/codec"
)

// CrossoverMethod selects how two parents are recombined at bit level.
type CrossoverMethod int

const (
	SinglePointBitLevel CrossoverMethod = iota
	UniformBitLevel
)

func (m CrossoverMethod) String() string {
	switch m {
	case SinglePointBitLevel:
		return "single_point_bit_level"
	case UniformBitLevel:
		return "uniform_bit_level"
	default:
		return fmt.Sprintf("crossover_method(%d)", int(m))
	}
}

func (m CrossoverMethod) MarshalText() ([]byte, error) {
	switch m {
	case SinglePointBitLevel, UniformBitLevel:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown crossover method: %d", int(m))
	}
}

func (m *CrossoverMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseCrossoverMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseCrossoverMethod accepts the snake_case names as well as the
// upper-case SINGLE_POINT_BIT_LEVEL / UNIFORM_BIT_LEVEL spellings.
func ParseCrossoverMethod(name string) (CrossoverMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "single_point_bit_level", "single_point", "single-point":
		return SinglePointBitLevel, nil
	case "uniform_bit_level", "uniform":
		return UniformBitLevel, nil
	default:
		return 0, fmt.Errorf("unknown crossover method: %q", name)
	}
}

// Validation error kinds. Config.Validate wraps one of these in a *ConfigError.
var (
	ErrRangeInvalid           = errors.New("real range invalid")
	ErrPopulationSizeInvalid  = errors.New("population size invalid")
	ErrGenerationsInvalid     = errors.New("max generations invalid")
	ErrShapeInvalid           = errors.New("vector shape invalid")
	ErrIntegerBitsInvalid     = errors.New("integer bits invalid")
	ErrTournamentSizeInvalid  = errors.New("tournament size invalid")
	ErrProbabilityInvalid     = errors.New("probability invalid")
	ErrCrossoverMethodInvalid = errors.New("crossover method invalid")
	ErrPrintIntervalInvalid   = errors.New("print interval invalid")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
)

type ConfigError struct {
	Field  string
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %v: %s", e.Field, e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(field string, kind error, format string, args ...any) error {
	return &ConfigError{Field: field, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// Config is the parameter set of one run. It is not modified while a run is
// in progress; Engine.Reset swaps it wholesale.
type Config[R codec.Real, I codec.Unsigned] struct {
	PopulationSize              int             `json:"population_size" yaml:"population_size"`
	MaxGenerations              int             `json:"max_generations" yaml:"max_generations"`
	NumberOfVectors             int             `json:"number_of_vectors" yaml:"number_of_vectors"`
	Dimension                   int             `json:"dimension" yaml:"dimension"`
	MinReal                     R               `json:"min_real" yaml:"min_real"`
	MaxReal                     R               `json:"max_real" yaml:"max_real"`
	IntegerBits                 int             `json:"integer_bits" yaml:"integer_bits"`
	CrossoverMethod             CrossoverMethod `json:"crossover_method" yaml:"crossover_method"`
	TournamentSize              int             `json:"tournament_size" yaml:"tournament_size"`
	EnableElitism               bool            `json:"enable_elitism" yaml:"enable_elitism"`
	EnableAutoAdaptation        bool            `json:"enable_auto_adaptation" yaml:"enable_auto_adaptation"`
	InitialMutationProbability  R               `json:"initial_mutation_probability" yaml:"initial_mutation_probability"`
	UniformCrossoverProbability R               `json:"uniform_crossover_probability" yaml:"uniform_crossover_probability"`
	PrintInterval               int             `json:"print_interval" yaml:"print_interval"`

	// Optional caps; zero means unbounded.
	MaxVectors   int `json:"max_vectors,omitempty" yaml:"max_vectors,omitempty"`
	MaxDimension int `json:"max_dimension,omitempty" yaml:"max_dimension,omitempty"`
}

func DefaultConfig[R codec.Real, I codec.Unsigned]() Config[R, I] {
	return Config[R, I]{
		PopulationSize:              100,
		MaxGenerations:              100,
		NumberOfVectors:             1,
		Dimension:                   2,
		MinReal:                     -10,
		MaxReal:                     10,
		IntegerBits:                 codec.Width[I](),
		CrossoverMethod:             SinglePointBitLevel,
		TournamentSize:              3,
		EnableElitism:               true,
		EnableAutoAdaptation:        false,
		InitialMutationProbability:  0.01,
		UniformCrossoverProbability: 0.5,
		PrintInterval:               10,
	}
}

// HalfPopulationSize is the number of parents picked per generation.
func (c Config[R, I]) HalfPopulationSize() int {
	return c.PopulationSize / 2
}

// MutationProbabilitySlots is V+1 when auto-adaptation is enabled, else 0.
func (c Config[R, I]) MutationProbabilitySlots() int {
	if !c.EnableAutoAdaptation {
		return 0
	}
	return c.NumberOfVectors + 1
}

// ChromosomeBits is the flattened bit length of one data chromosome.
func (c Config[R, I]) ChromosomeBits() int {
	return c.Dimension * c.IntegerBits
}

// MutationProbabilityBits is the flattened bit length of the probability genes.
func (c Config[R, I]) MutationProbabilityBits() int {
	return (c.NumberOfVectors + 1) * c.IntegerBits
}

func (c Config[R, I]) Validate() error {
	if c.PopulationSize <= 0 {
		return configError("population_size", ErrPopulationSizeInvalid, "must be > 0 (got %d)", c.PopulationSize)
	}
	if c.PopulationSize%2 != 0 {
		return configError("population_size", ErrPopulationSizeInvalid, "must be even (got %d)", c.PopulationSize)
	}
	if c.HalfPopulationSize()%2 != 0 {
		return configError("population_size", ErrPopulationSizeInvalid, "must be a multiple of 4 so parents pair up exactly (got %d)", c.PopulationSize)
	}
	if c.MaxGenerations <= 0 {
		return configError("max_generations", ErrGenerationsInvalid, "must be > 0 (got %d)", c.MaxGenerations)
	}
	if c.NumberOfVectors < 1 {
		return configError("number_of_vectors", ErrShapeInvalid, "must be >= 1 (got %d)", c.NumberOfVectors)
	}
	if c.Dimension < 1 {
		return configError("dimension", ErrShapeInvalid, "must be >= 1 (got %d)", c.Dimension)
	}
	if c.MaxVectors > 0 && c.NumberOfVectors > c.MaxVectors {
		return configError("number_of_vectors", ErrCapacityExceeded, "%d exceeds max_vectors %d", c.NumberOfVectors, c.MaxVectors)
	}
	if c.MaxDimension > 0 && c.Dimension > c.MaxDimension {
		return configError("dimension", ErrCapacityExceeded, "%d exceeds max_dimension %d", c.Dimension, c.MaxDimension)
	}
	if !finite(c.MinReal) || !finite(c.MaxReal) || !(c.MinReal < c.MaxReal) {
		return configError("min_real", ErrRangeInvalid, "min_real must be < max_real (got [%v, %v])", c.MinReal, c.MaxReal)
	}
	if width := codec.Width[I](); c.IntegerBits < 1 || c.IntegerBits > width {
		return configError("integer_bits", ErrIntegerBitsInvalid, "must be in [1, %d] (got %d)", width, c.IntegerBits)
	}
	if c.CrossoverMethod != SinglePointBitLevel && c.CrossoverMethod != UniformBitLevel {
		return configError("crossover_method", ErrCrossoverMethodInvalid, "unknown value %d", int(c.CrossoverMethod))
	}
	if c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize {
		return configError("tournament_size", ErrTournamentSizeInvalid, "must be in [1, %d] (got %d)", c.PopulationSize, c.TournamentSize)
	}
	if !probability(c.InitialMutationProbability) {
		return configError("initial_mutation_probability", ErrProbabilityInvalid, "must be in [0,1] (got %v)", c.InitialMutationProbability)
	}
	if !probability(c.UniformCrossoverProbability) {
		return configError("uniform_crossover_probability", ErrProbabilityInvalid, "must be in [0,1] (got %v)", c.UniformCrossoverProbability)
	}
	if c.PrintInterval < 1 {
		return configError("print_interval", ErrPrintIntervalInvalid, "must be >= 1 (got %d)", c.PrintInterval)
	}
	return nil
}

func finite[R codec.Real](v R) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func probability[R codec.Real](v R) bool {
	return v >= 0 && v <= 1
}
