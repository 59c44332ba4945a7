package evo

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"genetic/internal/codec"
	"genetic/internal/genotype"
	"genetic/internal/model"
)

// Reporter receives verbose progress from Engine.Run.
type Reporter[R codec.Real, I codec.Unsigned] interface {
	Start(cfg model.Config[R, I])
	Generation(generation, total int, bestFitness R, best *genotype.Individual[R, I])
	Finish(bestFitness R, best *genotype.Individual[R, I])
}

// TextReporter prints human readable progress lines.
type TextReporter[R codec.Real, I codec.Unsigned] struct {
	w io.Writer
}

func NewTextReporter[R codec.Real, I codec.Unsigned](w io.Writer) *TextReporter[R, I] {
	return &TextReporter[R, I]{w: w}
}

func (r *TextReporter[R, I]) Start(cfg model.Config[R, I]) {
	fmt.Fprintln(r.w, "Starting genetic algorithm...")
	fmt.Fprint(r.w, FormatConfig(cfg))
	fmt.Fprintln(r.w)
}

func (r *TextReporter[R, I]) Generation(generation, total int, bestFitness R, best *genotype.Individual[R, I]) {
	line := fmt.Sprintf("Generation %d/%d - Best fitness: %s", generation+1, total, formatReal(bestFitness))
	if probas := best.MutationProbabilities(); len(probas) > 0 {
		line += " ~ Proba Array: [" + joinReals(probas) + "]"
	}
	fmt.Fprintln(r.w, line)
}

func (r *TextReporter[R, I]) Finish(bestFitness R, best *genotype.Individual[R, I]) {
	fmt.Fprintf(r.w, "\nFinal best fitness: %s\n", formatReal(bestFitness))
	fmt.Fprintf(r.w, "Best individual:\n%s", best.String())
}

// LogReporter emits progress as structured slog records.
type LogReporter[R codec.Real, I codec.Unsigned] struct {
	logger *slog.Logger
}

func NewLogReporter[R codec.Real, I codec.Unsigned](logger *slog.Logger) *LogReporter[R, I] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter[R, I]{logger: logger}
}

func (r *LogReporter[R, I]) Start(cfg model.Config[R, I]) {
	r.logger.Info("starting genetic algorithm",
		"population_size", cfg.PopulationSize,
		"max_generations", cfg.MaxGenerations,
		"number_of_vectors", cfg.NumberOfVectors,
		"dimension", cfg.Dimension,
		"integer_bits", cfg.IntegerBits,
		"crossover_method", cfg.CrossoverMethod.String(),
		"elitism", cfg.EnableElitism,
		"auto_adaptation", cfg.EnableAutoAdaptation,
	)
}

func (r *LogReporter[R, I]) Generation(generation, total int, bestFitness R, best *genotype.Individual[R, I]) {
	attrs := []any{
		"generation", generation + 1,
		"total", total,
		"best_fitness", float64(bestFitness),
	}
	if probas := best.MutationProbabilities(); len(probas) > 0 {
		values := make([]float64, len(probas))
		for i, p := range probas {
			values[i] = float64(p)
		}
		attrs = append(attrs, "mutation_probabilities", values)
	}
	r.logger.Info("generation", attrs...)
}

func (r *LogReporter[R, I]) Finish(bestFitness R, best *genotype.Individual[R, I]) {
	r.logger.Info("finished genetic algorithm",
		"best_fitness", float64(bestFitness),
		"best_vectors", best.ToRealVectors(),
	)
}

// FormatConfig renders cfg one option per line.
func FormatConfig[R codec.Real, I codec.Unsigned](cfg model.Config[R, I]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config:\n")
	fmt.Fprintf(&b, "  population_size: %d\n", cfg.PopulationSize)
	fmt.Fprintf(&b, "  max_generations: %d\n", cfg.MaxGenerations)
	fmt.Fprintf(&b, "  number_of_vectors: %d\n", cfg.NumberOfVectors)
	fmt.Fprintf(&b, "  dimension: %d\n", cfg.Dimension)
	fmt.Fprintf(&b, "  real range: [%s, %s]\n", formatReal(cfg.MinReal), formatReal(cfg.MaxReal))
	fmt.Fprintf(&b, "  integer_bits: %d\n", cfg.IntegerBits)
	fmt.Fprintf(&b, "  crossover_method: %s\n", cfg.CrossoverMethod)
	fmt.Fprintf(&b, "  tournament_size: %d\n", cfg.TournamentSize)
	fmt.Fprintf(&b, "  enable_elitism: %t\n", cfg.EnableElitism)
	fmt.Fprintf(&b, "  enable_auto_adaptation: %t\n", cfg.EnableAutoAdaptation)
	fmt.Fprintf(&b, "  initial_mutation_probability: %s\n", formatReal(cfg.InitialMutationProbability))
	fmt.Fprintf(&b, "  uniform_crossover_probability: %s\n", formatReal(cfg.UniformCrossoverProbability))
	fmt.Fprintf(&b, "  print_interval: %d\n", cfg.PrintInterval)
	return b.String()
}

func formatReal[R codec.Real](v R) string {
	return strconv.FormatFloat(float64(v), 'g', 10, 64)
}

func joinReals[R codec.Real](values []R) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', 6, 64)
	}
	return strings.Join(parts, ", ")
}
