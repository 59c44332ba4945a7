package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genetic/internal/model"
)

// Diagnose summarizes the fitness spread of one population snapshot. NaN
// and infinite fitnesses are left out of the spread figures.
func Diagnose(generation int, best float64, evaluations int, fitnesses, mutationProbabilities []float64) model.GenerationDiagnostics {
	d := model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: best,
		Evaluations: evaluations,
	}

	values := finite(fitnesses)
	if len(values) > 0 {
		d.GenerationBest = floats.Max(values)
		d.MinFitness = floats.Min(values)
		if len(values) > 1 {
			d.MeanFitness, d.StdDevFitness = stat.MeanStdDev(values, nil)
		} else {
			d.MeanFitness = values[0]
		}
	}
	if len(mutationProbabilities) > 0 {
		d.MeanMutationProbability = stat.Mean(mutationProbabilities, nil)
	}
	return d
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// SeriesSummary condenses a best-fitness-per-generation series.
type SeriesSummary struct {
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	Improvement float64 `json:"improvement"`
}

func SummarizeSeries(series []float64) SeriesSummary {
	if len(series) == 0 {
		return SeriesSummary{}
	}
	s := SeriesSummary{
		Generations: len(series),
		InitialBest: series[0],
		FinalBest:   series[len(series)-1],
		BestMax:     floats.Max(series),
		BestMin:     floats.Min(series),
	}
	if len(series) > 1 {
		s.BestMean, s.BestStd = stat.MeanStdDev(series, nil)
	} else {
		s.BestMean = series[0]
	}
	s.Improvement = s.FinalBest - s.InitialBest
	return s
}

// BestSeries extracts the best-so-far column of a diagnostics history.
func BestSeries(diagnostics []model.GenerationDiagnostics) []float64 {
	out := make([]float64, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.BestFitness
	}
	return out
}

func MeanSeries(diagnostics []model.GenerationDiagnostics) []float64 {
	out := make([]float64, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.MeanFitness
	}
	return out
}
