// Package metrics exports per-generation run progress as Prometheus series.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"genetic/internal/model"
)

const runLabel = "run_id"

type Recorder struct {
	bestFitness *prometheus.GaugeVec
	meanFitness *prometheus.GaugeVec
	generation  *prometheus.GaugeVec
	evaluations *prometheus.CounterVec

	mu       sync.Mutex
	lastEval map[string]int
}

// NewRecorder registers the run collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genetic_best_fitness",
			Help: "Best fitness seen so far in the run.",
		}, []string{runLabel}),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genetic_mean_fitness",
			Help: "Mean fitness of the current population.",
		}, []string{runLabel}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genetic_generation",
			Help: "Index of the last completed generation.",
		}, []string{runLabel}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genetic_fitness_evaluations_total",
			Help: "Fitness function invocations.",
		}, []string{runLabel}),
		lastEval: make(map[string]int),
	}
	for _, c := range []prometheus.Collector{r.bestFitness, r.meanFitness, r.generation, r.evaluations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one generation. Evaluations in d is the cumulative count
// for the run; the counter advances by the difference.
func (r *Recorder) Observe(runID string, d model.GenerationDiagnostics) {
	labels := prometheus.Labels{runLabel: runID}
	r.bestFitness.With(labels).Set(d.BestFitness)
	r.meanFitness.With(labels).Set(d.MeanFitness)
	r.generation.With(labels).Set(float64(d.Generation))

	r.mu.Lock()
	delta := d.Evaluations - r.lastEval[runID]
	if delta > 0 {
		r.lastEval[runID] = d.Evaluations
	}
	r.mu.Unlock()
	if delta > 0 {
		r.evaluations.With(labels).Add(float64(delta))
	}
}

// Finish ends bookkeeping for a completed run. Its series stay exported.
func (r *Recorder) Finish(runID string) {
	r.mu.Lock()
	delete(r.lastEval, runID)
	r.mu.Unlock()
}

// Forget drops every series of a run.
func (r *Recorder) Forget(runID string) {
	labels := prometheus.Labels{runLabel: runID}
	r.bestFitness.Delete(labels)
	r.meanFitness.Delete(labels)
	r.generation.Delete(labels)
	r.evaluations.Delete(labels)

	r.mu.Lock()
	delete(r.lastEval, runID)
	r.mu.Unlock()
}
