// Package genotype holds the binary-encoded candidate solution evolved by the engine.
package genotype

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"genetic/internal/codec"
	"genetic/internal/model"
)

// Individual is V chromosomes of D fixed-width genes plus, with
// auto-adaptation, V+1 mutation probability genes. Copies are made with
// Clone; two individuals never share gene storage.
type Individual[R codec.Real, I codec.Unsigned] struct {
	cfg       model.Config[R, I]
	genes     []I
	probas    []I
	fitness   R
	evaluated bool
}

// New returns an individual whose genes are all zero.
func New[R codec.Real, I codec.Unsigned](cfg model.Config[R, I]) Individual[R, I] {
	return Individual[R, I]{
		cfg:    cfg,
		genes:  make([]I, cfg.NumberOfVectors*cfg.Dimension),
		probas: make([]I, cfg.MutationProbabilitySlots()),
	}
}

// Random fills every gene, and every probability gene when enabled, with a
// uniform integer in [0, 2^bits-1].
func Random[R codec.Real, I codec.Unsigned](cfg model.Config[R, I], rng *rand.Rand) Individual[R, I] {
	ind := New(cfg)
	top := uint64(codec.MaxValue[I](cfg.IntegerBits))
	for i := range ind.genes {
		ind.genes[i] = I(rng.Uint64() & top)
	}
	for i := range ind.probas {
		ind.probas[i] = I(rng.Uint64() & top)
	}
	return ind
}

func (ind *Individual[R, I]) Config() model.Config[R, I] {
	return ind.cfg
}

func (ind *Individual[R, I]) Gene(chromosome, index int) I {
	return ind.genes[ind.offset(chromosome, index)]
}

// SetGene stores value masked to the configured bit width and drops the cached fitness.
func (ind *Individual[R, I]) SetGene(chromosome, index int, value I) {
	ind.genes[ind.offset(chromosome, index)] = value & codec.MaxValue[I](ind.cfg.IntegerBits)
	ind.evaluated = false
}

func (ind *Individual[R, I]) MutationProba(index int) I {
	return ind.probas[index]
}

func (ind *Individual[R, I]) SetMutationProba(index int, value I) {
	ind.probas[index] = value & codec.MaxValue[I](ind.cfg.IntegerBits)
	ind.evaluated = false
}

// MutationProbas returns a copy of the raw probability genes; nil without auto-adaptation.
func (ind *Individual[R, I]) MutationProbas() []I {
	if len(ind.probas) == 0 {
		return nil
	}
	return append([]I(nil), ind.probas...)
}

// MutationProbabilities decodes every probability gene into [0,1].
func (ind *Individual[R, I]) MutationProbabilities() []R {
	if len(ind.probas) == 0 {
		return nil
	}
	out := make([]R, len(ind.probas))
	for i, p := range ind.probas {
		out[i] = codec.DecodeProbability[R, I](p, ind.cfg.IntegerBits)
	}
	return out
}

// ToRealVectors decodes the genotype into V vectors of D reals.
func (ind *Individual[R, I]) ToRealVectors() [][]R {
	cfg := ind.cfg
	backing := make([]R, len(ind.genes))
	for i, g := range ind.genes {
		backing[i] = codec.Decode[R, I](g, cfg.MinReal, cfg.MaxReal, cfg.IntegerBits)
	}
	vectors := make([][]R, cfg.NumberOfVectors)
	for v := range vectors {
		vectors[v] = backing[v*cfg.Dimension : (v+1)*cfg.Dimension : (v+1)*cfg.Dimension]
	}
	return vectors
}

// MutationProbability is the per-bit flip rate applied to chromosome c.
// Index V addresses the slot that drives the probability genes themselves.
func (ind *Individual[R, I]) MutationProbability(c int) R {
	if !ind.cfg.EnableAutoAdaptation {
		return ind.cfg.InitialMutationProbability
	}
	return codec.DecodeProbability[R, I](ind.probas[c], ind.cfg.IntegerBits)
}

// Mutate flips every gene bit independently. It reports whether the
// genotype changed; the fitness cache is dropped only in that case.
func (ind *Individual[R, I]) Mutate(rng *rand.Rand) bool {
	cfg := ind.cfg
	changed := false
	for c := 0; c < cfg.NumberOfVectors; c++ {
		p := float64(ind.MutationProbability(c))
		for i := 0; i < cfg.Dimension; i++ {
			idx := c*cfg.Dimension + i
			if flipped, mask := flipBits(rng, p, cfg.IntegerBits); flipped {
				ind.genes[idx] ^= I(mask)
				changed = true
			}
		}
	}
	if cfg.EnableAutoAdaptation {
		p := float64(ind.MutationProbability(cfg.NumberOfVectors))
		for i := range ind.probas {
			if flipped, mask := flipBits(rng, p, cfg.IntegerBits); flipped {
				ind.probas[i] ^= I(mask)
				changed = true
			}
		}
	}
	if changed {
		ind.evaluated = false
	}
	return changed
}

func flipBits(rng *rand.Rand, p float64, nbits int) (bool, uint64) {
	var mask uint64
	for b := 0; b < nbits; b++ {
		if rng.Float64() < p {
			mask |= uint64(1) << b
		}
	}
	return mask != 0, mask
}

func (ind *Individual[R, I]) Fitness() R {
	return ind.fitness
}

func (ind *Individual[R, I]) SetFitness(fitness R) {
	ind.fitness = fitness
	ind.evaluated = true
}

func (ind *Individual[R, I]) Evaluated() bool {
	return ind.evaluated
}

func (ind *Individual[R, I]) InvalidateFitness() {
	ind.evaluated = false
}

// Equal compares genotypes only, not the cached fitness.
func (ind *Individual[R, I]) Equal(other *Individual[R, I]) bool {
	if len(ind.genes) != len(other.genes) || len(ind.probas) != len(other.probas) {
		return false
	}
	for i := range ind.genes {
		if ind.genes[i] != other.genes[i] {
			return false
		}
	}
	for i := range ind.probas {
		if ind.probas[i] != other.probas[i] {
			return false
		}
	}
	return true
}

func (ind *Individual[R, I]) String() string {
	var b strings.Builder
	for v, vec := range ind.ToRealVectors() {
		fmt.Fprintf(&b, "  vector %d: [", v)
		for i, x := range vec {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatFloat(float64(x), 'g', 8, 64))
		}
		b.WriteString("]\n")
	}
	if probas := ind.MutationProbabilities(); len(probas) > 0 {
		b.WriteString("  mutation probabilities: [")
		for i, p := range probas {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatFloat(float64(p), 'g', 6, 64))
		}
		b.WriteString("]\n")
	}
	if ind.evaluated {
		fmt.Fprintf(&b, "  fitness: %s\n", strconv.FormatFloat(float64(ind.fitness), 'g', 10, 64))
	}
	return b.String()
}

func (ind *Individual[R, I]) offset(chromosome, index int) int {
	return chromosome*ind.cfg.Dimension + index
}
