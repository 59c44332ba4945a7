package evo

import (
	"math/rand"

	"genetic/internal/codec"
	"genetic/internal/genotype"
	"genetic/internal/model"
)

// createOffspring shuffles the parent buffer and pairs it up twice; the
// first pass fills the lower half of the population, the second the upper.
func (e *Engine[R, I]) createOffspring() {
	half := len(e.selected)
	for pass := 0; pass < 2; pass++ {
		e.rng.Shuffle(half, func(i, j int) {
			e.selected[i], e.selected[j] = e.selected[j], e.selected[i]
		})
		base := pass * half
		for i := 0; i+1 < half; i += 2 {
			child1, child2 := e.crossover(&e.selected[i], &e.selected[i+1])
			e.population[base+i] = child1
			e.population[base+i+1] = child2
		}
	}
}

// crossover recombines every data chromosome, then the probability genes.
// Both children come back unevaluated.
func (e *Engine[R, I]) crossover(p1, p2 *genotype.Individual[R, I]) (genotype.Individual[R, I], genotype.Individual[R, I]) {
	child1 := p1.Clone()
	child2 := p2.Clone()
	cfg := e.cfg

	for c := 0; c < cfg.NumberOfVectors; c++ {
		chromo := c
		parents := genePair[I]{
			get1: func(i int) I { return p1.Gene(chromo, i) },
			get2: func(i int) I { return p2.Gene(chromo, i) },
			set1: func(i int, v I) { child1.SetGene(chromo, i, v) },
			set2: func(i int, v I) { child2.SetGene(chromo, i, v) },
		}
		recombine(e.rng, cfg, parents, cfg.Dimension, cfg.ChromosomeBits())
	}

	if cfg.EnableAutoAdaptation {
		parents := genePair[I]{
			get1: p1.MutationProba,
			get2: p2.MutationProba,
			set1: child1.SetMutationProba,
			set2: child2.SetMutationProba,
		}
		recombine(e.rng, cfg, parents, cfg.NumberOfVectors+1, cfg.MutationProbabilityBits())
	}

	child1.InvalidateFitness()
	child2.InvalidateFitness()
	return child1, child2
}

// genePair addresses the same gene sequence in two parents and two children.
type genePair[I codec.Unsigned] struct {
	get1, get2 func(i int) I
	set1, set2 func(i int, v I)
}

// recombine crosses length genes; bits is their flattened bit length.
func recombine[R codec.Real, I codec.Unsigned](rng *rand.Rand, cfg model.Config[R, I], g genePair[I], length, bits int) {
	switch cfg.CrossoverMethod {
	case model.UniformBitLevel:
		uniformBitLevel(rng, g, length, cfg.IntegerBits, float64(cfg.UniformCrossoverProbability))
	default:
		cut := rng.Intn(bits)
		singlePointBitLevel(g, length, cfg.IntegerBits, cut)
	}
}

// singlePointBitLevel splits the flattened bit string at cut. Bits below
// cut come from the child's own parent, bits from cut onward from the other.
func singlePointBitLevel[I codec.Unsigned](g genePair[I], length, nbits, cut int) {
	k := cut / nbits
	kPrime := cut % nbits

	for i := 0; i < k; i++ {
		g.set1(i, g.get1(i))
		g.set2(i, g.get2(i))
	}

	if k < length {
		g1, g2 := g.get1(k), g.get2(k)
		low := (I(1) << kPrime) - 1
		high := ^low
		g.set1(k, (g1&low)|(g2&high))
		g.set2(k, (g2&low)|(g1&high))
	}

	for i := k + 1; i < length; i++ {
		g.set1(i, g.get2(i))
		g.set2(i, g.get1(i))
	}
}

// uniformBitLevel keeps each bit with its own parent with probability keep,
// otherwise swaps it between the children.
func uniformBitLevel[I codec.Unsigned](rng *rand.Rand, g genePair[I], length, nbits int, keep float64) {
	for k := 0; k < length; k++ {
		g1, g2 := g.get1(k), g.get2(k)
		var c1, c2 I
		for b := 0; b < nbits; b++ {
			mask := I(1) << b
			if rng.Float64() < keep {
				c1 |= g1 & mask
				c2 |= g2 & mask
			} else {
				c1 |= g2 & mask
				c2 |= g1 & mask
			}
		}
		g.set1(k, c1)
		g.set2(k, c2)
	}
}
