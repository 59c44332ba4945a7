package genotype

import "genetic/internal/codec"

// Clone returns a deep copy, cached fitness included.
func (ind *Individual[R, I]) Clone() Individual[R, I] {
	out := *ind
	out.genes = append([]I(nil), ind.genes...)
	out.probas = append([]I(nil), ind.probas...)
	return out
}

// ClonePopulation deep-copies every member of population.
func ClonePopulation[R codec.Real, I codec.Unsigned](population []Individual[R, I]) []Individual[R, I] {
	out := make([]Individual[R, I], len(population))
	for i := range population {
		out[i] = population[i].Clone()
	}
	return out
}
