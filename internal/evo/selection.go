package evo

// selection fills the parent buffer with HalfPopulationSize tournament
// winners. Candidates are drawn with replacement; the first strictly
// greatest fitness wins and NaN loses to any number.
func (e *Engine[R, I]) selection() error {
	n := len(e.population)
	for i := range e.selected {
		bestIdx := e.rng.Intn(n)
		bestFitness, err := e.evaluate(&e.population[bestIdx])
		if err != nil {
			return err
		}
		for t := 1; t < e.cfg.TournamentSize; t++ {
			idx := e.rng.Intn(n)
			fitness, err := e.evaluate(&e.population[idx])
			if err != nil {
				return err
			}
			if better(fitness, bestFitness) {
				bestFitness = fitness
				bestIdx = idx
			}
		}
		e.selected[i] = e.population[bestIdx].Clone()
	}
	return nil
}
