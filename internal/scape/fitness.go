package scape

// Scorer computes the instantaneous fitness of an episode.
type Scorer struct {
	GoalThreshold int
	TerminalBonus float64
}

// Score is goalsFound + 1/distance. A zero distance only occurs when a new
// goal spawns on top of the walker; the reciprocal term is dropped then.
func (s Scorer) Score(goalsFound int, distance float64) float64 {
	score := float64(goalsFound)
	if distance > 0 {
		score += 1 / distance
	}
	return score
}

// Reached reports whether goalsFound satisfies the success threshold.
func (s Scorer) Reached(goalsFound int) bool {
	return goalsFound >= s.GoalThreshold
}

// Finish applies the one-time terminal bonus to a successful episode.
func (s Scorer) Finish(fitness float64) float64 {
	return fitness + s.TerminalBonus
}
