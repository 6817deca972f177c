package evo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"goalchase/internal/model"
	"goalchase/internal/scape"
)

// Summarize folds one generation's results into a persisted record.
func Summarize(generation int, results []CandidateResult) model.GenerationRecord {
	rec := model.GenerationRecord{
		Generation: generation,
		Candidates: make([]model.CandidateRecord, 0, len(results)),
	}
	if len(results) == 0 {
		return rec
	}

	fitness := make([]float64, len(results))
	for i, res := range results {
		fitness[i] = res.Fitness()
		rec.Candidates = append(rec.Candidates, res.Record())
		if res.Err != nil {
			rec.Failures++
		}
		if res.Episode.Termination == scape.TerminatedByGoalThreshold {
			rec.Successes++
		}
	}

	best := floats.MaxIdx(fitness)
	rec.BestFitness = fitness[best]
	rec.BestID = results[best].CandidateID
	rec.MinFitness = floats.Min(fitness)
	rec.MeanFitness, rec.StdFitness = stat.PopMeanStdDev(fitness, nil)
	return rec
}
