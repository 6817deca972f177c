package evo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"goalchase/internal/model"
)

// CandidateSource supplies the full candidate list of one generation.
type CandidateSource interface {
	Candidates(ctx context.Context, generation int) ([]Candidate, error)
}

type StopReason string

const (
	StopGenerations StopReason = "generations"
	StopFitnessGoal StopReason = "fitness_goal"
	StopCancelled   StopReason = "cancelled"
)

type DriverConfig struct {
	RunID       string
	Evaluator   *Evaluator
	Source      CandidateSource
	Generations int
	// FitnessGoal stops the run once a generation's best reaches it. Zero
	// disables the check.
	FitnessGoal  float64
	Report       ReportFunc
	OnGeneration func(model.GenerationRecord)
	Logger       zerolog.Logger
}

type RunResult struct {
	RunID            string
	Generations      []model.GenerationRecord
	BestByGeneration []float64
	Best             CandidateResult
	BestCandidate    Candidate
	Stop             StopReason
}

// Driver is the generation loop. Generations are strictly sequential: a
// generation is fully scored before the source is asked for the next one.
type Driver struct {
	cfg    DriverConfig
	logger zerolog.Logger
}

func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("candidate source is required")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.FitnessGoal < 0 {
		return nil, fmt.Errorf("fitness goal must be >= 0")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Driver{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("run_id", cfg.RunID).Logger(),
	}, nil
}

func (d *Driver) RunID() string {
	return d.cfg.RunID
}

func (d *Driver) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: d.cfg.RunID, Stop: StopGenerations}
	haveBest := false

	d.logger.Info().Int("generations", d.cfg.Generations).Msg("run started")
	for generation := 0; generation < d.cfg.Generations; generation++ {
		if ctx.Err() != nil {
			result.Stop = StopCancelled
			break
		}

		candidates, err := d.cfg.Source.Candidates(ctx, generation)
		if err != nil {
			return result, fmt.Errorf("generation %d candidates: %w", generation, err)
		}
		scored, err := d.cfg.Evaluator.EvaluateGeneration(ctx, generation, candidates, d.cfg.Report)
		if err != nil {
			return result, fmt.Errorf("generation %d: %w", generation, err)
		}
		// A generation cut short by cancellation is not recorded.
		if ctx.Err() != nil {
			d.logger.Info().Int("generation", generation).Msg("generation interrupted")
			result.Stop = StopCancelled
			break
		}

		summary := Summarize(generation, scored)
		result.Generations = append(result.Generations, summary)
		result.BestByGeneration = append(result.BestByGeneration, summary.BestFitness)
		for i, res := range scored {
			if !haveBest || res.Fitness() > result.Best.Fitness() {
				result.Best = res
				result.BestCandidate = candidates[i]
				haveBest = true
			}
		}

		d.logger.Info().
			Int("generation", generation).
			Float64("best", summary.BestFitness).
			Float64("mean", summary.MeanFitness).
			Float64("std", summary.StdFitness).
			Int("successes", summary.Successes).
			Int("failures", summary.Failures).
			Msg("generation evaluated")
		if d.cfg.OnGeneration != nil {
			d.cfg.OnGeneration(summary)
		}

		if d.cfg.FitnessGoal > 0 && summary.BestFitness >= d.cfg.FitnessGoal {
			result.Stop = StopFitnessGoal
			break
		}
	}

	d.logger.Info().
		Str("stop", string(result.Stop)).
		Str("best_candidate", result.Best.CandidateID).
		Float64("best_fitness", result.Best.Fitness()).
		Msg("run finished")
	return result, nil
}
