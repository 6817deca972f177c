package evo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"goalchase/internal/model"
	"goalchase/internal/scape"
)

// Candidate is one policy of a generation. Genome is optional and only kept
// so the best network can be written out at the end of a run.
type Candidate struct {
	ID     string
	Policy scape.Policy
	Genome *model.Genome
}

type CandidateResult struct {
	Index       int
	CandidateID string
	Seed        uint64
	Episode     scape.EpisodeResult
	Err         error
}

func (r CandidateResult) Fitness() float64 {
	return r.Episode.Fitness
}

func (r CandidateResult) Record() model.CandidateRecord {
	rec := model.CandidateRecord{
		CandidateID: r.CandidateID,
		Fitness:     r.Episode.Fitness,
		GoalsFound:  r.Episode.GoalsFound,
		Ticks:       r.Episode.Ticks,
		Termination: r.Episode.Termination.String(),
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// EpisodeRunner runs one isolated episode. scape.GoalChaseScape is the
// production implementation.
type EpisodeRunner interface {
	RunEpisode(ctx context.Context, policy scape.Policy, seed uint64) (scape.EpisodeResult, error)
}

// ReportFunc receives every candidate result as soon as it is available.
// Calls are serialized.
type ReportFunc func(CandidateResult)

type EvaluatorConfig struct {
	Runner  EpisodeRunner
	Workers int
	Seed    int64
	// IndependentGoals gives every candidate its own goal sequence. By
	// default all candidates of a generation chase the same goals.
	IndependentGoals bool
	Logger           zerolog.Logger
}

type Evaluator struct {
	cfg    EvaluatorConfig
	logger zerolog.Logger
}

func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("episode runner is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Evaluator{cfg: cfg, logger: cfg.Logger.With().Str("component", "evaluator").Logger()}, nil
}

// EvaluateGeneration runs exactly one episode per candidate and returns the
// results in candidate order. Per-candidate failures are recorded on the
// result and never abort siblings; the returned error only reports a
// malformed candidate list.
func (e *Evaluator) EvaluateGeneration(ctx context.Context, generation int, candidates []Candidate, report ReportFunc) ([]CandidateResult, error) {
	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("candidate %d: id is required", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id: %s", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type job struct {
		idx       int
		candidate Candidate
	}

	jobs := make(chan job)
	results := make(chan CandidateResult, len(candidates))

	workerCount := e.cfg.Workers
	if workerCount > len(candidates) {
		workerCount = len(candidates)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- e.evaluateCandidate(ctx, generation, j.idx, j.candidate)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for i := range candidates {
			jobs <- job{idx: i, candidate: candidates[i]}
		}
		close(jobs)
	}()

	scored := make([]CandidateResult, len(candidates))
	for res := range results {
		scored[res.Index] = res
		if res.Err != nil {
			e.logger.Warn().
				Int("generation", generation).
				Str("candidate", res.CandidateID).
				Float64("fitness", res.Fitness()).
				Err(res.Err).
				Msg("candidate episode failed")
		}
		if report != nil {
			report(res)
		}
	}
	return scored, nil
}

func (e *Evaluator) evaluateCandidate(ctx context.Context, generation, idx int, c Candidate) (res CandidateResult) {
	res = CandidateResult{
		Index:       idx,
		CandidateID: c.ID,
		Seed:        e.episodeSeed(generation, idx),
	}
	defer func() {
		if r := recover(); r != nil {
			res.Episode.Termination = scape.TerminatedByPolicyFailure
			res.Err = fmt.Errorf("%w: policy %s panicked: %v", scape.ErrPolicyFailure, c.ID, r)
		}
	}()

	if c.Policy == nil {
		res.Episode = scape.EpisodeResult{PolicyID: c.ID, Termination: scape.TerminatedByPolicyFailure}
		res.Err = fmt.Errorf("%w: candidate %s has no policy", scape.ErrPolicyFailure, c.ID)
		return res
	}

	episode, err := e.cfg.Runner.RunEpisode(ctx, c.Policy, res.Seed)
	res.Episode = episode
	if err != nil {
		if !errors.Is(err, scape.ErrPolicyFailure) {
			err = fmt.Errorf("%w: %v", scape.ErrPolicyFailure, err)
			res.Episode.Termination = scape.TerminatedByPolicyFailure
		}
		res.Err = err
	}
	return res
}

func (e *Evaluator) episodeSeed(generation, idx int) uint64 {
	seed := mixSeed(uint64(e.cfg.Seed) + uint64(generation)*0x9e3779b97f4a7c15)
	if e.cfg.IndependentGoals {
		seed = mixSeed(seed + uint64(idx+1))
	}
	return seed
}

// mixSeed is the splitmix64 finalizer; it spreads nearby seeds apart.
func mixSeed(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
