package scape

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid goal chase config")
	ErrPolicyFailure = errors.New("policy evaluation failed")
)

const goalChaseName = "goal-chase"

type GoalChaseConfig struct {
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	TickBudget    int      `json:"tick_budget"`
	GoalThreshold int      `json:"goal_threshold"`
	TerminalBonus float64  `json:"terminal_bonus"`
	Start         Position `json:"start"`
	// RecordTrajectory keeps the per-tick fitness values on the result.
	RecordTrajectory bool `json:"record_trajectory,omitempty"`
}

func DefaultGoalChaseConfig() GoalChaseConfig {
	return GoalChaseConfig{
		Width:         100,
		Height:        100,
		TickBudget:    1500,
		GoalThreshold: 5,
		TerminalBonus: 100,
		Start:         Position{X: 50, Y: 50},
	}
}

func (c GoalChaseConfig) Bounds() Bounds {
	return Bounds{Width: c.Width, Height: c.Height}
}

func (c GoalChaseConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: grid must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.TickBudget <= 0 {
		return fmt.Errorf("%w: tick budget must be > 0, got %d", ErrInvalidConfig, c.TickBudget)
	}
	if c.GoalThreshold <= 0 {
		return fmt.Errorf("%w: goal threshold must be > 0, got %d", ErrInvalidConfig, c.GoalThreshold)
	}
	if c.TerminalBonus < 0 {
		return fmt.Errorf("%w: terminal bonus must be >= 0, got %f", ErrInvalidConfig, c.TerminalBonus)
	}
	if !c.Bounds().Contains(c.Start) {
		return fmt.Errorf("%w: start %s outside %dx%d grid", ErrInvalidConfig, c.Start, c.Width, c.Height)
	}
	return nil
}

// Termination is the episode state machine. Every state other than Running
// is terminal.
type Termination int

const (
	Running Termination = iota
	TerminatedByGoalThreshold
	TerminatedByTickLimit
	TerminatedByExternalCancel
	TerminatedByPolicyFailure
)

func (t Termination) String() string {
	switch t {
	case Running:
		return "running"
	case TerminatedByGoalThreshold:
		return "goal_threshold"
	case TerminatedByTickLimit:
		return "tick_limit"
	case TerminatedByExternalCancel:
		return "external_cancel"
	case TerminatedByPolicyFailure:
		return "policy_failure"
	default:
		return fmt.Sprintf("termination(%d)", int(t))
	}
}

// Frame is what an observer sees once per tick.
type Frame struct {
	Tick       int
	Bounds     Bounds
	Agent      Position
	Goal       Position
	GoalsFound int
	Fitness    float64
}

// Observer passively watches an episode. Stopped is polled at the top of
// every tick and must not block. An observer shared by concurrent episodes
// must be safe for concurrent use.
type Observer interface {
	Observe(frame Frame)
	Stopped() bool
}

type NopObserver struct{}

func (NopObserver) Observe(Frame) {}

func (NopObserver) Stopped() bool { return false }

type EpisodeResult struct {
	PolicyID    string
	Fitness     float64
	BestFitness float64
	GoalsFound  int
	Ticks       int
	Termination Termination
	Trajectory  []float64
}

func (r EpisodeResult) Trace() Trace {
	return Trace{
		"goals_found":  r.GoalsFound,
		"ticks":        r.Ticks,
		"termination":  r.Termination.String(),
		"best_fitness": r.BestFitness,
	}
}

// Episode owns all mutable state of one simulated run.
type Episode struct {
	cfg      GoalChaseConfig
	scorer   Scorer
	spawner  Spawner
	observer Observer

	walker     *Walker
	goal       Position
	goalsFound int
	ticks      int
	fitness    float64
	best       float64
	state      Termination
	trajectory []float64
}

func NewEpisode(cfg GoalChaseConfig, spawner Spawner, observer Observer) (*Episode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if spawner == nil {
		return nil, fmt.Errorf("goal spawner is required")
	}
	if observer == nil {
		observer = NopObserver{}
	}
	walker, err := NewWalker(cfg.Bounds(), cfg.Start)
	if err != nil {
		return nil, err
	}
	return &Episode{
		cfg:      cfg,
		scorer:   Scorer{GoalThreshold: cfg.GoalThreshold, TerminalBonus: cfg.TerminalBonus},
		spawner:  spawner,
		observer: observer,
		walker:   walker,
		goal:     spawner.Spawn(),
		state:    Running,
	}, nil
}

func (e *Episode) State() Termination {
	return e.state
}

func (e *Episode) Agent() Position {
	return e.walker.Position()
}

func (e *Episode) Goal() Position {
	return e.goal
}

func (e *Episode) GoalsFound() int {
	return e.goalsFound
}

func (e *Episode) Ticks() int {
	return e.ticks
}

func (e *Episode) Fitness() float64 {
	return e.fitness
}

// Observation is (goal.x-agent.x, goal.y-agent.y, distance).
func (e *Episode) Observation() []float64 {
	agent := e.walker.Position()
	return []float64{
		float64(e.goal.X - agent.X),
		float64(e.goal.Y - agent.Y),
		Distance(agent, e.goal),
	}
}

// Step advances the episode by one tick and returns the resulting state.
// Calling Step on a terminated episode is a no-op.
func (e *Episode) Step(ctx context.Context, policy Policy) (Termination, error) {
	if e.state != Running {
		return e.state, nil
	}
	if ctx.Err() != nil || e.observer.Stopped() {
		e.state = TerminatedByExternalCancel
		return e.state, nil
	}

	scores, err := activate(ctx, policy, e.Observation())
	if err != nil {
		// Cancellation can land after the poll above; the policy then
		// reports ctx.Err() and the episode still ends as a cancel.
		if ctx.Err() != nil {
			e.state = TerminatedByExternalCancel
			return e.state, nil
		}
		return e.fail(policy, err)
	}
	action, err := SelectAction(scores)
	if err != nil {
		return e.fail(policy, err)
	}
	e.walker.Apply(action)

	if e.walker.Position() == e.goal {
		e.goalsFound++
		e.goal = e.spawner.Spawn()
	}

	e.fitness = e.scorer.Score(e.goalsFound, Distance(e.walker.Position(), e.goal))
	if e.scorer.Reached(e.goalsFound) {
		e.fitness = e.scorer.Finish(e.fitness)
		e.state = TerminatedByGoalThreshold
	}
	e.ticks++
	if e.state == Running && e.ticks >= e.cfg.TickBudget {
		e.state = TerminatedByTickLimit
	}

	if e.fitness > e.best {
		e.best = e.fitness
	}
	if e.cfg.RecordTrajectory {
		e.trajectory = append(e.trajectory, e.fitness)
	}
	e.observer.Observe(Frame{
		Tick:       e.ticks,
		Bounds:     e.cfg.Bounds(),
		Agent:      e.walker.Position(),
		Goal:       e.goal,
		GoalsFound: e.goalsFound,
		Fitness:    e.fitness,
	})
	return e.state, nil
}

func activate(ctx context.Context, policy Policy, observation []float64) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return policy.Activate(ctx, observation)
}

func (e *Episode) fail(policy Policy, cause error) (Termination, error) {
	e.state = TerminatedByPolicyFailure
	e.fitness = e.best
	return e.state, fmt.Errorf("%w: policy %s at tick %d: %v", ErrPolicyFailure, policy.ID(), e.ticks, cause)
}

// Run ticks until a terminal state is reached. The only error it returns
// wraps ErrPolicyFailure, and the result is populated even then.
func (e *Episode) Run(ctx context.Context, policy Policy) (EpisodeResult, error) {
	var err error
	for e.state == Running {
		if _, err = e.Step(ctx, policy); err != nil {
			break
		}
	}
	return e.Result(policy.ID()), err
}

func (e *Episode) Result(policyID string) EpisodeResult {
	return EpisodeResult{
		PolicyID:    policyID,
		Fitness:     e.fitness,
		BestFitness: e.best,
		GoalsFound:  e.goalsFound,
		Ticks:       e.ticks,
		Termination: e.state,
		Trajectory:  append([]float64(nil), e.trajectory...),
	}
}

// GoalChaseScape evaluates policies in the goal chase grid world.
type GoalChaseScape struct {
	cfg      GoalChaseConfig
	seed     uint64
	observer Observer
}

func NewGoalChaseScape(cfg GoalChaseConfig, seed uint64, observer Observer) (*GoalChaseScape, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &GoalChaseScape{cfg: cfg, seed: seed, observer: observer}, nil
}

func (*GoalChaseScape) Name() string {
	return goalChaseName
}

func (s *GoalChaseScape) Config() GoalChaseConfig {
	return s.cfg
}

func (s *GoalChaseScape) Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	return s.EvaluateSeed(ctx, agent, s.seed)
}

func (s *GoalChaseScape) EvaluateSeed(ctx context.Context, agent Agent, seed uint64) (Fitness, Trace, error) {
	policy, ok := agent.(Policy)
	if !ok {
		return 0, nil, fmt.Errorf("agent %s does not implement policy activation", agent.ID())
	}
	result, err := s.RunEpisode(ctx, policy, seed)
	return Fitness(result.Fitness), result.Trace(), err
}

// RunEpisode simulates one full episode with goals drawn from seed.
func (s *GoalChaseScape) RunEpisode(ctx context.Context, policy Policy, seed uint64) (EpisodeResult, error) {
	episode, err := NewEpisode(s.cfg, NewSeededGoalSpawner(s.cfg.Bounds(), seed), s.observer)
	if err != nil {
		return EpisodeResult{PolicyID: policy.ID()}, err
	}
	return episode.Run(ctx, policy)
}
