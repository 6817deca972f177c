package scape

import "context"

type Fitness float64

type Trace map[string]any

type Agent interface {
	ID() string
}

// Policy is the adapter for one candidate under evaluation. Activate maps an
// observation vector to one score per action and must be deterministic for a
// fixed internal state.
type Policy interface {
	Agent
	Activate(ctx context.Context, observation []float64) ([]float64, error)
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error)
}

// SeededScape optionally exposes evaluation against an explicit random seed so
// callers can make goal placement reproducible per candidate.
type SeededScape interface {
	Scape
	EvaluateSeed(ctx context.Context, agent Agent, seed uint64) (Fitness, Trace, error)
}
