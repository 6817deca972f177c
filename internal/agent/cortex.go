package agent

import (
	"context"
	"fmt"
	"math"

	"goalchase/internal/model"
	"goalchase/internal/nn"
	"goalchase/internal/scape"
)

// Cortex adapts a compiled genome to the goal chase policy contract.
type Cortex struct {
	id      string
	genome  model.Genome
	network *nn.Network
}

func NewCortex(id string, genome model.Genome) (*Cortex, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	network, err := nn.Compile(genome)
	if err != nil {
		return nil, err
	}
	if network.InputSize() != scape.ObservationSize {
		return nil, fmt.Errorf("genome %s: expected %d inputs, got %d", genome.ID, scape.ObservationSize, network.InputSize())
	}
	if network.OutputSize() != scape.ActionCount {
		return nil, fmt.Errorf("genome %s: expected %d outputs, got %d", genome.ID, scape.ActionCount, network.OutputSize())
	}
	return &Cortex{id: id, genome: genome, network: network}, nil
}

func (c *Cortex) ID() string {
	return c.id
}

func (c *Cortex) Genome() model.Genome {
	return c.genome
}

func (c *Cortex) Activate(ctx context.Context, observation []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := c.network.Activate(observation)
	if err != nil {
		return nil, err
	}
	for i, v := range out {
		if math.IsInf(v, 0) {
			return nil, fmt.Errorf("output %d diverged", i)
		}
	}
	return out, nil
}

// Greedy scores each move by how much it shrinks the offset to the goal. It
// is the baseline the evolved networks are compared against.
type Greedy struct {
	Name string
}

func (g Greedy) ID() string {
	if g.Name == "" {
		return "greedy"
	}
	return g.Name
}

func (Greedy) Activate(_ context.Context, observation []float64) ([]float64, error) {
	if len(observation) != scape.ObservationSize {
		return nil, fmt.Errorf("greedy policy expects %d inputs, got %d", scape.ObservationSize, len(observation))
	}
	dx, dy := observation[0], observation[1]
	scores := make([]float64, scape.ActionCount)
	scores[scape.ActionUp] = -dy
	scores[scape.ActionDown] = dy
	scores[scape.ActionLeft] = -dx
	scores[scape.ActionRight] = dx
	return scores, nil
}
