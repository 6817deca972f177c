package genotype

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"goalchase/internal/agent"
	"goalchase/internal/evo"
)

type RandomSourceConfig struct {
	Size       int
	Hidden     int
	Activation string
	Seed       int64
}

// RandomSource draws a fresh population of random networks for every
// generation. It never selects or mutates; the same seed and generation
// always yield the same genomes.
type RandomSource struct {
	cfg RandomSourceConfig
}

func NewRandomSource(cfg RandomSourceConfig) (*RandomSource, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Hidden < 0 {
		return nil, fmt.Errorf("hidden must be >= 0")
	}
	if cfg.Activation == "" {
		cfg.Activation = DefaultActivation
	}
	return &RandomSource{cfg: cfg}, nil
}

func (s *RandomSource) Candidates(ctx context.Context, generation int) ([]evo.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(uint64(s.cfg.Seed) + uint64(generation+1)*0x9e3779b97f4a7c15))
	out := make([]evo.Candidate, 0, s.cfg.Size)
	for i := 0; i < s.cfg.Size; i++ {
		id := fmt.Sprintf("g%03d-c%03d", generation, i)
		genome, err := RandomGenome(rng, id, s.cfg.Hidden, s.cfg.Activation)
		if err != nil {
			return nil, err
		}
		cortex, err := agent.NewCortex(id, genome)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", id, err)
		}
		out = append(out, evo.Candidate{ID: id, Policy: cortex, Genome: &genome})
	}
	return out, nil
}
