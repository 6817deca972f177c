package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"goalchase/internal/evo"
	"goalchase/internal/model"
	"goalchase/internal/scape"
	"goalchase/internal/storage"
)

type Config struct {
	Store  storage.Store
	Logger zerolog.Logger
}

// EpisodeScape is a scape that can also run seeded isolated episodes, which
// is what the generation evaluator needs.
type EpisodeScape interface {
	scape.Scape
	evo.EpisodeRunner
}

type EvolutionConfig struct {
	RunID            string
	ScapeName        string
	Source           evo.CandidateSource
	Population       int
	Generations      int
	FitnessGoal      float64
	Workers          int
	Seed             int64
	IndependentGoals bool
	Report           evo.ReportFunc
	OnGeneration     func(model.GenerationRecord)
}

type EvolutionResult struct {
	Run              model.RunRecord
	BestByGeneration []float64
	Generations      []model.GenerationRecord
	BestFinalFitness float64
	BestGenome       *model.Genome
	Stop             evo.StopReason
}

// Polis owns the store and the registered scapes and runs evaluations
// against them, persisting what each run produced.
type Polis struct {
	store  storage.Store
	logger zerolog.Logger

	mu      sync.RWMutex
	scapes  map[string]EpisodeScape
	started bool
	runs    map[string]context.CancelFunc
}

func NewPolis(cfg Config) *Polis {
	return &Polis{
		store:  cfg.Store,
		logger: cfg.Logger,
		scapes: make(map[string]EpisodeScape),
		runs:   make(map[string]context.CancelFunc),
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

// RegisterScape adds or replaces a scape under its name.
func (p *Polis) RegisterScape(s EpisodeScape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (EpisodeScape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[name]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

// RunEvolution drives cfg.Generations generations against a registered
// scape and persists the run record, per-generation summaries, the best
// fitness series and the best genome.
func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	if cfg.ScapeName == "" {
		return EvolutionResult{}, fmt.Errorf("scape name is required")
	}
	if cfg.Source == nil {
		return EvolutionResult{}, fmt.Errorf("candidate source is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	p.mu.RLock()
	target, ok := p.scapes[cfg.ScapeName]
	started := p.started
	p.mu.RUnlock()
	if !started {
		return EvolutionResult{}, fmt.Errorf("polis is not initialized")
	}
	if !ok {
		return EvolutionResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	evaluator, err := evo.NewEvaluator(evo.EvaluatorConfig{
		Runner:           target,
		Workers:          cfg.Workers,
		Seed:             cfg.Seed,
		IndependentGoals: cfg.IndependentGoals,
		Logger:           p.logger,
	})
	if err != nil {
		return EvolutionResult{}, err
	}
	driver, err := evo.NewDriver(evo.DriverConfig{
		RunID:        cfg.RunID,
		Evaluator:    evaluator,
		Source:       cfg.Source,
		Generations:  cfg.Generations,
		FitnessGoal:  cfg.FitnessGoal,
		Report:       cfg.Report,
		OnGeneration: cfg.OnGeneration,
		Logger:       p.logger,
	})
	if err != nil {
		return EvolutionResult{}, err
	}
	runID := driver.RunID()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := p.registerRun(runID, cancel); err != nil {
		return EvolutionResult{}, err
	}
	defer p.unregisterRun(runID)

	result, err := driver.Run(runCtx)
	if err != nil {
		return EvolutionResult{}, err
	}

	run := model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		ID:               runID,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339Nano),
		Scape:            cfg.ScapeName,
		Seed:             cfg.Seed,
		Population:       cfg.Population,
		Generations:      len(result.Generations),
		Workers:          cfg.Workers,
		FinalBestFitness: result.Best.Fitness(),
	}
	if configured, ok := target.(interface{ Config() scape.GoalChaseConfig }); ok {
		grid := configured.Config()
		run.Width, run.Height = grid.Width, grid.Height
		run.TickBudget = grid.TickBudget
		run.GoalThreshold = grid.GoalThreshold
		run.TerminalBonus = grid.TerminalBonus
	}

	// A cancelled run still persists what it evaluated.
	saveCtx := context.WithoutCancel(ctx)
	out := EvolutionResult{
		BestByGeneration: result.BestByGeneration,
		Generations:      result.Generations,
		BestFinalFitness: result.Best.Fitness(),
		Stop:             result.Stop,
	}
	if best := result.BestCandidate.Genome; best != nil {
		genome := *best
		out.BestGenome = &genome
		run.BestGenomeID = genome.ID
		if err := p.store.SaveGenome(saveCtx, genome); err != nil {
			return EvolutionResult{}, err
		}
	}
	if err := p.store.SaveFitnessHistory(saveCtx, runID, result.BestByGeneration); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveGenerations(saveCtx, runID, result.Generations); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveRun(saveCtx, run); err != nil {
		return EvolutionResult{}, err
	}
	out.Run = run
	return out, nil
}

// StopRun cancels an in-flight run. Episodes already running finish their
// current tick and report an external cancel.
func (p *Polis) StopRun(runID string) error {
	p.mu.RLock()
	cancel, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

func (p *Polis) ActiveRuns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.runs))
	for id := range p.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Polis) registerRun(runID string, cancel context.CancelFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	p.runs[runID] = cancel
	return nil
}

func (p *Polis) unregisterRun(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.runs, runID)
}
