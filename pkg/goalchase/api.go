package goalchase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"goalchase/internal/agent"
	"goalchase/internal/config"
	"goalchase/internal/genotype"
	"goalchase/internal/model"
	"goalchase/internal/platform"
	"goalchase/internal/scape"
	"goalchase/internal/stats"
	"goalchase/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        zerolog.Logger
}

type Client struct {
	store  storage.Store
	polis  *platform.Polis
	logger zerolog.Logger

	benchmarksDir string
	exportsDir    string
}

type RunRequest struct {
	config.Run
	// Progress, when set, receives a live status line.
	Progress io.Writer
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	BestGenomeID     string
	Stop             string
}

type EvaluateRequest struct {
	// GenomePath points at a genome written by a previous run. When empty
	// the greedy baseline policy is evaluated instead.
	GenomePath string
	// Grid defaults to scape.DefaultGoalChaseConfig when left zero.
	Grid             scape.GoalChaseConfig
	Seed             uint64
	Observer         scape.Observer
	RecordTrajectory bool
}

type EvaluateSummary struct {
	PolicyID    string
	Fitness     float64
	BestFitness float64
	GoalsFound  int
	Ticks       int
	Termination string
	Trajectory  []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Scape            string
	Generations      int
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type GenerationsRequest struct {
	RunID  string
	Latest bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		logger:        opts.Logger,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

// Run evaluates req.Generations generations of random networks and writes
// the run artifacts, best genome included, under the benchmarks directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := req.Validate(); err != nil {
		return RunSummary{}, err
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	goalChase, err := scape.NewGoalChaseScape(req.Grid, uint64(req.Seed), nil)
	if err != nil {
		return RunSummary{}, err
	}
	if err := p.RegisterScape(goalChase); err != nil {
		return RunSummary{}, err
	}
	source, err := genotype.NewRandomSource(genotype.RandomSourceConfig{
		Size:       req.Population,
		Hidden:     req.Hidden,
		Activation: req.Activation,
		Seed:       req.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}

	evoCfg := platform.EvolutionConfig{
		RunID:            req.RunID,
		ScapeName:        goalChase.Name(),
		Source:           source,
		Population:       req.Population,
		Generations:      req.Generations,
		FitnessGoal:      req.FitnessGoal,
		Workers:          req.Workers,
		Seed:             req.Seed,
		IndependentGoals: req.IndependentGoals,
	}
	if req.Progress != nil {
		progress := stats.NewProgress(req.Progress, req.Generations, req.Population)
		progress.Start()
		defer progress.Stop()
		evoCfg.Report = progress.Candidate
		evoCfg.OnGeneration = progress.Generation
	}

	result, err := p.RunEvolution(ctx, evoCfg)
	if err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Run:              result.Run,
		Generations:      result.Generations,
		BestByGeneration: result.BestByGeneration,
		BestGenome:       result.BestGenome,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            result.Run.ID,
		CreatedAtUTC:     result.Run.CreatedAtUTC,
		Scape:            result.Run.Scape,
		Generations:      result.Run.Generations,
		FinalBestFitness: result.BestFinalFitness,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            result.Run.ID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: result.BestFinalFitness,
		BestGenomeID:     result.Run.BestGenomeID,
		Stop:             string(result.Stop),
	}, nil
}

// Evaluate runs a single episode. A failing policy still yields a summary
// along with an error wrapping scape.ErrPolicyFailure.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateSummary, error) {
	grid := req.Grid
	if grid == (scape.GoalChaseConfig{}) {
		grid = scape.DefaultGoalChaseConfig()
	}
	grid.RecordTrajectory = req.RecordTrajectory
	goalChase, err := scape.NewGoalChaseScape(grid, req.Seed, req.Observer)
	if err != nil {
		return EvaluateSummary{}, err
	}

	var policy scape.Policy = agent.Greedy{}
	if req.GenomePath != "" {
		genome, err := genotype.ReadGenomeFile(req.GenomePath)
		if err != nil {
			return EvaluateSummary{}, err
		}
		cortex, err := agent.NewCortex(genome.ID, genome)
		if err != nil {
			return EvaluateSummary{}, err
		}
		policy = cortex
	}

	result, err := goalChase.RunEpisode(ctx, policy, req.Seed)
	summary := EvaluateSummary{
		PolicyID:    result.PolicyID,
		Fitness:     result.Fitness,
		BestFitness: result.BestFitness,
		GoalsFound:  result.GoalsFound,
		Ticks:       result.Ticks,
		Termination: result.Termination.String(),
		Trajectory:  result.Trajectory,
	}
	c.logger.Info().
		Str("policy", summary.PolicyID).
		Float64("fitness", summary.Fitness).
		Int("goals", summary.GoalsFound).
		Int("ticks", summary.Ticks).
		Str("termination", summary.Termination).
		Msg("episode evaluated")
	return summary, err
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Scape:            e.Scape,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Generations(ctx context.Context, req GenerationsRequest) ([]model.GenerationRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	generations, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generations not found for run id: %s", runID)
	}
	return generations, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{Store: c.store, Logger: c.logger})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}
