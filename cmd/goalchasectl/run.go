package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"goalchase/internal/config"
	"goalchase/internal/render"
	"goalchase/internal/scape"
	"goalchase/pkg/goalchase"
)

// openScreen is replaced in tests with a simulation screen.
var openScreen = func() (tcell.Screen, error) {
	return tcell.NewScreen()
}

type gridFlags struct {
	width, height, tickBudget, goalThreshold int
	startX, startY                           int
	terminalBonus                            float64
}

func (g *gridFlags) register(fs *pflag.FlagSet) {
	def := scape.DefaultGoalChaseConfig()
	fs.IntVar(&g.width, "width", def.Width, "grid width")
	fs.IntVar(&g.height, "height", def.Height, "grid height")
	fs.IntVar(&g.tickBudget, "tick-budget", def.TickBudget, "ticks per episode")
	fs.IntVar(&g.goalThreshold, "goal-threshold", def.GoalThreshold, "goals that end an episode with the bonus")
	fs.Float64Var(&g.terminalBonus, "terminal-bonus", def.TerminalBonus, "fitness bonus for reaching the goal threshold")
	fs.IntVar(&g.startX, "start-x", def.Start.X, "agent start column")
	fs.IntVar(&g.startY, "start-y", def.Start.Y, "agent start row")
}

// apply copies only the flags set on the command line over cfg.
func (g *gridFlags) apply(fs *pflag.FlagSet, cfg *scape.GoalChaseConfig) {
	if fs.Changed("width") {
		cfg.Width = g.width
	}
	if fs.Changed("height") {
		cfg.Height = g.height
	}
	if fs.Changed("tick-budget") {
		cfg.TickBudget = g.tickBudget
	}
	if fs.Changed("goal-threshold") {
		cfg.GoalThreshold = g.goalThreshold
	}
	if fs.Changed("terminal-bonus") {
		cfg.TerminalBonus = g.terminalBonus
	}
	if fs.Changed("start-x") {
		cfg.Start.X = g.startX
	}
	if fs.Changed("start-y") {
		cfg.Start.Y = g.startY
	}
}

func runCommand(opts *globalOptions) *cobra.Command {
	var (
		configPath       string
		runID            string
		population       int
		generations      int
		workers          int
		seed             int64
		hidden           int
		activation       string
		fitnessGoal      float64
		independentGoals bool
		noProgress       bool
		jsonOut          bool
		grid             gridFlags
	)
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate generations of random networks and keep the best",
		Long: `Evaluate generations of random networks and keep the best.

The bundled candidate source does no evolution: every generation is a fresh,
independently seeded draw of random networks, so later generations do not
build on earlier ones. The run is a seeded random search over network weights.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fs := cmd.Flags()
			if fs.Changed("run-id") {
				cfg.RunID = runID
			}
			if fs.Changed("population") {
				cfg.Population = population
			}
			if fs.Changed("generations") {
				cfg.Generations = generations
			}
			if fs.Changed("workers") {
				cfg.Workers = workers
			}
			if fs.Changed("seed") {
				cfg.Seed = seed
			}
			if fs.Changed("hidden") {
				cfg.Hidden = hidden
			}
			if fs.Changed("activation") {
				cfg.Activation = activation
			}
			if fs.Changed("fitness-goal") {
				cfg.FitnessGoal = fitnessGoal
			}
			if fs.Changed("independent-goals") {
				cfg.IndependentGoals = independentGoals
			}
			if fs.Changed("store") || configPath == "" {
				cfg.Store = opts.store
			}
			if fs.Changed("db-path") || configPath == "" {
				cfg.DBPath = opts.dbPath
			}
			grid.apply(fs, &cfg.Grid)
			if err := cfg.Validate(); err != nil {
				return err
			}

			client, logger, err := opts.client(cfg.Store, cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := goalchase.RunRequest{Run: cfg}
			if !noProgress && !jsonOut {
				req.Progress = cmd.ErrOrStderr()
			}
			started := time.Now()
			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			logger.Debug().Dur("elapsed", time.Since(started)).Msg("run complete")

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, summary)
			}
			fmt.Fprintf(out, "run_id=%s stop=%s generations=%d evaluations=%s\n",
				summary.RunID, summary.Stop, len(summary.BestByGeneration),
				humanize.Comma(int64(len(summary.BestByGeneration)*cfg.Population)))
			fmt.Fprintf(out, "best_fitness=%.6f best_genome=%s\n", summary.FinalBestFitness, summary.BestGenomeID)
			fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&configPath, "config", "", "JSON run config; flags override its keys")
	fs.StringVar(&runID, "run-id", "", "explicit run id (default: random uuid)")
	fs.IntVar(&population, "population", def.Population, "candidates per generation")
	fs.IntVar(&generations, "generations", def.Generations, "generations to evaluate")
	fs.IntVar(&workers, "workers", def.Workers, "parallel episode workers")
	fs.Int64Var(&seed, "seed", def.Seed, "base seed for networks and goals")
	fs.IntVar(&hidden, "hidden", def.Hidden, "hidden neurons per network")
	fs.StringVar(&activation, "activation", def.Activation, "hidden and output activation")
	fs.Float64Var(&fitnessGoal, "fitness-goal", def.FitnessGoal, "stop once a generation reaches this fitness (0 disables)")
	fs.BoolVar(&independentGoals, "independent-goals", def.IndependentGoals, "give every candidate its own goal sequence")
	fs.BoolVar(&noProgress, "no-progress", false, "disable the live progress line")
	fs.BoolVar(&jsonOut, "json", false, "emit the run summary as JSON")
	grid.register(fs)
	return cmd
}

func evaluateCommand(opts *globalOptions) *cobra.Command {
	var (
		genomePath string
		seed       uint64
		trajectory bool
		jsonOut    bool
		grid       gridFlags
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one episode for a saved genome or the greedy baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := scape.DefaultGoalChaseConfig()
			grid.apply(cmd.Flags(), &cfg)

			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Evaluate(cmd.Context(), goalchase.EvaluateRequest{
				GenomePath:       genomePath,
				Grid:             cfg,
				Seed:             seed,
				RecordTrajectory: trajectory,
			})
			if err != nil && !errors.Is(err, scape.ErrPolicyFailure) {
				return err
			}
			if jsonOut {
				if werr := writeJSON(cmd.OutOrStdout(), summary); werr != nil {
					return werr
				}
				return err
			}
			printEpisode(cmd.OutOrStdout(), summary)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&genomePath, "genome", "", "genome file written by a run (default: greedy baseline)")
	fs.Uint64Var(&seed, "seed", 1, "goal sequence seed")
	fs.BoolVar(&trajectory, "trajectory", false, "record per-tick fitness")
	fs.BoolVar(&jsonOut, "json", false, "emit the episode summary as JSON")
	grid.register(fs)
	return cmd
}

func watchCommand(opts *globalOptions) *cobra.Command {
	var (
		genomePath string
		seed       uint64
		delay      time.Duration
		grid       gridFlags
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Draw one episode in the terminal; q or esc stops it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := scape.DefaultGoalChaseConfig()
			grid.apply(cmd.Flags(), &cfg)

			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			screen, err := openScreen()
			if err != nil {
				return err
			}
			term, err := render.NewTerminal(screen, delay)
			if err != nil {
				return err
			}
			summary, err := client.Evaluate(cmd.Context(), goalchase.EvaluateRequest{
				GenomePath: genomePath,
				Grid:       cfg,
				Seed:       seed,
				Observer:   term,
			})
			term.Close()
			if err != nil && !errors.Is(err, scape.ErrPolicyFailure) {
				return err
			}
			printEpisode(cmd.OutOrStdout(), summary)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&genomePath, "genome", "", "genome file written by a run (default: greedy baseline)")
	fs.Uint64Var(&seed, "seed", 1, "goal sequence seed")
	fs.DurationVar(&delay, "delay", 30*time.Millisecond, "pause between frames")
	grid.register(fs)
	return cmd
}

func printEpisode(out io.Writer, summary goalchase.EvaluateSummary) {
	fmt.Fprintf(out, "policy=%s termination=%s ticks=%s goals=%d fitness=%.6f\n",
		summary.PolicyID, summary.Termination, humanize.Comma(int64(summary.Ticks)), summary.GoalsFound, summary.Fitness)
	for i, v := range summary.Trajectory {
		fmt.Fprintf(out, "tick=%d fitness=%.6f\n", i+1, v)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

