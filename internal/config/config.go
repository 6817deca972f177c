package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"goalchase/internal/genotype"
	"goalchase/internal/scape"
	"goalchase/internal/storage"
)

const DefaultDBPath = "goalchase.db"

// Run is everything needed to drive one evaluation run.
type Run struct {
	RunID            string
	Population       int
	Generations      int
	Workers          int
	Seed             int64
	Hidden           int
	Activation       string
	FitnessGoal      float64
	IndependentGoals bool
	Store            string
	DBPath           string
	Grid             scape.GoalChaseConfig
}

func Default() Run {
	return Run{
		Population:  50,
		Generations: 100,
		Workers:     4,
		Seed:        1,
		Hidden:      genotype.DefaultHidden,
		Activation:  genotype.DefaultActivation,
		Store:       storage.DefaultStoreKind,
		DBPath:      DefaultDBPath,
		Grid:        scape.DefaultGoalChaseConfig(),
	}
}

func (r Run) Validate() error {
	if r.Population <= 0 {
		return fmt.Errorf("%w: population must be > 0, got %d", scape.ErrInvalidConfig, r.Population)
	}
	if r.Generations <= 0 {
		return fmt.Errorf("%w: generations must be > 0, got %d", scape.ErrInvalidConfig, r.Generations)
	}
	if r.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", scape.ErrInvalidConfig, r.Workers)
	}
	if r.Hidden < 0 {
		return fmt.Errorf("%w: hidden must be >= 0, got %d", scape.ErrInvalidConfig, r.Hidden)
	}
	if r.FitnessGoal < 0 {
		return fmt.Errorf("%w: fitness goal must be >= 0, got %f", scape.ErrInvalidConfig, r.FitnessGoal)
	}
	return r.Grid.Validate()
}

// Load overlays the keys present in a JSON config file onto Default.
// Unknown keys are ignored; a known key holding the wrong type is an error.
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return Run{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := Default()
	keys := fields(raw)
	for _, err := range []error{
		keys.str("run_id", &cfg.RunID),
		keys.integer("population", &cfg.Population),
		keys.integer("generations", &cfg.Generations),
		keys.integer("workers", &cfg.Workers),
		keys.seed("seed", &cfg.Seed),
		keys.integer("hidden", &cfg.Hidden),
		keys.str("activation", &cfg.Activation),
		keys.number("fitness_goal", &cfg.FitnessGoal),
		keys.boolean("independent_goals", &cfg.IndependentGoals),
		keys.str("store", &cfg.Store),
		keys.str("db_path", &cfg.DBPath),
		keys.integer("width", &cfg.Grid.Width),
		keys.integer("height", &cfg.Grid.Height),
		keys.integer("tick_budget", &cfg.Grid.TickBudget),
		keys.integer("goal_threshold", &cfg.Grid.GoalThreshold),
		keys.number("terminal_bonus", &cfg.Grid.TerminalBonus),
		keys.integer("start_x", &cfg.Grid.Start.X),
		keys.integer("start_y", &cfg.Grid.Start.Y),
	} {
		if err != nil {
			return Run{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Run{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault returns Default when path is empty.
func LoadOrDefault(path string) (Run, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// fields decodes config keys strictly. Absent keys leave the target alone.
type fields map[string]any

func (f fields) str(key string, dst *string) error {
	v, ok := f[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return typeError(key, "a string", v)
	}
	*dst = s
	return nil
}

func (f fields) boolean(key string, dst *bool) error {
	v, ok := f[key]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return typeError(key, "a boolean", v)
	}
	*dst = b
	return nil
}

func (f fields) seed(key string, dst *int64) error {
	v, ok := f[key]
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return typeError(key, "an integer", v)
	}
	i, err := n.Int64()
	if err != nil {
		// 10.0 is still an integer; 10.7 is not.
		x, ferr := n.Float64()
		if ferr != nil || x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return typeError(key, "an integer", v)
		}
		i = int64(x)
	}
	*dst = i
	return nil
}

func (f fields) integer(key string, dst *int) error {
	var i int64
	if err := f.seed(key, &i); err != nil {
		return err
	}
	if _, ok := f[key]; !ok {
		return nil
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return fmt.Errorf("%w: key %q out of range: %d", scape.ErrInvalidConfig, key, i)
	}
	*dst = int(i)
	return nil
}

func (f fields) number(key string, dst *float64) error {
	v, ok := f[key]
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return typeError(key, "a number", v)
	}
	x, err := n.Float64()
	if err != nil {
		return typeError(key, "a number", v)
	}
	*dst = x
	return nil
}

func typeError(key, want string, got any) error {
	return fmt.Errorf("%w: key %q must be %s, got %v", scape.ErrInvalidConfig, key, want, got)
}
