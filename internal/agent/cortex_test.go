package agent

import (
	"context"
	"errors"
	"slices"
	"testing"

	"goalchase/internal/model"
	"goalchase/internal/scape"
)

// directGenome wires dx to right/left and dy to down/up with no hidden layer.
func directGenome() model.Genome {
	return model.Genome{
		ID: "direct",
		Neurons: []model.Neuron{
			{ID: "dx", Activation: "identity"},
			{ID: "dy", Activation: "identity"},
			{ID: "dist", Activation: "identity"},
			{ID: "up", Activation: "identity"},
			{ID: "down", Activation: "identity"},
			{ID: "left", Activation: "identity"},
			{ID: "right", Activation: "identity"},
		},
		Synapses: []model.Synapse{
			{From: "dy", To: "up", Weight: -1, Enabled: true},
			{From: "dy", To: "down", Weight: 1, Enabled: true},
			{From: "dx", To: "left", Weight: -1, Enabled: true},
			{From: "dx", To: "right", Weight: 1, Enabled: true},
		},
		InputIDs:  []string{"dx", "dy", "dist"},
		OutputIDs: []string{"up", "down", "left", "right"},
	}
}

func TestCortexActivate(t *testing.T) {
	cortex, err := NewCortex("agent-1", directGenome())
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	if cortex.ID() != "agent-1" {
		t.Fatalf("unexpected id %q", cortex.ID())
	}

	scores, err := cortex.Activate(context.Background(), []float64{3, -4, 5})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if want := []float64{4, -4, -3, 3}; !slices.Equal(scores, want) {
		t.Fatalf("expected scores %v, got %v", want, scores)
	}

	action, err := scape.SelectAction(scores)
	if err != nil {
		t.Fatalf("select action: %v", err)
	}
	if action != scape.ActionUp {
		t.Fatalf("expected up, got %v", action)
	}
}

func TestCortexRejectsWrongShape(t *testing.T) {
	genome := directGenome()
	genome.OutputIDs = genome.OutputIDs[:3]
	if _, err := NewCortex("narrow", genome); err == nil {
		t.Fatal("expected error for three outputs")
	}

	genome = directGenome()
	genome.InputIDs = genome.InputIDs[:2]
	if _, err := NewCortex("blind", genome); err == nil {
		t.Fatal("expected error for two inputs")
	}

	if _, err := NewCortex("", directGenome()); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestCortexHonoursCancelledContext(t *testing.T) {
	cortex, err := NewCortex("agent-1", directGenome())
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cortex.Activate(ctx, []float64{1, 1, 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// cancelOnPoll cancels the episode context while reporting not stopped, so
// the cancel lands between the tick's poll and the cortex activation.
type cancelOnPoll struct {
	cancel context.CancelFunc
}

func (o cancelOnPoll) Observe(scape.Frame) {}

func (o cancelOnPoll) Stopped() bool {
	o.cancel()
	return false
}

func TestCortexCancelledMidTickEndsAsExternalCancel(t *testing.T) {
	cortex, err := NewCortex("direct", directGenome())
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := scape.DefaultGoalChaseConfig()
	episode, err := scape.NewEpisode(cfg, scape.NewSeededGoalSpawner(cfg.Bounds(), 3), cancelOnPoll{cancel: cancel})
	if err != nil {
		t.Fatalf("new episode: %v", err)
	}
	result, err := episode.Run(ctx, cortex)
	if err != nil {
		t.Fatalf("cancel must not be a policy failure: %v", err)
	}
	if result.Termination != scape.TerminatedByExternalCancel || result.Ticks != 0 {
		t.Fatalf("expected external cancel before the first tick, got %+v", result)
	}
}

func TestCortexCompletesEpisode(t *testing.T) {
	goalChase, err := scape.NewGoalChaseScape(scape.DefaultGoalChaseConfig(), 11, nil)
	if err != nil {
		t.Fatalf("new scape: %v", err)
	}
	cortex, err := NewCortex("direct", directGenome())
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}

	result, err := goalChase.RunEpisode(context.Background(), cortex, 11)
	if err != nil {
		t.Fatalf("run episode: %v", err)
	}
	if result.Termination != scape.TerminatedByGoalThreshold || result.GoalsFound != 5 {
		t.Fatalf("expected goal threshold with 5 goals, got %+v", result)
	}
	if result.Fitness <= 105 {
		t.Fatalf("expected fitness above 105, got %f", result.Fitness)
	}
}

func TestGreedyMatchesDirectCortex(t *testing.T) {
	goalChase, err := scape.NewGoalChaseScape(scape.DefaultGoalChaseConfig(), 5, nil)
	if err != nil {
		t.Fatalf("new scape: %v", err)
	}
	cortex, err := NewCortex("direct", directGenome())
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}

	fromCortex, err := goalChase.RunEpisode(context.Background(), cortex, 5)
	if err != nil {
		t.Fatalf("cortex episode: %v", err)
	}
	fromGreedy, err := goalChase.RunEpisode(context.Background(), Greedy{}, 5)
	if err != nil {
		t.Fatalf("greedy episode: %v", err)
	}
	if fromCortex.Fitness != fromGreedy.Fitness || fromCortex.Ticks != fromGreedy.Ticks {
		t.Fatalf("cortex %+v and greedy %+v diverged", fromCortex, fromGreedy)
	}
	if (Greedy{}).ID() != "greedy" {
		t.Fatalf("unexpected greedy id %q", Greedy{}.ID())
	}
}

func TestGreedyRejectsWrongObservation(t *testing.T) {
	if _, err := (Greedy{}).Activate(context.Background(), []float64{1}); err == nil {
		t.Fatal("expected error for short observation")
	}
}
