package nn

import (
	"math"
	"testing"

	"goalchase/internal/model"
)

func TestNetworkActivateSimpleFeedForward(t *testing.T) {
	genome := model.Genome{
		ID: "ff",
		Neurons: []model.Neuron{
			{ID: "i1", Activation: "identity"},
			{ID: "i2", Activation: "identity"},
			{ID: "o", Activation: "identity", Bias: 0.5},
		},
		Synapses: []model.Synapse{
			{From: "i1", To: "o", Weight: 2, Enabled: true},
			{From: "i2", To: "o", Weight: -1, Enabled: true},
			{From: "i2", To: "o", Weight: 100, Enabled: false},
		},
		InputIDs:  []string{"i1", "i2"},
		OutputIDs: []string{"o"},
	}

	network, err := Compile(genome)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := network.Activate([]float64{1.0, 0.25})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if len(out) != 1 || math.Abs(out[0]-1.0) > 1e-9 {
		t.Fatalf("unexpected output: %v", out)
	}

	// Repeated passes must not accumulate state.
	again, err := network.Activate([]float64{1.0, 0.25})
	if err != nil {
		t.Fatalf("activate again: %v", err)
	}
	if again[0] != out[0] {
		t.Fatalf("forward pass is not stateless: %f vs %f", again[0], out[0])
	}
}

func TestNetworkActivateHiddenLayer(t *testing.T) {
	genome := model.Genome{
		ID: "xor",
		Neurons: []model.Neuron{
			{ID: "i1", Activation: "identity"},
			{ID: "i2", Activation: "identity"},
			{ID: "h1", Activation: "sigmoid", Bias: -10},
			{ID: "h2", Activation: "sigmoid", Bias: 30},
			{ID: "o", Activation: "sigmoid", Bias: -30},
		},
		Synapses: []model.Synapse{
			{From: "i1", To: "h1", Weight: 20, Enabled: true},
			{From: "i2", To: "h1", Weight: 20, Enabled: true},
			{From: "i1", To: "h2", Weight: -20, Enabled: true},
			{From: "i2", To: "h2", Weight: -20, Enabled: true},
			{From: "h1", To: "o", Weight: 20, Enabled: true},
			{From: "h2", To: "o", Weight: 20, Enabled: true},
		},
		InputIDs:  []string{"i1", "i2"},
		OutputIDs: []string{"o"},
	}
	network, err := Compile(genome)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cases := []struct {
		in   []float64
		want float64
	}{
		{in: []float64{0, 0}, want: 0},
		{in: []float64{0, 1}, want: 1},
		{in: []float64{1, 0}, want: 1},
		{in: []float64{1, 1}, want: 0},
	}
	for _, c := range cases {
		out, err := network.Activate(c.in)
		if err != nil {
			t.Fatalf("activate %v: %v", c.in, err)
		}
		if math.Abs(out[0]-c.want) > 0.01 {
			t.Fatalf("xor%v: got=%f want=%f", c.in, out[0], c.want)
		}
	}
}

func TestCompileRejectsInvalidGenomes(t *testing.T) {
	base := func() model.Genome {
		return model.Genome{
			ID: "g",
			Neurons: []model.Neuron{
				{ID: "i", Activation: "identity"},
				{ID: "o", Activation: "tanh"},
			},
			Synapses:  []model.Synapse{{From: "i", To: "o", Weight: 1, Enabled: true}},
			InputIDs:  []string{"i"},
			OutputIDs: []string{"o"},
		}
	}
	cases := map[string]func(*model.Genome){
		"unknown activation": func(g *model.Genome) { g.Neurons[1].Activation = "unknown" },
		"duplicate neuron":   func(g *model.Genome) { g.Neurons[1].ID = "i" },
		"backward synapse":   func(g *model.Genome) { g.Synapses[0] = model.Synapse{From: "o", To: "i", Enabled: true} },
		"dangling synapse":   func(g *model.Genome) { g.Synapses[0].From = "ghost" },
		"missing inputs":     func(g *model.Genome) { g.InputIDs = nil },
		"missing outputs":    func(g *model.Genome) { g.OutputIDs = nil },
		"unknown output":     func(g *model.Genome) { g.OutputIDs = []string{"x"} },
	}
	for name, mutate := range cases {
		genome := base()
		mutate(&genome)
		if _, err := Compile(genome); err == nil {
			t.Fatalf("%s: expected compile error", name)
		}
	}
}

func TestNetworkActivateInputMismatch(t *testing.T) {
	network, err := Compile(model.Genome{
		ID:        "g",
		Neurons:   []model.Neuron{{ID: "i", Activation: "identity"}},
		InputIDs:  []string{"i"},
		OutputIDs: []string{"i"},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := network.Activate([]float64{1, 2}); err == nil {
		t.Fatal("expected input size mismatch")
	}
}
