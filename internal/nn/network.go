package nn

import (
	"fmt"

	"goalchase/internal/model"
)

type unit struct {
	id       string
	bias     float64
	fn       ActivationFunc
	incoming []link
}

type link struct {
	from   int
	weight float64
}

// Network is a genome compiled for repeated forward passes. Activate is not
// safe for concurrent use; build one Network per episode worker.
type Network struct {
	units   []unit
	index   map[string]int
	inputs  []int
	outputs []int
	values  []float64
}

func Compile(genome model.Genome) (*Network, error) {
	if len(genome.InputIDs) == 0 {
		return nil, fmt.Errorf("genome %s: input ids are required", genome.ID)
	}
	if len(genome.OutputIDs) == 0 {
		return nil, fmt.Errorf("genome %s: output ids are required", genome.ID)
	}

	n := &Network{
		units: make([]unit, len(genome.Neurons)),
		index: make(map[string]int, len(genome.Neurons)),
	}
	for i, neuron := range genome.Neurons {
		if _, dup := n.index[neuron.ID]; dup {
			return nil, fmt.Errorf("genome %s: duplicate neuron %s", genome.ID, neuron.ID)
		}
		fn, err := GetActivation(neuron.Activation)
		if err != nil {
			return nil, fmt.Errorf("neuron %s: %w", neuron.ID, err)
		}
		n.index[neuron.ID] = i
		n.units[i] = unit{id: neuron.ID, bias: neuron.Bias, fn: fn}
	}

	for _, synapse := range genome.Synapses {
		if !synapse.Enabled {
			continue
		}
		from, ok := n.index[synapse.From]
		if !ok {
			return nil, fmt.Errorf("synapse %s->%s: unknown source", synapse.From, synapse.To)
		}
		to, ok := n.index[synapse.To]
		if !ok {
			return nil, fmt.Errorf("synapse %s->%s: unknown target", synapse.From, synapse.To)
		}
		if from >= to {
			return nil, fmt.Errorf("synapse %s->%s: not feedforward", synapse.From, synapse.To)
		}
		n.units[to].incoming = append(n.units[to].incoming, link{from: from, weight: synapse.Weight})
	}

	var err error
	if n.inputs, err = n.resolve(genome.InputIDs); err != nil {
		return nil, err
	}
	if n.outputs, err = n.resolve(genome.OutputIDs); err != nil {
		return nil, err
	}
	n.values = make([]float64, len(n.units))
	return n, nil
}

func (n *Network) resolve(ids []string) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := n.index[id]
		if !ok {
			return nil, fmt.Errorf("neuron not found: %s", id)
		}
		out[i] = idx
	}
	return out, nil
}

func (n *Network) InputSize() int {
	return len(n.inputs)
}

func (n *Network) OutputSize() int {
	return len(n.outputs)
}

// Activate runs one forward pass. Input neurons take their value verbatim;
// every other neuron applies its activation to bias plus weighted inputs.
func (n *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputs) {
		return nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(inputs), len(n.inputs))
	}

	fixed := make(map[int]bool, len(n.inputs))
	for i, idx := range n.inputs {
		n.values[idx] = inputs[i]
		fixed[idx] = true
	}
	for i := range n.units {
		if fixed[i] {
			continue
		}
		u := n.units[i]
		total := u.bias
		for _, in := range u.incoming {
			total += n.values[in.from] * in.weight
		}
		n.values[i] = u.fn(total)
	}

	out := make([]float64, len(n.outputs))
	for i, idx := range n.outputs {
		out[i] = n.values[idx]
	}
	return out, nil
}
