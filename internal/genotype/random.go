package genotype

import (
	"fmt"

	"golang.org/x/exp/rand"

	"goalchase/internal/model"
	"goalchase/internal/storage"
)

const (
	DefaultHidden     = 6
	DefaultActivation = "tanh"
)

var (
	inputIDs  = []string{"in_dx", "in_dy", "in_dist"}
	outputIDs = []string{"out_up", "out_down", "out_left", "out_right"}
)

// RandomGenome builds a dense observation->hidden->action genome. Weights and
// biases are uniform in [-1, 1). With hidden == 0 the inputs feed the outputs
// directly.
func RandomGenome(rng *rand.Rand, id string, hidden int, activation string) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, fmt.Errorf("rng is required")
	}
	if id == "" {
		return model.Genome{}, fmt.Errorf("genome id is required")
	}
	if hidden < 0 {
		return model.Genome{}, fmt.Errorf("hidden must be >= 0, got %d", hidden)
	}
	if activation == "" {
		activation = DefaultActivation
	}

	hiddenIDs := make([]string, hidden)
	for i := range hiddenIDs {
		hiddenIDs[i] = fmt.Sprintf("h%d", i)
	}

	genome := model.Genome{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		ID:              id,
		InputIDs:        append([]string(nil), inputIDs...),
		OutputIDs:       append([]string(nil), outputIDs...),
	}
	for _, nid := range inputIDs {
		genome.Neurons = append(genome.Neurons, model.Neuron{ID: nid, Activation: "identity"})
	}
	for _, nid := range hiddenIDs {
		genome.Neurons = append(genome.Neurons, model.Neuron{ID: nid, Activation: activation, Bias: centered(rng)})
	}
	for _, nid := range outputIDs {
		genome.Neurons = append(genome.Neurons, model.Neuron{ID: nid, Activation: activation, Bias: centered(rng)})
	}

	connect := func(from, to []string) {
		for _, f := range from {
			for _, t := range to {
				genome.Synapses = append(genome.Synapses, model.Synapse{From: f, To: t, Weight: centered(rng), Enabled: true})
			}
		}
	}
	if hidden == 0 {
		connect(inputIDs, outputIDs)
	} else {
		connect(inputIDs, hiddenIDs)
		connect(hiddenIDs, outputIDs)
	}
	return genome, nil
}

func centered(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}
