package storage

import (
	"errors"
	"testing"

	"goalchase/internal/model"
)

func TestRunCodecRejectsVersionMismatch(t *testing.T) {
	data, err := EncodeRun(model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "r1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestGenomeCodecRoundTrip(t *testing.T) {
	in := model.Genome{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "g1",
		Neurons:         []model.Neuron{{ID: "n1", Activation: "tanh", Bias: 0.25}},
	}
	data, err := EncodeGenome(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeGenome(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Neurons[0].Bias != 0.25 {
		t.Fatalf("unexpected genome: %+v", out)
	}
	if _, err := DecodeGenome([]byte(`{"id":"old"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}
