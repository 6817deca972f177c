package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"goalchase/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeGenome(g model.Genome) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenome(data []byte) (model.Genome, error) {
	var genome model.Genome
	if err := json.Unmarshal(data, &genome); err != nil {
		return model.Genome{}, err
	}
	if err := checkVersion(genome.VersionedRecord); err != nil {
		return model.Genome{}, err
	}
	return genome, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGenerations(generations []model.GenerationRecord) ([]byte, error) {
	return json.Marshal(generations)
}

func DecodeGenerations(data []byte) ([]model.GenerationRecord, error) {
	var generations []model.GenerationRecord
	if err := json.Unmarshal(data, &generations); err != nil {
		return nil, err
	}
	return generations, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
