package genotype

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"goalchase/internal/model"
	"goalchase/internal/storage"
)

const BestGenomeFile = "best_genome.json"

// WriteGenomeFile stores a genome as indented JSON text.
func WriteGenomeFile(path string, genome model.Genome) error {
	if genome.SchemaVersion == 0 {
		genome.SchemaVersion = storage.CurrentSchemaVersion
	}
	if genome.CodecVersion == 0 {
		genome.CodecVersion = storage.CurrentCodecVersion
	}
	data, err := json.MarshalIndent(genome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode genome %s: %w", genome.ID, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func ReadGenomeFile(path string) (model.Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Genome{}, err
	}
	genome, err := storage.DecodeGenome(data)
	if err != nil {
		return model.Genome{}, fmt.Errorf("read genome %s: %w", path, err)
	}
	return genome, nil
}
