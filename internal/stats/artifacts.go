package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"goalchase/internal/genotype"
	"goalchase/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	runFile            = "run.json"
	fitnessHistoryFile = "fitness_history.json"
	generationsFile    = "generations.json"
	candidatesFile     = "candidates.parquet"
)

type RunArtifacts struct {
	Run              model.RunRecord
	Generations      []model.GenerationRecord
	BestByGeneration []float64
	BestGenome       *model.Genome
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	Scape            string  `json:"scape"`
	Generations      int     `json:"generations"`
	FinalBestFitness float64 `json:"final_best_fitness"`
}

// WriteRunArtifacts lays a finished run out under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), map[string]any{"best_by_generation": artifacts.BestByGeneration, "final_best_fitness": artifacts.Run.FinalBestFitness}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, generationsFile), artifacts.Generations); err != nil {
		return "", err
	}
	if err := ExportParquet(filepath.Join(runDir, candidatesFile), artifacts.Run.ID, artifacts.Generations); err != nil {
		return "", err
	}
	if artifacts.BestGenome != nil {
		if err := genotype.WriteGenomeFile(filepath.Join(runDir, genotype.BestGenomeFile), *artifacts.BestGenome); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

// ExportRunArtifacts copies a run directory to outDir/<run id>. The best
// genome is optional since a run whose candidates all failed has none.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{runFile, fitnessHistoryFile, generationsFile, candidatesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	bestPath := filepath.Join(src, genotype.BestGenomeFile)
	if _, err := os.Stat(bestPath); err == nil {
		if err := copyFile(bestPath, filepath.Join(dst, genotype.BestGenomeFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, runFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
