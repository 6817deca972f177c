package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"goalchase/internal/model"
)

// CandidateRow is one evaluated candidate, flattened for columnar analysis.
type CandidateRow struct {
	RunID       string  `parquet:"run_id,dict"`
	Generation  int32   `parquet:"generation"`
	CandidateID string  `parquet:"candidate_id"`
	Fitness     float64 `parquet:"fitness"`
	GoalsFound  int32   `parquet:"goals_found"`
	Ticks       int32   `parquet:"ticks"`
	Termination string  `parquet:"termination,dict"`
	Error       string  `parquet:"error"`
}

func CandidateRows(runID string, generations []model.GenerationRecord) []CandidateRow {
	var rows []CandidateRow
	for _, gen := range generations {
		for _, c := range gen.Candidates {
			rows = append(rows, CandidateRow{
				RunID:       runID,
				Generation:  int32(gen.Generation),
				CandidateID: c.CandidateID,
				Fitness:     c.Fitness,
				GoalsFound:  int32(c.GoalsFound),
				Ticks:       int32(c.Ticks),
				Termination: c.Termination,
				Error:       c.Error,
			})
		}
	}
	return rows
}

// ExportParquet writes every candidate of every generation to path.
func ExportParquet(path, runID string, generations []model.GenerationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, CandidateRows(runID, generations),
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "goalchase_candidate_v1"),
	); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

func ReadParquet(path string) ([]CandidateRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[CandidateRow](pf)
	defer reader.Close()

	rows := make([]CandidateRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rows[:n], nil
}
