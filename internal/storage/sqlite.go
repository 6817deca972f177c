//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"goalchase/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, run.ID, run.CreatedAtUTC, run.SchemaVersion, run.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs ORDER BY created_at_utc, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveGenerations(ctx context.Context, runID string, generations []model.GenerationRecord) error {
	payload, err := EncodeGenerations(generations)
	if err != nil {
		return err
	}
	return s.putBlob(ctx, "generations", runID, payload)
}

func (s *SQLiteStore) GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	payload, ok, err := s.getBlob(ctx, "generations", runID)
	if err != nil || !ok {
		return nil, ok, err
	}
	generations, err := DecodeGenerations(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode generations %s: %w", runID, err)
	}
	return generations, true, nil
}

func (s *SQLiteStore) SaveFitnessHistory(ctx context.Context, runID string, history []float64) error {
	payload, err := EncodeFitnessHistory(history)
	if err != nil {
		return err
	}
	return s.putBlob(ctx, "fitness_history", runID, payload)
}

func (s *SQLiteStore) GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	payload, ok, err := s.getBlob(ctx, "fitness_history", runID)
	if err != nil || !ok {
		return nil, ok, err
	}
	history, err := DecodeFitnessHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode fitness history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *SQLiteStore) SaveGenome(ctx context.Context, genome model.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGenome(genome)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genomes (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, genome.ID, genome.SchemaVersion, genome.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetGenome(ctx context.Context, id string) (model.Genome, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Genome{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM genomes WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Genome{}, false, nil
		}
		return model.Genome{}, false, err
	}

	genome, err := DecodeGenome(payload)
	if err != nil {
		return model.Genome{}, false, fmt.Errorf("decode genome %s: %w", id, err)
	}
	return genome, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// putBlob and getBlob serve the run-keyed tables; table is always a
// package constant.
func (s *SQLiteStore) putBlob(ctx context.Context, table, runID string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) getBlob(ctx context.Context, table, runID string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS fitness_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS genomes (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
