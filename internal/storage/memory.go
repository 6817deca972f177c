package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"goalchase/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	generations map[string][]model.GenerationRecord
	history     map[string][]float64
	genomes     map[string]model.Genome
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string][]model.GenerationRecord)
	s.history = make(map[string][]float64)
	s.genomes = make(map[string]model.Genome)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns runs oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sortRuns(out)
	return out, nil
}

func (s *MemoryStore) SaveGenerations(_ context.Context, runID string, generations []model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.generations[runID] = append([]model.GenerationRecord(nil), generations...)
	return nil
}

func (s *MemoryStore) GetGenerations(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	generations, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationRecord(nil), generations...), true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.genomes[genome.ID] = genome
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[id]
	return genome, ok, nil
}

func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
		}
		return runs[i].ID < runs[j].ID
	})
}
