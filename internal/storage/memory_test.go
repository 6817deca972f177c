package storage

import (
	"context"
	"testing"

	"goalchase/internal/model"
)

func versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "r1"}); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestMemoryStoreRunsListedOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		{VersionedRecord: versioned(), ID: "late", CreatedAtUTC: "2024-02-01T00:00:00Z"},
		{VersionedRecord: versioned(), ID: "early", CreatedAtUTC: "2024-01-01T00:00:00Z"},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "early" || runs[1].ID != "late" {
		t.Fatalf("unexpected run order: %+v", runs)
	}

	run, ok, err := store.GetRun(ctx, "late")
	if err != nil || !ok || run.ID != "late" {
		t.Fatalf("get run: ok=%t err=%v run=%+v", ok, err, run)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreFitnessHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []float64{0.1, 0.2, 0.3}
	if err := store.SaveFitnessHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	input[0] = 99
	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted history")
	}
	if len(output) != 3 || output[0] != 0.1 {
		t.Fatalf("unexpected history: %v", output)
	}
}

func TestMemoryStoreGenerationsAndGenome(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	generations := []model.GenerationRecord{{Generation: 0, BestFitness: 3.5, BestID: "c1"}}
	if err := store.SaveGenerations(ctx, "run-1", generations); err != nil {
		t.Fatalf("save generations: %v", err)
	}
	got, ok, err := store.GetGenerations(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get generations: ok=%t err=%v", ok, err)
	}
	if len(got) != 1 || got[0].BestID != "c1" {
		t.Fatalf("unexpected generations: %+v", got)
	}

	genome := model.Genome{VersionedRecord: versioned(), ID: "g1", InputIDs: []string{"a"}}
	if err := store.SaveGenome(ctx, genome); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	loaded, ok, err := store.GetGenome(ctx, "g1")
	if err != nil || !ok || loaded.ID != "g1" {
		t.Fatalf("get genome: ok=%t err=%v genome=%+v", ok, err, loaded)
	}
}
