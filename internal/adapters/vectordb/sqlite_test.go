package vectordb

import (
	"context"
	"errors"
	"testing"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

func newTestSQLiteIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndex_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := newTestSQLiteIndex(t)
	if err := idx.EnsureIndex(ctx, testDescriptor()); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	err := idx.Upsert(ctx, []entities.IndexItem{
		{ID: "P1", Values: []float32{1, 0, 0}},
		{ID: "P2", Values: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ProductID != "P1" {
		t.Errorf("P1 should rank first, got %s", matches[0].ProductID)
	}
}

func TestSQLiteIndex_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newTestSQLiteIndex(t)
	desc := testDescriptor()

	if err := idx.EnsureIndex(ctx, desc); err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	idx.Upsert(ctx, []entities.IndexItem{{ID: "P1", Values: []float32{1, 0, 0}}})

	if err := idx.EnsureIndex(ctx, desc); err != nil {
		t.Fatalf("second ensure should be a no-op: %v", err)
	}
	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Error("repeat ensure must not discard stored vectors")
	}
}

func TestSQLiteIndex_EnsureRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestSQLiteIndex(t)
	idx.EnsureIndex(ctx, testDescriptor())

	changed := testDescriptor()
	changed.Metric = "dotproduct"
	err := idx.EnsureIndex(ctx, changed)
	if !errors.Is(err, entities.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable on metric change, got %v", err)
	}
}

func TestSQLiteIndex_TopKCapsResults(t *testing.T) {
	ctx := context.Background()
	idx := newTestSQLiteIndex(t)
	idx.EnsureIndex(ctx, testDescriptor())
	idx.Upsert(ctx, []entities.IndexItem{
		{ID: "P1", Values: []float32{1, 0, 0}},
		{ID: "P2", Values: []float32{0.9, 0.1, 0}},
		{ID: "P3", Values: []float32{0.8, 0.2, 0}},
	})

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected topK to cap at 1, got %d", len(matches))
	}
}
