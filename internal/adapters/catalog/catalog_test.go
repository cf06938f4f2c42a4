package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}
	return path
}

func TestLoad_BuildsLookup(t *testing.T) {
	path := writeSnapshot(t, `[
		{"id": "P1", "url": "https://example.com/p1", "adaptive_support": "Yes",
		 "description": "Numerical reasoning", "duration": 30, "remote_support": "Yes",
		 "test_type": ["Ability"]},
		{"id": "P2", "description": "Verbal reasoning"}
	]`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", store.Len())
	}

	p1, ok := store.Get("P1")
	if !ok {
		t.Fatal("P1 not found")
	}
	if p1.Duration != 30 {
		t.Errorf("expected duration 30, got %d", p1.Duration)
	}
	if len(p1.TestType) != 1 || p1.TestType[0] != "Ability" {
		t.Errorf("unexpected test types: %v", p1.TestType)
	}
}

func TestLoad_CoercesStringDuration(t *testing.T) {
	path := writeSnapshot(t, `[{"id": "P1", "duration": "45"}]`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	p, _ := store.Get("P1")
	if p.Duration != 45 {
		t.Errorf("expected duration 45, got %d", p.Duration)
	}
}

func TestLoad_DefaultsForAbsentFields(t *testing.T) {
	path := writeSnapshot(t, `[{"id": "P1"}]`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	p, _ := store.Get("P1")
	if p.Duration != 0 {
		t.Errorf("absent duration should default to 0, got %d", p.Duration)
	}
	if p.TestType == nil || len(p.TestType) != 0 {
		t.Errorf("absent test_type should default to an empty slice, got %v", p.TestType)
	}
	if p.URL != "" || p.AdaptiveSupport != "" {
		t.Error("absent string fields should default to empty strings")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, entities.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeSnapshot(t, `{"not": "an array"`)
	_, err := Load(path)
	if !errors.Is(err, entities.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestLoad_RecordWithoutID(t *testing.T) {
	path := writeSnapshot(t, `[{"description": "orphan"}]`)
	_, err := Load(path)
	if !errors.Is(err, entities.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestLoad_DuplicateID(t *testing.T) {
	path := writeSnapshot(t, `[{"id": "P1"}, {"id": "P1"}]`)
	_, err := Load(path)
	if !errors.Is(err, entities.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestLoad_NegativeDuration(t *testing.T) {
	path := writeSnapshot(t, `[{"id": "P1", "duration": -5}]`)
	_, err := Load(path)
	if !errors.Is(err, entities.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestAll_StableOrder(t *testing.T) {
	path := writeSnapshot(t, `[{"id": "P3"}, {"id": "P1"}, {"id": "P2"}]`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	all := store.All()
	if all[0].ID != "P1" || all[1].ID != "P2" || all[2].ID != "P3" {
		t.Errorf("expected ascending id order, got %v", all)
	}
}
