// Package catalog loads the product snapshot into an immutable in-memory store.
// The snapshot is a JSON array of product records read once at process start;
// after Load the store is never mutated and is safe for concurrent readers.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

// Store is the read-only id -> Product lookup the join step runs against.
type Store struct {
	products map[string]entities.Product
	ids      []string
}

// record is the on-disk schema. Every field except id is optional; defaults
// are resolved here, at load time, so the rest of the system sees typed
// values only.
type record struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        duration `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
}

// duration accepts a JSON number, a numeric string, or null, matching the
// mixed representations in the source snapshot.
type duration int

func (d *duration) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*d = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("duration %q is not a whole number of minutes", s)
	}
	if n < 0 {
		return fmt.Errorf("duration %d is negative", n)
	}
	*d = duration(n)
	return nil
}

// Load reads the snapshot at path and builds the store. A missing file,
// malformed JSON, a record without an id, a duplicate id or a bad duration
// all wrap entities.ErrCatalogLoad; the process should not come up without
// a usable catalog.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", entities.ErrCatalogLoad, path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", entities.ErrCatalogLoad, path, err)
	}

	products := make(map[string]entities.Product, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("%w: record %d has no id", entities.ErrCatalogLoad, i)
		}
		if _, exists := products[r.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q", entities.ErrCatalogLoad, r.ID)
		}
		testType := r.TestType
		if testType == nil {
			testType = []string{}
		}
		products[r.ID] = entities.Product{
			ID:              r.ID,
			URL:             r.URL,
			AdaptiveSupport: r.AdaptiveSupport,
			Description:     r.Description,
			Duration:        int(r.Duration),
			RemoteSupport:   r.RemoteSupport,
			TestType:        testType,
		}
	}

	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Store{products: products, ids: ids}, nil
}

// Get returns the product with the given id, if present.
func (s *Store) Get(id string) (entities.Product, bool) {
	p, ok := s.products[id]
	return p, ok
}

// Len reports the number of catalog entries.
func (s *Store) Len() int {
	return len(s.products)
}

// All returns every product in ascending id order.
func (s *Store) All() []entities.Product {
	out := make([]entities.Product, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.products[id]
	}
	return out
}
