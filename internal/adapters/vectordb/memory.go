// Package vectordb provides vector index adapters implementing
// ports.VectorIndex: the Pinecone gateway, a SQLite-backed local index, and an
// in-memory index for tests and zero-setup development.
package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

// MemoryIndex is an in-process brute-force cosine index.
type MemoryIndex struct {
	mu      sync.RWMutex
	desc    entities.IndexDescriptor
	ready   bool
	vectors map[string][]float32
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string][]float32)}
}

// EnsureIndex records the descriptor on first call. Repeat calls are no-ops
// when the descriptor matches; a changed dimension or metric is the same
// fatal mismatch a remote index would report.
func (m *MemoryIndex) EnsureIndex(ctx context.Context, desc entities.IndexDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		if m.desc.Dimension != desc.Dimension || m.desc.Metric != desc.Metric {
			return fmt.Errorf("%w: index %q has dimension=%d metric=%s, want dimension=%d metric=%s",
				entities.ErrIndexUnavailable, m.desc.Name, m.desc.Dimension, m.desc.Metric, desc.Dimension, desc.Metric)
		}
		return nil
	}

	m.desc = desc
	m.ready = true
	return nil
}

// Upsert stores or replaces vectors by id.
func (m *MemoryIndex) Upsert(ctx context.Context, items []entities.IndexItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		vec := make([]float32, len(item.Values))
		copy(vec, item.Values)
		m.vectors[item.ID] = vec
	}
	return nil
}

// Query returns up to topK matches by descending cosine similarity.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, topK int) ([]entities.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]entities.Match, 0, len(m.vectors))
	for id, vec := range m.vectors {
		matches = append(matches, entities.Match{
			ProductID: id,
			Score:     cosineSimilarity(vector, vec),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ProductID < matches[j].ProductID // deterministic ties
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
