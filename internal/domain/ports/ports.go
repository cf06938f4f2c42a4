// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, never on concrete adapters, so the
// pipeline can be exercised with fakes for the embedder and the vector index.
package ports

import (
	"context"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

// EmbeddingService maps text to a fixed-dimension vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the gateway to the remote nearest-neighbor service.
type VectorIndex interface {
	// EnsureIndex creates the index described by desc if it does not exist and
	// blocks until it is ready, bounded by the adapter's retry budget.
	// Idempotent: an existing, compatible index makes this a no-op.
	EnsureIndex(ctx context.Context, desc entities.IndexDescriptor) error

	// Query returns up to topK candidates ordered by descending score.
	// It does not filter or interpret scores.
	Query(ctx context.Context, vector []float32, topK int) ([]entities.Match, error)

	// Upsert writes catalog vectors into the index.
	Upsert(ctx context.Context, items []entities.IndexItem) error
}

// ProductCatalog is the read-only lookup the join step runs against.
type ProductCatalog interface {
	// Get returns the product with the given id, if present.
	Get(id string) (entities.Product, bool)

	// Len reports the number of catalog entries.
	Len() int

	// All returns every product, in stable id order.
	All() []entities.Product
}
