package usecases

import (
	"context"
	"fmt"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
	"github.com/Laksh-devta/shl-recommender-go/internal/domain/ports"
)

// CatalogSync publishes catalog embeddings into the vector index so queries
// have something to match against. Intended to run at startup or on demand;
// upserts are keyed by product id, so re-running is safe.
type CatalogSync struct {
	embedder  ports.EmbeddingService
	index     ports.VectorIndex
	catalog   ports.ProductCatalog
	batchSize int
}

// NewCatalogSync creates a CatalogSync with injected dependencies.
func NewCatalogSync(
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	catalog ports.ProductCatalog,
	batchSize int,
) *CatalogSync {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &CatalogSync{
		embedder:  embedder,
		index:     index,
		catalog:   catalog,
		batchSize: batchSize,
	}
}

// Sync embeds every catalog product and upserts the vectors batch by batch.
// Returns the number of products synced.
func (s *CatalogSync) Sync(ctx context.Context) (int, error) {
	products := s.catalog.All()

	for start := 0; start < len(products); start += s.batchSize {
		end := start + s.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.SearchText()
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return start, fmt.Errorf("%w: %v", entities.ErrEmbedding, err)
		}

		items := make([]entities.IndexItem, len(batch))
		for i, p := range batch {
			items[i] = entities.IndexItem{ID: p.ID, Values: embeddings[i]}
		}

		if err := s.index.Upsert(ctx, items); err != nil {
			return start, fmt.Errorf("%w: %v", entities.ErrIndexQuery, err)
		}
	}

	return len(products), nil
}
