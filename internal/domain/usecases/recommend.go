// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only - no
// framework code and no external dependencies.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
	"github.com/Laksh-devta/shl-recommender-go/internal/domain/ports"
)

// Default pipeline bounds, used when the caller passes non-positive values.
const (
	DefaultTopK      = 10
	DefaultThreshold = 0.5
)

// Recommender turns a free-text query into an ordered list of catalog
// recommendations: embed, search, threshold filter, catalog join, project.
// Stateless per request; safe for concurrent use.
type Recommender struct {
	embedder  ports.EmbeddingService
	index     ports.VectorIndex
	catalog   ports.ProductCatalog
	threshold float64
	topK      int
}

// NewRecommender creates a Recommender with injected dependencies.
func NewRecommender(
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	catalog ports.ProductCatalog,
	threshold float64,
	topK int,
) *Recommender {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Recommender{
		embedder:  embedder,
		index:     index,
		catalog:   catalog,
		threshold: threshold,
		topK:      topK,
	}
}

// Recommend runs the full pipeline for one query.
//
// The topK cap is applied by the vector search, before filtering: filtering can
// only shrink the candidate set. Matches below the threshold are dropped, as
// are matches whose id is not in the catalog - the catalog is the source of
// truth for what is recommendable. Relative order of survivors is the index's
// descending-score order; nothing here re-sorts.
//
// Hard failures (embed, search) are returned as errors, never downgraded to an
// empty result. An empty result after filter+join is the distinguished
// entities.ErrNoRecommendations.
func (r *Recommender) Recommend(ctx context.Context, query string) ([]entities.Recommendation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, entities.ErrInvalidQuery
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrEmbedding, err)
	}

	matches, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrIndexQuery, err)
	}

	recs := make([]entities.Recommendation, 0, len(matches))
	for _, m := range matches {
		if m.Score < r.threshold {
			continue
		}
		product, ok := r.catalog.Get(m.ProductID)
		if !ok {
			// Dangling index entry; tolerated.
			continue
		}
		recs = append(recs, project(product))
	}

	if len(recs) == 0 {
		return nil, entities.ErrNoRecommendations
	}
	return recs, nil
}

// project builds the response shape for one joined product. Optional fields
// resolve to empty string / empty slice, never null.
func project(p entities.Product) entities.Recommendation {
	testType := p.TestType
	if testType == nil {
		testType = []string{}
	}
	return entities.Recommendation{
		URL:             p.URL,
		AdaptiveSupport: p.AdaptiveSupport,
		Description:     p.Description,
		Duration:        p.Duration,
		RemoteSupport:   p.RemoteSupport,
		TestType:        testType,
	}
}
