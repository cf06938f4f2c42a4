// Package entities contains core business entities.
// These are pure domain objects with no knowledge of Pinecone, Google AI or HTTP.
package entities

// Product is a single catalog entry. The catalog is loaded once at startup and
// never mutated afterwards; ID is the identity and the join key for vector matches.
type Product struct {
	ID              string
	URL             string
	AdaptiveSupport string
	Description     string
	Duration        int // minutes, 0 when the source omits it
	RemoteSupport   string
	TestType        []string
}

// SearchText is the text a product is embedded under. Kept deterministic so
// re-syncing the index produces the same vectors for unchanged products.
func (p Product) SearchText() string {
	text := p.Description
	for _, t := range p.TestType {
		text += " " + t
	}
	return text
}

// Match is one ranked candidate returned by the vector index for a query.
// Score is cosine similarity in [-1, 1]; an absent score decodes to 0 and is
// therefore excluded by any non-negative threshold.
type Match struct {
	ProductID string
	Score     float64
}

// Recommendation is the response projection of a joined Product.
// Field order is part of the response contract: url, adaptive_support,
// description, duration, remote_support, test_type.
type Recommendation struct {
	URL             string   `json:"url"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
}

// IndexDescriptor identifies the remote similarity index and the shape vectors
// must have. Dimension must equal the embedding model's output dimension;
// a mismatch is a fatal configuration error, not a runtime condition.
type IndexDescriptor struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// IndexItem is a vector plus its catalog identity, upserted during catalog sync.
type IndexItem struct {
	ID     string
	Values []float32
}
