package entities

import "errors"

// Sentinel errors classify every failure the pipeline and its adapters can
// produce. Callers match with errors.Is; adapters and usecases wrap these with
// fmt.Errorf("%w: ...") so the cause text travels with the classification.
var (
	// ErrInvalidQuery rejects empty or whitespace-only query text.
	ErrInvalidQuery = errors.New("query is empty")

	// ErrEmbedding marks a failed call to the embedding provider.
	ErrEmbedding = errors.New("embedding query failed")

	// ErrIndexQuery marks a failed vector index call. An empty result is a
	// successful query; this error means the query itself did not complete.
	ErrIndexQuery = errors.New("vector index query failed")

	// ErrIndexUnavailable marks a failed or timed-out index bootstrap.
	// Fatal at startup: the process must not become ready without an index.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrCatalogLoad marks a missing or malformed catalog snapshot.
	// Fatal at startup.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrNoRecommendations is the distinguished empty outcome: the query
	// succeeded but nothing survived the threshold filter and catalog join.
	ErrNoRecommendations = errors.New("no recommendations above threshold")
)
