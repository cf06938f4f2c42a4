package vectordb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

// SQLiteIndex is a local, persistent vector index backed by SQLite. Brute
// force over all stored vectors; meant for offline development against the
// same interface the Pinecone gateway serves.
type SQLiteIndex struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the index database under dataPath.
func NewSQLiteIndex(dataPath string) (*SQLiteIndex, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// EnsureIndex creates the schema and pins the descriptor. An existing
// database created with a different dimension or metric is rejected, the
// same way a mismatched remote index would be.
func (s *SQLiteIndex) EnsureIndex(ctx context.Context, desc entities.IndexDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS vectors (
		id TEXT PRIMARY KEY,
		embedding BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS index_meta (
		name TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		metric TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: initializing schema: %v", entities.ErrIndexUnavailable, err)
	}

	var dimension int
	var metric string
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension, metric FROM index_meta WHERE name = ?", desc.Name,
	).Scan(&dimension, &metric)

	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO index_meta (name, dimension, metric) VALUES (?, ?, ?)",
			desc.Name, desc.Dimension, desc.Metric)
		if err != nil {
			return fmt.Errorf("%w: recording descriptor: %v", entities.ErrIndexUnavailable, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: reading descriptor: %v", entities.ErrIndexUnavailable, err)
	}

	if dimension != desc.Dimension || metric != desc.Metric {
		return fmt.Errorf("%w: index %q has dimension=%d metric=%s, want dimension=%d metric=%s",
			entities.ErrIndexUnavailable, desc.Name, dimension, metric, desc.Dimension, desc.Metric)
	}
	return nil
}

// Upsert stores or replaces vectors by id.
func (s *SQLiteIndex) Upsert(ctx context.Context, items []entities.IndexItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO vectors (id, embedding) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		blob, err := json.Marshal(item.Values)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, item.ID, blob); err != nil {
			return fmt.Errorf("inserting vector %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Query returns up to topK matches by descending cosine similarity.
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, topK int) ([]entities.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, embedding FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []entities.Match
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		var vec []float32
		if err := json.Unmarshal(blob, &vec); err != nil {
			continue // skip corrupted embeddings
		}

		matches = append(matches, entities.Match{
			ProductID: id,
			Score:     cosineSimilarity(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of stored vectors.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
