// Package embedding provides the Google Generative Language embedding adapter.
// It implements ports.EmbeddingService; the domain layer never sees the API
// shape, only vectors.
package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Laksh-devta/shl-recommender-go/internal/logging"
	"github.com/Laksh-devta/shl-recommender-go/internal/metrics"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleAdapter calls the embedContent endpoint of the Generative Language API.
type GoogleAdapter struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewGoogleAdapter creates an adapter for the given model, e.g.
// "models/embedding-001". baseURL is overridable for tests.
func NewGoogleAdapter(baseURL, model, apiKey string, timeout time.Duration) *GoogleAdapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "models/embedding-001"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleAdapter{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (a *GoogleAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := a.embed(ctx, text)
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	return vec, err
}

func (a *GoogleAdapter) embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedContentRequest{
		Model:   a.model,
		Content: content{Parts: []part{{Text: text}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:embedContent?key=%s", a.baseURL, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, body)
	}

	var embedResp embedContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(embedResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding API returned an empty vector")
	}

	logging.Debug().Int("dimensions", len(embedResp.Embedding.Values)).Msg("embedded query text")
	return embedResp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts, sequentially.
func (a *GoogleAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := a.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
