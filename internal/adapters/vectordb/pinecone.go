package vectordb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
	"github.com/Laksh-devta/shl-recommender-go/internal/logging"
	"github.com/Laksh-devta/shl-recommender-go/internal/metrics"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	pineconeAPIVer    = "2025-01"
)

// PineconeConfig configures the Pinecone gateway.
type PineconeConfig struct {
	APIKey string

	// ControlURL overrides the control plane endpoint, for tests.
	ControlURL string

	// PollInterval and MaxPollAttempts bound the bootstrap readiness loop.
	PollInterval    time.Duration
	MaxPollAttempts int

	// Timeout bounds each individual HTTP call.
	Timeout time.Duration
}

// PineconeIndex is the gateway to a Pinecone serverless index. Bootstrap goes
// through the control plane; queries and upserts go to the index host returned
// by describe, behind a circuit breaker so a dead index fails fast instead of
// tying up request handlers.
type PineconeIndex struct {
	apiKey          string
	controlURL      string
	dataURL         string
	client          *http.Client
	breaker         *gobreaker.CircuitBreaker[[]byte]
	pollInterval    time.Duration
	maxPollAttempts int
}

// NewPineconeIndex creates the gateway. EnsureIndex must succeed before Query
// or Upsert are used, since the data plane host comes from the control plane.
func NewPineconeIndex(cfg PineconeConfig) *PineconeIndex {
	if cfg.ControlURL == "" {
		cfg.ControlURL = defaultControlURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	breakerName := "pinecone-data"
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*5 >= counts.Requests*3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &PineconeIndex{
		apiKey:          cfg.APIKey,
		controlURL:      strings.TrimRight(cfg.ControlURL, "/"),
		client:          &http.Client{Timeout: cfg.Timeout},
		breaker:         breaker,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// indexDescription is the control plane's view of an index.
type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// EnsureIndex makes sure the described index exists and is ready.
//
// Idempotent: an existing index is left alone, but its dimension and metric
// are verified against the descriptor - trusting a mismatched index would
// only defer the failure to the first query. A missing index is created and
// polled at a fixed interval until ready, bounded by MaxPollAttempts; budget
// exhaustion wraps entities.ErrIndexUnavailable.
func (p *PineconeIndex) EnsureIndex(ctx context.Context, desc entities.IndexDescriptor) error {
	existing, found, err := p.describeIndex(ctx, desc.Name)
	if err != nil {
		return fmt.Errorf("%w: describing index %q: %v", entities.ErrIndexUnavailable, desc.Name, err)
	}

	if found {
		if existing.Dimension != desc.Dimension || existing.Metric != desc.Metric {
			return fmt.Errorf("%w: index %q has dimension=%d metric=%s, want dimension=%d metric=%s",
				entities.ErrIndexUnavailable, desc.Name, existing.Dimension, existing.Metric, desc.Dimension, desc.Metric)
		}
		if existing.Status.Ready {
			p.dataURL = dataPlaneURL(existing.Host)
			return nil
		}
	} else {
		logging.Info().Str("index", desc.Name).Int("dimension", desc.Dimension).Str("metric", desc.Metric).Msg("creating vector index")
		if err := p.createIndex(ctx, desc); err != nil {
			return fmt.Errorf("%w: creating index %q: %v", entities.ErrIndexUnavailable, desc.Name, err)
		}
	}

	return p.waitUntilReady(ctx, desc.Name)
}

func (p *PineconeIndex) waitUntilReady(ctx context.Context, name string) error {
	for attempt := 1; attempt <= p.maxPollAttempts; attempt++ {
		desc, found, err := p.describeIndex(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: polling index %q: %v", entities.ErrIndexUnavailable, name, err)
		}
		if found && desc.Status.Ready {
			p.dataURL = dataPlaneURL(desc.Host)
			return nil
		}

		logging.Debug().Str("index", name).Int("attempt", attempt).Msg("index not ready yet")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for index %q: %v", entities.ErrIndexUnavailable, name, ctx.Err())
		case <-time.After(p.pollInterval):
		}
	}
	return fmt.Errorf("%w: index %q not ready after %d attempts", entities.ErrIndexUnavailable, name, p.maxPollAttempts)
}

func (p *PineconeIndex) describeIndex(ctx context.Context, name string) (indexDescription, bool, error) {
	var desc indexDescription

	body, status, err := p.do(ctx, http.MethodGet, p.controlURL+"/indexes/"+name, nil)
	if err != nil {
		return desc, false, err
	}
	if status == http.StatusNotFound {
		return desc, false, nil
	}
	if status != http.StatusOK {
		return desc, false, fmt.Errorf("control plane returned status %d: %s", status, body)
	}
	if err := json.Unmarshal(body, &desc); err != nil {
		return desc, false, fmt.Errorf("decoding index description: %w", err)
	}
	return desc, true, nil
}

func (p *PineconeIndex) createIndex(ctx context.Context, desc entities.IndexDescriptor) error {
	req := createIndexRequest{
		Name:      desc.Name,
		Dimension: desc.Dimension,
		Metric:    desc.Metric,
		Spec:      indexSpec{Serverless: serverlessSpec{Cloud: desc.Cloud, Region: desc.Region}},
	}
	body, status, err := p.do(ctx, http.MethodPost, p.controlURL+"/indexes", req)
	if err != nil {
		return err
	}
	// 409 means another replica created it first; the poll loop settles it.
	if status != http.StatusCreated && status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("control plane returned status %d: %s", status, body)
	}
	return nil
}

type queryRequest struct {
	Vector        []float32 `json:"vector"`
	TopK          int       `json:"topK"`
	IncludeValues bool      `json:"includeValues"`
}

type queryResponse struct {
	Matches []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"matches"`
}

// Query returns up to topK raw candidates, descending score. Transport and
// service failures surface as errors; an empty match list is a successful
// query, not a failure.
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]entities.Match, error) {
	start := time.Now()
	matches, err := p.query(ctx, vector, topK)
	metrics.ObserveIndexCall("query", time.Since(start), err)
	return matches, err
}

func (p *PineconeIndex) query(ctx context.Context, vector []float32, topK int) ([]entities.Match, error) {
	if p.dataURL == "" {
		return nil, fmt.Errorf("index not bootstrapped")
	}

	body, err := p.breaker.Execute(func() ([]byte, error) {
		body, status, err := p.do(ctx, http.MethodPost, p.dataURL+"/query", queryRequest{
			Vector:        vector,
			TopK:          topK,
			IncludeValues: false,
		})
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("query returned status %d: %s", status, body)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	matches := make([]entities.Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = entities.Match{ProductID: m.ID, Score: m.Score}
	}
	return matches, nil
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type upsertVector struct {
	ID     string    `json:"id"`
	Values []float32 `json:"values"`
}

// Upsert writes vectors into the index.
func (p *PineconeIndex) Upsert(ctx context.Context, items []entities.IndexItem) error {
	start := time.Now()
	err := p.upsert(ctx, items)
	metrics.ObserveIndexCall("upsert", time.Since(start), err)
	return err
}

func (p *PineconeIndex) upsert(ctx context.Context, items []entities.IndexItem) error {
	if p.dataURL == "" {
		return fmt.Errorf("index not bootstrapped")
	}

	req := upsertRequest{Vectors: make([]upsertVector, len(items))}
	for i, item := range items {
		req.Vectors[i] = upsertVector{ID: item.ID, Values: item.Values}
	}

	_, err := p.breaker.Execute(func() ([]byte, error) {
		body, status, err := p.do(ctx, http.MethodPost, p.dataURL+"/vectors/upsert", req)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("upsert returned status %d: %s", status, body)
		}
		return body, nil
	})
	return err
}

// do issues one authenticated call and returns the response body and status.
func (p *PineconeIndex) do(ctx context.Context, method, url string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling Pinecone: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// dataPlaneURL turns the host from describe into a callable base URL.
func dataPlaneURL(host string) string {
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + host
}
