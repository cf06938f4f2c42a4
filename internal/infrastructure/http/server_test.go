package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
)

// fakeRecommender implements Recommender for testing
type fakeRecommender struct {
	recs []entities.Recommendation
	err  error
	got  string
}

func (f *fakeRecommender) Recommend(ctx context.Context, query string) ([]entities.Recommendation, error) {
	f.got = query
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleRecommend_Success(t *testing.T) {
	fake := &fakeRecommender{recs: []entities.Recommendation{
		{URL: "https://example.com/p1", AdaptiveSupport: "Yes", Description: "Numerical", Duration: 30, RemoteSupport: "Yes", TestType: []string{"Ability"}},
	}}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/recommend", `{"query": "java developer assessment"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if fake.got != "java developer assessment" {
		t.Errorf("query not passed through, got %q", fake.got)
	}

	var resp struct {
		RecommendedAssessments []entities.Recommendation `json:"recommended_assessments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.RecommendedAssessments) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(resp.RecommendedAssessments))
	}
}

func TestHandleRecommend_ResponseFieldOrder(t *testing.T) {
	fake := &fakeRecommender{recs: []entities.Recommendation{
		{URL: "u", AdaptiveSupport: "No", Description: "d", Duration: 15, RemoteSupport: "No", TestType: []string{}},
	}}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/recommend", `{"query": "q"}`)
	body := rec.Body.String()

	keys := []string{`"url"`, `"adaptive_support"`, `"description"`, `"duration"`, `"remote_support"`, `"test_type"`}
	last := -1
	for _, key := range keys {
		idx := strings.Index(body, key)
		if idx < 0 || idx < last {
			t.Fatalf("field order violated in %s", body)
		}
		last = idx
	}
}

func TestHandleRecommend_MissingQuery(t *testing.T) {
	for _, body := range []string{`{}`, `{"query": ""}`, `{"query": "   "}`} {
		fake := &fakeRecommender{err: entities.ErrInvalidQuery}
		srv := NewServer(fake, ":0", 0)

		rec := postJSON(t, srv.Handler(), "/recommend", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Query missing") {
			t.Errorf("body %s: expected Query missing error, got %s", body, rec.Body)
		}
	}
}

func TestHandleRecommend_MalformedBody(t *testing.T) {
	srv := NewServer(&fakeRecommender{}, ":0", 0)
	rec := postJSON(t, srv.Handler(), "/recommend", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestHandleRecommend_NoResults(t *testing.T) {
	fake := &fakeRecommender{err: entities.ErrNoRecommendations}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/recommend", `{"query": "obscure need"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no results must map to 404, got %d", rec.Code)
	}
}

func TestHandleRecommend_EmbeddingFailure(t *testing.T) {
	fake := &fakeRecommender{err: errors.Join(entities.ErrEmbedding, errors.New("quota"))}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/recommend", `{"query": "q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "quota") {
		t.Error("embedding failures should map to a generic message")
	}
}

func TestHandleRecommend_UnclassifiedIncludesCause(t *testing.T) {
	fake := &fakeRecommender{err: errors.New("something odd")}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/recommend", `{"query": "q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "something odd") {
		t.Errorf("unclassified errors should include the cause, got %s", rec.Body)
	}
}

func TestHandleRecommend_OriginalRouteAlias(t *testing.T) {
	fake := &fakeRecommender{recs: []entities.Recommendation{{TestType: []string{}}}}
	srv := NewServer(fake, ":0", 0)

	rec := postJSON(t, srv.Handler(), "/query", `{"query": "q"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected /query alias to work, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(&fakeRecommender{}, ":0", 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body)
	}
}

func TestRequestID_Echoed(t *testing.T) {
	srv := NewServer(&fakeRecommender{}, ":0", 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("upstream request id should be echoed, got %q", got)
	}
}

func TestRequestID_Generated(t *testing.T) {
	srv := NewServer(&fakeRecommender{}, ":0", 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("a request id should be generated when none is supplied")
	}
}
