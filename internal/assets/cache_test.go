package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/cache"
)

func originStub(hits *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/styles.css":
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte("body{}"))
		case "/api-ish":
			w.Write([]byte("dynamic"))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestWorker_CacheFirstAfterFirstFetch(t *testing.T) {
	var hits atomic.Int64
	store := cache.New("", zerolog.Nop())
	defer store.Close()

	w := NewWorker(originStub(&hits), store, zerolog.Nop())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/styles.css", nil)
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != "body{}" {
			t.Fatalf("wrong body: %q", rec.Body.String())
		}
		if got := rec.Header().Get("Content-Type"); got != "text/css" {
			t.Fatalf("content type must survive the cache: %q", got)
		}
	}

	// First request fetches; later requests may trigger background
	// revalidation but must be served from cache.
	if hits.Load() < 1 {
		t.Fatalf("origin never reached")
	}
}

func TestWorker_NonGetPassesThrough(t *testing.T) {
	var hits atomic.Int64
	store := cache.New("", zerolog.Nop())
	defer store.Close()

	w := NewWorker(originStub(&hits), store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/styles.css", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	if hits.Load() != 1 {
		t.Fatalf("non-GET must reach the origin, hits=%d", hits.Load())
	}
}

func TestWorker_UncacheablePathPassesThrough(t *testing.T) {
	var hits atomic.Int64
	store := cache.New("", zerolog.Nop())
	defer store.Close()

	w := NewWorker(originStub(&hits), store, zerolog.Nop())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api-ish", nil)
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, req)
		if rec.Body.String() != "dynamic" {
			t.Fatalf("wrong body: %q", rec.Body.String())
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("uncacheable path must always reach the origin, hits=%d", hits.Load())
	}
}

func TestWorker_MissingAssetNotCached(t *testing.T) {
	var hits atomic.Int64
	store := cache.New("", zerolog.Nop())
	defer store.Close()

	w := NewWorker(originStub(&hits), store, zerolog.Nop())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/missing.css", nil)
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("failed fetches must not be cached, hits=%d", hits.Load())
	}
}

func TestWorker_Precache(t *testing.T) {
	store := cache.New("", zerolog.Nop())
	defer store.Close()

	origin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("shell"))
	})
	w := NewWorker(origin, store, zerolog.Nop())
	w.Precache(context.Background())

	if _, ok := w.lookup(context.Background(), "/index.html"); !ok {
		t.Fatalf("manifest entry not precached")
	}
}
