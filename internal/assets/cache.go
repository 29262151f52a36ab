package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/cache"
)

const assetCacheTTL = 12 * time.Hour

// precacheManifest is the fixed set of assets warmed at startup so the
// shell renders without waiting on the origin.
var precacheManifest = []string{
	"/",
	"/index.html",
	"/player.html",
	"/sports.html",
	"/styles.css",
	"/app.js",
	"/icon.svg",
}

// revalidateSuffixes are asset types served cache-first with a background
// refresh. Anything else that misses the cache goes straight to origin.
var revalidateSuffixes = []string{
	".html", ".css", ".js", ".svg", ".png", ".jpg", ".webp", ".ico", ".woff2",
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Worker serves static assets cache-first. Successful responses are kept
// in the request cache; cached hits are answered immediately and refreshed
// in the background so repeat visits work when the origin is slow or down.
// Non-GET requests pass through untouched.
type Worker struct {
	next  http.Handler
	store *cache.Store
	log   zerolog.Logger
}

// NewWorker wraps the asset origin handler. store must not be nil.
func NewWorker(next http.Handler, store *cache.Store, log zerolog.Logger) *Worker {
	return &Worker{
		next:  next,
		store: store,
		log:   log,
	}
}

// Precache warms the fixed manifest. Individual failures are logged and
// skipped; a missing asset at startup must not prevent serving the rest.
func (w *Worker) Precache(ctx context.Context) {
	for _, p := range precacheManifest {
		if err := ctx.Err(); err != nil {
			return
		}
		if _, err := w.fetchAndStore(ctx, p); err != nil {
			w.log.Warn().Err(err).Str("path", p).Msg("precache fetch failed")
		}
	}
	w.log.Info().Int("assets", len(precacheManifest)).Msg("asset precache complete")
}

func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !w.cacheable(r.URL.Path) {
		w.next.ServeHTTP(rw, r)
		return
	}

	if cached, ok := w.lookup(r.Context(), r.URL.Path); ok {
		w.write(rw, cached)
		go w.revalidate(r.URL.Path)
		return
	}

	cached, err := w.fetchAndStore(r.Context(), r.URL.Path)
	if err != nil {
		w.next.ServeHTTP(rw, r)
		return
	}
	w.write(rw, cached)
}

func (w *Worker) cacheable(p string) bool {
	for _, m := range precacheManifest {
		if p == m {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(p))
	for _, s := range revalidateSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

func (w *Worker) lookup(ctx context.Context, p string) (cachedResponse, bool) {
	data, ok := w.store.Get(ctx, "asset:"+p)
	if !ok {
		return cachedResponse{}, false
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return cachedResponse{}, false
	}
	return cached, true
}

// fetchAndStore serves the path from the origin handler into a recorder
// and caches 200 responses.
func (w *Worker) fetchAndStore(ctx context.Context, p string) (cachedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p, nil)
	if err != nil {
		return cachedResponse{}, err
	}

	rec := newRecorder()
	w.next.ServeHTTP(rec, req)

	cached := cachedResponse{
		Status:      rec.status,
		ContentType: rec.Header().Get("Content-Type"),
		Body:        bytes.Clone(rec.body.Bytes()),
	}
	if rec.status != http.StatusOK {
		return cached, nil
	}

	if data, err := json.Marshal(cached); err == nil {
		w.store.Set(ctx, "asset:"+p, data, assetCacheTTL)
	}
	return cached, nil
}

func (w *Worker) revalidate(p string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := w.fetchAndStore(ctx, p); err != nil {
		w.log.Debug().Err(err).Str("path", p).Msg("asset revalidation failed")
	}
}

// recorder captures an origin response for caching.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) { r.status = status }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (w *Worker) write(rw http.ResponseWriter, cached cachedResponse) {
	if cached.ContentType != "" {
		rw.Header().Set("Content-Type", cached.ContentType)
	}
	status := cached.Status
	if status == 0 {
		status = http.StatusOK
	}
	rw.WriteHeader(status)
	rw.Write(cached.Body)
}
