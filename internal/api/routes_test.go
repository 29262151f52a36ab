package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/auth"
	"github.com/moshtv/moshport/internal/embed"
	"github.com/moshtv/moshport/internal/resolve"
	"github.com/moshtv/moshport/internal/scraper"
	"github.com/moshtv/moshport/internal/services"
	"github.com/moshtv/moshport/internal/shield"
	"github.com/moshtv/moshport/internal/sports"
)

// testStack wires a full router against stub upstreams.
func testStack(t *testing.T) (http.Handler, func()) {
	t.Helper()
	log := zerolog.Nop()

	meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/titles/tt0133093":
			fmt.Fprint(w, `{"id":"tt0133093","type":"movie","primaryTitle":"The Matrix","startYear":1999}`)
		default:
			http.NotFound(w, r)
		}
	}))

	actor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"title":"The Matrix","releaseDate":"1999-03-31","id":603}]`)
	}))

	sportsAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/matches/live":
			fmt.Fprint(w, `[{"id":"m1","title":"Arsenal vs Chelsea","category":"football","date":1756500000000,"sources":[]}]`)
		case "/sports":
			fmt.Fprint(w, `[{"id":"football","name":"Football"}]`)
		default:
			http.NotFound(w, r)
		}
	}))

	scraperClient := scraper.NewClient("secret", log)
	scraperClient.SetActorURL(actor.URL)

	resolver := resolve.New(scraperClient, nil, log)
	builder := embed.NewBuilder("https://cinemaos.tech/player")
	metaClient := services.NewMetadataClient(meta.URL, nil, log)
	sportsClient := sports.NewClient(sportsAPI.URL, nil, log)
	refresher := sports.NewRefresher(sportsClient, time.Minute, log)
	shieldMgr := shield.NewManager("https://mosh.tv", log)
	tokens := auth.NewTokenService("test-secret")

	h := NewHandler(resolver, builder, metaClient, sportsClient, refresher,
		scraperClient, shieldMgr, tokens, nil, nil, log)

	cleanup := func() {
		refresher.Stop()
		meta.Close()
		actor.Close()
		sportsAPI.Close()
	}
	return SetupRoutes(h, nil), cleanup
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestRoutes_Health(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "GET", "/api/v1/health", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health check failed: %d %v", rec.Code, body)
	}
}

func TestRoutes_ResolveOverride(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "GET", "/api/v1/resolve?title=Rick+and+Morty&type=tv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["id"] != "60625" || body["type"] != "tv" {
		t.Fatalf("wrong match: %v", body)
	}
}

func TestRoutes_ResolveViaSearch(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "GET", "/api/v1/resolve?title=The+Matrix&year=1999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	if body["id"] != "603" {
		t.Fatalf("wrong match: %v", body)
	}
}

func TestRoutes_EmbedURL(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "GET", "/api/v1/embed-url?id=1399&type=tv&s=2&e=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	u, _ := body["url"].(string)
	if !strings.HasPrefix(u, "https://cinemaos.tech/player/tv/1399/2/5?") {
		t.Fatalf("wrong embed URL: %s", u)
	}
}

func TestRoutes_PlayerAndShieldFlow(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "POST", "/api/v1/player?id=tt0133093", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	id, _ := body["sessionId"].(string)
	if id == "" {
		t.Fatalf("missing session id: %v", body)
	}

	rec, body = doJSON(t, router, "POST", "/api/v1/player/"+id+"/shield/popup", `{"url":"https://ads.example/x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if opened, _ := body["opened"].(bool); opened {
		t.Fatalf("popup must never open")
	}

	rec, body = doJSON(t, router, "GET", "/api/v1/player/"+id+"/shield/blocklog", "")
	blocked, _ := body["blocked"].([]interface{})
	if len(blocked) != 1 || blocked[0] != "https://ads.example/x" {
		t.Fatalf("wrong block log: %v", body)
	}

	rec, body = doJSON(t, router, "POST", "/api/v1/player/"+id+"/shield/toggle", "")
	if body["state"] != string(shield.Disarmed) {
		t.Fatalf("expected disarmed, got %v", body)
	}

	rec, _ = doJSON(t, router, "DELETE", "/api/v1/player/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = doJSON(t, router, "GET", "/api/v1/player/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("closed session must be gone, got %d", rec.Code)
	}
}

func TestRoutes_SportsLive(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, body := doJSON(t, router, "GET", "/api/v1/sports/matches/live?q=arsenal", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	fixtures, _ := body["fixtures"].([]interface{})
	if len(fixtures) != 1 {
		t.Fatalf("wrong fixtures: %v", body)
	}

	rec, body = doJSON(t, router, "GET", "/api/v1/sports/matches/live?q=cricket", "")
	fixtures, ok := body["fixtures"].([]interface{})
	if !ok || len(fixtures) != 0 {
		t.Fatalf("no-match must be an empty list: %v", body)
	}
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	rec, _ := doJSON(t, router, "GET", "/api/v1/admin/overrides", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRoutes_AdminOverrideCRUD(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	tokens := auth.NewTokenService("test-secret")
	token, _ := tokens.Generate(1, "admin", true)

	req := httptest.NewRequest("PUT", "/api/v1/admin/overrides",
		strings.NewReader(`{"title":"My Show","id":"42","type":"tv"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]map[string]map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["overrides"]["my show"]["id"] != "42" {
		t.Fatalf("override not stored: %v", body)
	}
}

func TestRoutes_CORSHeaders(t *testing.T) {
	router, cleanup := testStack(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "https://mosh.tv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}
