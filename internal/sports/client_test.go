package sports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/cache"
)

const fixturePayload = `[{
	"id":"m1","title":"Arsenal vs Chelsea","category":"football",
	"date":1756500000000,
	"teams":{"home":{"name":"Arsenal","badge":"arsenal"},"away":{"name":"Chelsea","badge":"chelsea"}},
	"sources":[{"source":"alpha","id":"s1"}]
}]`

func TestLiveFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/live" {
			t.Errorf("wrong path %s", r.URL.Path)
		}
		fmt.Fprint(w, fixturePayload)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, zerolog.Nop())
	fixtures, err := c.Live(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	f := fixtures[0]
	if f.Title != "Arsenal vs Chelsea" || f.Date != 1756500000000 {
		t.Fatalf("wrong fixture: %+v", f)
	}
	if f.Teams == nil || f.Teams.Home.Name != "Arsenal" {
		t.Fatalf("teams not decoded: %+v", f.Teams)
	}
	if len(f.Sources) != 1 || f.Sources[0].Source != "alpha" {
		t.Fatalf("sources not decoded: %+v", f.Sources)
	}
}

func TestFixtures_CachedAcrossCalls(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, fixturePayload)
	}))
	defer srv.Close()

	store := cache.New("", zerolog.Nop())
	defer store.Close()

	c := NewClient(srv.URL, store, zerolog.Nop())
	for i := 0; i < 3; i++ {
		if _, err := c.AllToday(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if hits != 1 {
		t.Fatalf("concurrent viewers must share one fetch, got %d", hits)
	}
}

func TestGetStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream/alpha/s1" {
			t.Errorf("wrong path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"id":"s1","streamNo":1,"hd":true,"embedUrl":"https://embed.example/1","source":"alpha"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, zerolog.Nop())
	streams, err := c.GetStream(context.Background(), "alpha", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streams) != 1 || streams[0].EmbedURL != "https://embed.example/1" {
		t.Fatalf("wrong streams: %+v", streams)
	}
}

func TestBadgeURL(t *testing.T) {
	c := NewClient("https://streamed.pk/api", nil, zerolog.Nop())

	if got := c.BadgeURL("arsenal"); got != "https://streamed.pk/api/images/badge/arsenal.webp" {
		t.Fatalf("wrong badge URL: %s", got)
	}
	if got := c.BadgeURL(""); got != "" {
		t.Fatalf("empty badge must stay empty, got %q", got)
	}
}
