package sports

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRefresher_StartFetchesImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/live" {
			t.Errorf("default category must poll live fixtures, got %s", r.URL.Path)
		}
		fmt.Fprint(w, fixturePayload)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, zerolog.Nop())
	r := NewRefresher(c, time.Minute, zerolog.Nop())
	defer r.Stop()

	if err := r.Start("all"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Running() {
		t.Fatalf("refresher must report running after Start")
	}

	latest := r.Latest()
	if len(latest) != 1 || latest[0].ID != "m1" {
		t.Fatalf("immediate fetch missing: %+v", latest)
	}
}

func TestRefresher_StartWithCategory(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, zerolog.Nop())
	r := NewRefresher(c, time.Minute, zerolog.Nop())
	defer r.Stop()

	if err := r.Start("football"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := path.Load(); got != "/matches/football" {
		t.Fatalf("expected category endpoint, got %v", got)
	}
}

func TestRefresher_StopTearsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, zerolog.Nop())
	r := NewRefresher(c, time.Minute, zerolog.Nop())

	if err := r.Start("all"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Stop()
	if r.Running() {
		t.Fatalf("refresher must stop")
	}

	// Stop is idempotent.
	r.Stop()
}
