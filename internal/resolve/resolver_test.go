package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/scraper"
)

type fakeSearcher struct {
	results []scraper.Candidate
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, title string, kind models.MediaKind) ([]scraper.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type memCache struct {
	entries map[string]models.CatalogMatch
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.CatalogMatch)}
}

func (m *memCache) Get(ctx context.Context, title string) (models.CatalogMatch, bool, error) {
	e, ok := m.entries[title]
	return e, ok, nil
}

func (m *memCache) Set(ctx context.Context, title string, match models.CatalogMatch) error {
	m.entries[title] = match
	return nil
}

func candidates(raws ...string) []scraper.Candidate {
	out := make([]scraper.Candidate, 0, len(raws))
	for _, r := range raws {
		out = append(out, scraper.NewCandidate([]byte(r)))
	}
	return out
}

func TestResolve_OverrideSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("network down")}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "Rick and Morty", 0, models.KindTV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "60625" || match.Kind != models.KindTV {
		t.Fatalf("wrong match: %+v", match)
	}
	if searcher.calls != 0 {
		t.Fatalf("override lookup must not touch the searcher, got %d calls", searcher.calls)
	}
}

func TestResolve_OverrideIsCaseInsensitive(t *testing.T) {
	r := New(&fakeSearcher{err: errors.New("no")}, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "  RICK AND MORTY  ", 0, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "60625" {
		t.Fatalf("wrong match: %+v", match)
	}
}

func TestResolve_ExactTitleAndYearWins(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"title":"Dune","releaseDate":"1984-12-14","id":841}`,
		`{"title":"Dune","releaseDate":"2021-10-22","id":438631}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "Dune", 2021, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "438631" {
		t.Fatalf("expected 2021 release, got %+v", match)
	}
	if match.Kind != models.KindMovie {
		t.Fatalf("expected movie kind, got %s", match.Kind)
	}
}

func TestResolve_ParentheticalYearMatches(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"title":"Dune (2021)","id":438631}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "Dune", 2021, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "438631" {
		t.Fatalf("wrong match: %+v", match)
	}
}

func TestResolve_FallsBackToFirstCandidate(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"title":"Something Else Entirely","id":111}`,
		`{"title":"Also Unrelated","id":222}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "The Thin Red Line", 1998, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "111" {
		t.Fatalf("expected rank-0 fallback, got %+v", match)
	}
}

func TestResolve_NumericSiblingDisambiguation(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"title":"The Matrix","id":"tt0133093","tmdb_id":603}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "The Matrix", 0, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "603" {
		t.Fatalf("expected numeric sibling id, got %+v", match)
	}
}

func TestResolve_NoNumericIDIsNotFound(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"title":"The Matrix","id":"tt0133093"}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "The Matrix", 0, models.KindMovie)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_SearchErrorFoldsToNotFound(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("actor timeout")}
	r := New(searcher, nil, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "Anything", 0, models.KindMovie)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_EmptyResultIsNotFound(t *testing.T) {
	searcher := &fakeSearcher{}
	r := New(searcher, nil, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "Anything", 0, models.KindMovie)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_SeriesMarkersInferTV(t *testing.T) {
	searcher := &fakeSearcher{results: candidates(
		`{"name":"Breaking Bad","firstAirDate":"2008-01-20","id":1396}`,
	)}
	r := New(searcher, nil, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "Breaking Bad", 0, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Kind != models.KindTV {
		t.Fatalf("series markers should infer tv, got %s", match.Kind)
	}
}

func TestResolve_CacheHitSkipsSearch(t *testing.T) {
	cache := newMemCache()
	cache.entries["dune"] = models.CatalogMatch{ID: "438631", Kind: models.KindMovie}

	searcher := &fakeSearcher{err: errors.New("must not be called")}
	r := New(searcher, cache, zerolog.Nop())

	match, err := r.Resolve(context.Background(), "Dune", 2021, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "438631" {
		t.Fatalf("wrong match: %+v", match)
	}
	if searcher.calls != 0 {
		t.Fatalf("cache hit must not touch the searcher")
	}
}

func TestResolve_SuccessIsCached(t *testing.T) {
	cache := newMemCache()
	searcher := &fakeSearcher{results: candidates(
		`{"title":"Dune","releaseDate":"2021-10-22","id":438631}`,
	)}
	r := New(searcher, cache, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), "Dune", 2021, models.KindMovie); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Resolve(context.Background(), "Dune", 2021, models.KindMovie); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.calls != 1 {
		t.Fatalf("expected exactly one search call, got %d", searcher.calls)
	}
}

func TestOverrideManagement(t *testing.T) {
	r := New(&fakeSearcher{err: errors.New("no")}, nil, zerolog.Nop())

	r.AddOverride("  My Show  ", models.CatalogMatch{ID: "42", Kind: models.KindTV})
	match, err := r.Resolve(context.Background(), "my show", 0, models.KindMovie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.ID != "42" {
		t.Fatalf("wrong match: %+v", match)
	}

	r.RemoveOverride("My Show")
	if _, ok := r.Overrides()["my show"]; ok {
		t.Fatalf("override should be removed")
	}
}

func TestStripYearParen(t *testing.T) {
	cases := map[string]string{
		"Dune (2021)":       "Dune",
		"Dune":              "Dune",
		"Dune (2021) Redux": "Dune  Redux",
	}
	for in, want := range cases {
		if got := stripYearParen(in); got != want {
			t.Errorf("stripYearParen(%q) = %q, want %q", in, got, want)
		}
	}
}
