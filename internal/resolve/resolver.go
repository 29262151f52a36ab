package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/scraper"
)

// ErrNotFound is the only error Resolve surfaces: network failures,
// malformed responses, empty result sets and non-numeric identifiers all
// fold into it. The underlying cause is logged, not returned.
var ErrNotFound = errors.New("title could not be resolved")

// Searcher queries the catalog search proxy for candidate records.
type Searcher interface {
	Search(ctx context.Context, title string, kind models.MediaKind) ([]scraper.Candidate, error)
}

// Cache persists successful resolutions between sessions. Optional.
type Cache interface {
	Get(ctx context.Context, title string) (models.CatalogMatch, bool, error)
	Set(ctx context.Context, title string, m models.CatalogMatch) error
}

// Resolver maps a human title (plus optional year and kind hint) to a
// numeric catalog identifier and media kind.
type Resolver struct {
	searcher Searcher
	cache    Cache
	log      zerolog.Logger

	mu        sync.RWMutex
	overrides map[string]models.CatalogMatch
}

// New creates a resolver seeded with the built-in override table.
// cache may be nil.
func New(searcher Searcher, cache Cache, log zerolog.Logger) *Resolver {
	return &Resolver{
		searcher:  searcher,
		cache:     cache,
		log:       log,
		overrides: DefaultOverrides(),
	}
}

// AddOverride pins a normalized title to a fixed match.
func (r *Resolver) AddOverride(title string, m models.CatalogMatch) {
	r.mu.Lock()
	r.overrides[NormalizeTitle(title)] = m
	r.mu.Unlock()
}

// RemoveOverride drops a pinned title.
func (r *Resolver) RemoveOverride(title string) {
	r.mu.Lock()
	delete(r.overrides, NormalizeTitle(title))
	r.mu.Unlock()
}

// Overrides returns a copy of the current override table.
func (r *Resolver) Overrides() map[string]models.CatalogMatch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.CatalogMatch, len(r.overrides))
	for k, v := range r.overrides {
		out[k] = v
	}
	return out
}

// NormalizeTitle lowercases and trims a title for table lookups and
// candidate comparison.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

var yearParenRe = regexp.MustCompile(`\(\d{4}\)`)

// stripYearParen removes embedded four-digit year parentheticals from a
// display name, e.g. "Dune (2021)" → "Dune".
func stripYearParen(s string) string {
	return strings.TrimSpace(yearParenRe.ReplaceAllString(s, ""))
}

// Resolve maps title/year/hint to a CatalogMatch. year of 0 means unknown.
// The non-override path makes exactly one outbound search call.
func (r *Resolver) Resolve(ctx context.Context, title string, year int, hint models.MediaKind) (models.CatalogMatch, error) {
	norm := NormalizeTitle(title)

	r.mu.RLock()
	match, ok := r.overrides[norm]
	r.mu.RUnlock()
	if ok {
		return match, nil
	}

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, norm)
		if err != nil {
			r.log.Warn().Err(err).Str("title", norm).Msg("resolution cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	candidates, err := r.searcher.Search(ctx, title, hint)
	if err != nil {
		r.log.Warn().Err(err).Str("title", title).Msg("catalog search failed")
		return models.CatalogMatch{}, ErrNotFound
	}
	if len(candidates) == 0 {
		r.log.Debug().Str("title", title).Msg("catalog search returned no candidates")
		return models.CatalogMatch{}, ErrNotFound
	}

	best := pickCandidate(candidates, norm, year)

	id := best.NumericID()
	if id == "" {
		r.log.Warn().
			Str("title", title).
			Str("primary_id", best.PrimaryID()).
			Msg("selected candidate has no numeric catalog id")
		return models.CatalogMatch{}, ErrNotFound
	}

	match = models.CatalogMatch{ID: id, Kind: inferKind(best, hint)}

	if r.cache != nil {
		if err := r.cache.Set(ctx, norm, match); err != nil {
			r.log.Warn().Err(err).Str("title", norm).Msg("resolution cache write failed")
		}
	}

	return match, nil
}

// pickCandidate selects the first candidate whose display name, with any
// year parenthetical stripped, exactly equals the normalized input title
// and whose year matches when one was supplied. Falls back to the first
// candidate: the service's own relevance ordering is trusted as a last
// resort.
func pickCandidate(candidates []scraper.Candidate, norm string, year int) scraper.Candidate {
	for _, c := range candidates {
		rawTitle := strings.ToLower(c.DisplayTitle())
		if stripYearParen(rawTitle) != norm {
			continue
		}
		if year != 0 && !yearMatches(c, rawTitle, year) {
			continue
		}
		return c
	}
	return candidates[0]
}

// yearMatches accepts a release-date year equal to the supplied year, or a
// display name carrying the year in parenthetical form.
func yearMatches(c scraper.Candidate, rawTitle string, year int) bool {
	want := strconv.Itoa(year)
	if date := c.ReleaseDate(); len(date) >= 4 && date[:4] == want {
		return true
	}
	return strings.Contains(rawTitle, fmt.Sprintf("(%d)", year))
}

// inferKind classifies a candidate as tv when it carries series markers
// (a series display-name field or an air date) or when the caller hinted tv.
func inferKind(c scraper.Candidate, hint models.MediaKind) models.MediaKind {
	if c.SeriesName() != "" || c.AirDate() != "" || hint == models.KindTV {
		return models.KindTV
	}
	return models.KindMovie
}
