package scraper

import (
	"github.com/buger/jsonparser"
)

// Candidate is one raw record from the catalog search service. The actor
// returns heterogeneous records (movie and series schemas mixed, snake and
// camel case field names), so the raw JSON is kept and fields are read
// lazily by probing the known spellings.
type Candidate struct {
	raw []byte
}

// NewCandidate wraps a raw JSON object.
func NewCandidate(raw []byte) Candidate {
	return Candidate{raw: raw}
}

// DisplayTitle returns the record's display name: the movie title when
// present, otherwise the series name.
func (c Candidate) DisplayTitle() string {
	if t := c.field("title"); t != "" {
		return t
	}
	return c.field("name")
}

// SeriesName returns the series-style display-name field, empty for movies.
func (c Candidate) SeriesName() string {
	return c.field("name")
}

// ReleaseDate returns the first release/air date field present.
func (c Candidate) ReleaseDate() string {
	for _, key := range []string{"releaseDate", "firstAirDate", "release_date", "first_air_date"} {
		if v := c.field(key); v != "" {
			return v
		}
	}
	return ""
}

// AirDate returns the series air-date field only, empty for movies.
func (c Candidate) AirDate() string {
	for _, key := range []string{"firstAirDate", "first_air_date"} {
		if v := c.field(key); v != "" {
			return v
		}
	}
	return ""
}

// PrimaryID returns the record's primary identifier, which may be either a
// numeric catalog id or an IMDb-style "tt" id.
func (c Candidate) PrimaryID() string {
	if v := c.field("id"); v != "" {
		return v
	}
	return c.field("tmdb_id")
}

// NumericID returns a numeric catalog identifier for the record, probing
// sibling fields when the primary id is IMDb-style. Empty means the record
// cannot be used for playback.
func (c Candidate) NumericID() string {
	if id := c.PrimaryID(); isNumeric(id) {
		return id
	}
	for _, key := range []string{"tmdb_id", "tmdbId", "id"} {
		if v := c.field(key); isNumeric(v) {
			return v
		}
	}
	return ""
}

// field reads a top-level field as a string, tolerating numeric values.
func (c Candidate) field(key string) string {
	v, t, _, err := jsonparser.Get(c.raw, key)
	if err != nil {
		return ""
	}
	switch t {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number:
		return string(v)
	}
	return ""
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseCandidates splits a raw JSON array into candidates, preserving the
// service's relevance order.
func ParseCandidates(data []byte) ([]Candidate, error) {
	var candidates []Candidate
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || dataType != jsonparser.Object {
			return
		}
		// ArrayEach reuses its buffer window; copy before keeping.
		raw := make([]byte, len(value))
		copy(raw, value)
		candidates = append(candidates, Candidate{raw: raw})
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
