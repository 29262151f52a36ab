package models

// MediaKind distinguishes the two playable catalog types.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindTV    MediaKind = "tv"
)

// Flip returns the opposite media kind (user-triggered movie ⇄ tv toggle).
func (k MediaKind) Flip() MediaKind {
	if k == KindMovie {
		return KindTV
	}
	return KindMovie
}

// TitleRecord is a read-only record from the metadata API. The ID is the
// IMDb-style string identifier ("tt" prefixed), never a catalog id.
type TitleRecord struct {
	ID            string  `json:"id"`
	PrimaryTitle  string  `json:"primaryTitle"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	Type          string  `json:"type"`
	StartYear     int     `json:"startYear,omitempty"`
	Plot          string  `json:"plot,omitempty"`
	PosterURL     string  `json:"posterUrl,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
}

// IsSeries reports whether the metadata type describes episodic content.
func (t *TitleRecord) IsSeries() bool {
	switch t.Type {
	case "tvSeries", "tvMiniSeries", "tvShort":
		return true
	}
	return false
}

// CatalogMatch is a resolved playback identity: the embed provider's numeric
// catalog id plus the media kind. The id is never IMDb-prefixed; an IMDb id
// here is a resolution failure upstream.
type CatalogMatch struct {
	ID   string    `json:"id"`
	Kind MediaKind `json:"type"`
}

// PlaybackPosition addresses an episode within a series. Both fields are
// always >= 1; zero values from the wire are normalized to 1.
type PlaybackPosition struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// Normalize clamps season and episode to their minimum of 1.
func (p PlaybackPosition) Normalize() PlaybackPosition {
	if p.Season < 1 {
		p.Season = 1
	}
	if p.Episode < 1 {
		p.Episode = 1
	}
	return p
}

// Team is one side of a sports fixture.
type Team struct {
	Name  string `json:"name"`
	Badge string `json:"badge,omitempty"`
}

// Scores carries live scores when the fixture has started.
type Scores struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// StreamSource points at one playable stream for a fixture.
type StreamSource struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// SportsFixture is a live or scheduled sports event from the sports API.
type SportsFixture struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	// Kickoff in unix milliseconds, as delivered by the API.
	Date    int64          `json:"date"`
	Teams   *FixtureTeams  `json:"teams,omitempty"`
	Scores  *Scores        `json:"scores,omitempty"`
	Sources []StreamSource `json:"sources"`
}

// FixtureTeams groups home and away sides; either may be absent for
// single-competitor events.
type FixtureTeams struct {
	Home *Team `json:"home,omitempty"`
	Away *Team `json:"away,omitempty"`
}

// SportStream is a playable stream resolved from a fixture source.
type SportStream struct {
	ID       string `json:"id"`
	StreamNo int    `json:"streamNo"`
	Language string `json:"language,omitempty"`
	HD       bool   `json:"hd"`
	EmbedURL string `json:"embedUrl"`
	Source   string `json:"source"`
}

// SportCategory is an entry of the sports category navigation.
type SportCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SeasonInfo is a season entry from the metadata API.
type SeasonInfo struct {
	Season       int `json:"season"`
	EpisodeCount int `json:"episodeCount,omitempty"`
}

// EpisodeInfo is an episode entry from the metadata API.
type EpisodeInfo struct {
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title,omitempty"`
	Season        int    `json:"season,omitempty"`
}
