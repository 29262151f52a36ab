package embed

import (
	"fmt"
	"net/url"

	"github.com/moshtv/moshport/internal/models"
)

// playerParams are the fixed display/playback parameters appended to every
// catalog embed URL.
var playerParams = url.Values{
	"autoPlay": {"true"},
	"autoNext": {"true"},
}

// Builder constructs embed URLs for the third-party video player.
type Builder struct {
	base string
}

// NewBuilder creates a builder for the given provider base, e.g.
// "https://cinemaos.tech/player".
func NewBuilder(base string) *Builder {
	return &Builder{base: base}
}

// MovieURL builds the embed URL for a movie catalog id.
func (b *Builder) MovieURL(catalogID string) string {
	return fmt.Sprintf("%s/movie/%s?%s", b.base, catalogID, playerParams.Encode())
}

// TVURL builds the embed URL for an episode of a series.
func (b *Builder) TVURL(catalogID string, pos models.PlaybackPosition) string {
	pos = pos.Normalize()
	return fmt.Sprintf("%s/tv/%s/%d/%d?%s", b.base, catalogID, pos.Season, pos.Episode, playerParams.Encode())
}

// EmbedURL builds the embed URL for a resolved match at a position.
// Position is ignored for movies.
func (b *Builder) EmbedURL(m models.CatalogMatch, pos models.PlaybackPosition) string {
	if m.Kind == models.KindTV {
		return b.TVURL(m.ID, pos)
	}
	return b.MovieURL(m.ID)
}

// SportURL passes a directly supplied stream URL through unchanged: sport
// mode bypasses the catalog entirely.
func (b *Builder) SportURL(streamURL string) string {
	return streamURL
}
