package player

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/embed"
	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/resolve"
	"github.com/moshtv/moshport/internal/services"
	"github.com/moshtv/moshport/internal/shield"
)

var (
	// ErrNoTitle means the page was opened without a title id; callers
	// send the user back to browse.
	ErrNoTitle = errors.New("no title id supplied")
	// ErrStreamNotFound is surfaced to the user as "Stream not found for
	// this title".
	ErrStreamNotFound = errors.New("stream not found for this title")
)

// Session drives one player view: metadata, resolution, embed URL and
// shield state. All mutable view state lives here, injected and owned,
// never global.
type Session struct {
	meta     *services.MetadataClient
	resolver *resolve.Resolver
	builder  *embed.Builder
	shield   *shield.Shield
	log      zerolog.Logger

	// loadGen orders season/episode loads: a response is applied only if
	// no newer selection happened while it was in flight.
	loadGen atomic.Uint64

	mu          sync.RWMutex
	sport       bool
	sportTitle  string
	title       *models.TitleRecord
	match       *models.CatalogMatch
	pos         models.PlaybackPosition
	embedURL    string
	seasons     []models.SeasonInfo
	episodes    []models.EpisodeInfo
	reloadToken uint64
}

// NewSession creates an uninitialized session. The shield is created
// through mgr with this session as its reload surface.
func NewSession(meta *services.MetadataClient, resolver *resolve.Resolver, builder *embed.Builder, mgr *shield.Manager, clipboard shield.Clipboard, log zerolog.Logger) (string, *Session) {
	s := &Session{
		meta:     meta,
		resolver: resolver,
		builder:  builder,
		log:      log,
		pos:      models.PlaybackPosition{Season: 1, Episode: 1},
	}
	id, sh := mgr.Create(clipboard, s)
	s.shield = sh
	return id, s
}

// Shield exposes the session's shield.
func (s *Session) Shield() *shield.Shield {
	return s.shield
}

// Init builds the session from page query parameters (`id`, `s`, `e`,
// `type=sport`, `url`, `title`). The metadata fetch always completes
// before the resolver call: the resolver needs the title's year.
func (s *Session) Init(ctx context.Context, q url.Values) error {
	if q.Get("type") == "sport" {
		return s.initSport(q.Get("url"), q.Get("title"))
	}

	id := q.Get("id")
	if id == "" {
		return ErrNoTitle
	}
	pos := embed.ParsePosition(q)

	title, err := s.meta.GetTitle(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("metadata fetch failed")
		return ErrStreamNotFound
	}

	hint := models.KindMovie
	if title.IsSeries() {
		hint = models.KindTV
	}

	match, err := s.resolver.Resolve(ctx, title.PrimaryTitle, title.StartYear, hint)
	if err != nil {
		return ErrStreamNotFound
	}

	s.mu.Lock()
	s.title = title
	s.match = &match
	s.pos = pos
	s.embedURL = s.builder.EmbedURL(match, pos)
	s.mu.Unlock()

	// Season list first, then the selected season's episodes: the
	// episode fetch depends on the season selection.
	if match.Kind == models.KindTV {
		if err := s.loadSeasons(ctx); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("season list fetch failed")
		} else if err := s.loadEpisodes(ctx, pos.Season, s.loadGen.Add(1)); err != nil {
			s.log.Warn().Err(err).Int("season", pos.Season).Msg("episode list fetch failed")
		}
	}

	return nil
}

func (s *Session) initSport(streamURL, title string) error {
	if streamURL == "" {
		return ErrStreamNotFound
	}

	s.mu.Lock()
	s.sport = true
	s.sportTitle = title
	s.embedURL = s.builder.SportURL(streamURL)
	s.mu.Unlock()
	return nil
}

func (s *Session) loadSeasons(ctx context.Context) error {
	s.mu.RLock()
	title := s.title
	s.mu.RUnlock()
	if title == nil {
		return nil
	}

	seasons, err := s.meta.GetSeasons(ctx, title.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.seasons = seasons
	s.mu.Unlock()
	return nil
}

func (s *Session) loadEpisodes(ctx context.Context, season int, gen uint64) error {
	s.mu.RLock()
	title := s.title
	s.mu.RUnlock()
	if title == nil {
		return nil
	}

	episodes, err := s.meta.GetEpisodes(ctx, title.ID, season)
	if err != nil {
		return err
	}

	// A newer season selection happened while this fetch was in flight;
	// applying it would overwrite the newer state.
	if s.loadGen.Load() != gen {
		s.log.Debug().Int("season", season).Msg("discarding stale episode response")
		return nil
	}

	s.mu.Lock()
	s.episodes = episodes
	s.mu.Unlock()
	return nil
}

// SelectSeason switches to a season, resetting the episode to 1, and
// reloads the episode list. A stale in-flight episode response from a
// previous selection can no longer apply.
func (s *Session) SelectSeason(ctx context.Context, season int) error {
	if season < 1 {
		season = 1
	}
	gen := s.loadGen.Add(1)

	s.mu.Lock()
	if s.match == nil || s.match.Kind != models.KindTV {
		s.mu.Unlock()
		return nil
	}
	s.pos = models.PlaybackPosition{Season: season, Episode: 1}
	s.embedURL = s.builder.EmbedURL(*s.match, s.pos)
	s.mu.Unlock()

	return s.loadEpisodes(ctx, season, gen)
}

// SelectEpisode switches to an episode within the current season.
func (s *Session) SelectEpisode(episode int) {
	if episode < 1 {
		episode = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil || s.match.Kind != models.KindTV {
		return
	}
	s.pos.Episode = episode
	s.embedURL = s.builder.EmbedURL(*s.match, s.pos)
}

// ToggleKind flips the match between movie and tv (user-triggered only)
// and resets the position to 1/1.
func (s *Session) ToggleKind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return
	}
	s.match.Kind = s.match.Kind.Flip()
	s.pos = models.PlaybackPosition{Season: 1, Episode: 1}
	s.embedURL = s.builder.EmbedURL(*s.match, s.pos)
}

// HandlePlayerMessage decodes an inbound provider postMessage and, on an
// ended event for a series, advances to the next episode. Returns whether
// playback advanced.
func (s *Session) HandlePlayerMessage(data []byte) bool {
	ev, ok := embed.DecodePlayerEvent(data)
	if !ok || ev.Kind != embed.EventEnded {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil || s.match.Kind != models.KindTV {
		return false
	}

	next, ok := embed.NextEpisode(s.pos, len(s.episodes))
	if !ok {
		return false
	}
	s.pos = next
	s.embedURL = s.builder.EmbedURL(*s.match, s.pos)
	return true
}

// Reload implements shield.Surface: a shield toggle blanks the embed and
// restores its source, observable to clients as a new reload token.
func (s *Session) Reload() {
	s.mu.Lock()
	s.reloadToken++
	s.mu.Unlock()
}

// ShareQuery returns the page query parameters that reproduce the current
// playback position, so reload/share preserves it.
func (s *Session) ShareQuery() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := url.Values{}
	if s.sport {
		q.Set("type", "sport")
		q.Set("url", s.embedURL)
		q.Set("title", s.sportTitle)
		return q
	}
	if s.title != nil {
		q.Set("id", s.title.ID)
	}
	if s.match != nil && s.match.Kind == models.KindTV {
		embed.ReflectPosition(q, s.pos)
	}
	return q
}

// State is the view snapshot returned to clients.
type State struct {
	Sport       bool                   `json:"sport"`
	Heading     string                 `json:"heading"`
	MetaLine    string                 `json:"metaLine"`
	Title       *models.TitleRecord    `json:"title,omitempty"`
	Match       *models.CatalogMatch   `json:"match,omitempty"`
	Position    models.PlaybackPosition `json:"position"`
	EmbedURL    string                 `json:"embedUrl"`
	Seasons     []models.SeasonInfo    `json:"seasons,omitempty"`
	Episodes    []models.EpisodeInfo   `json:"episodes,omitempty"`
	Sandbox     []string               `json:"sandbox,omitempty"`
	ShieldState string                 `json:"shieldState"`
	ReloadToken uint64                 `json:"reloadToken"`
}

// Snapshot returns the current view state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Sport:       s.sport,
		Position:    s.pos,
		EmbedURL:    s.embedURL,
		Seasons:     s.seasons,
		Episodes:    s.episodes,
		Sandbox:     s.shield.SandboxTokens(),
		ShieldState: string(s.shield.State()),
		ReloadToken: s.reloadToken,
	}

	if s.sport {
		st.Heading = s.sportTitle
		st.MetaLine = "LIVE EVENT"
		return st
	}

	st.Title = s.title
	st.Match = s.match
	if s.title != nil {
		st.Heading = s.title.PrimaryTitle
	}
	return st
}
