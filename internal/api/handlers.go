package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/moshtv/moshport/internal/auth"
	"github.com/moshtv/moshport/internal/database"
	"github.com/moshtv/moshport/internal/embed"
	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/player"
	"github.com/moshtv/moshport/internal/resolve"
	"github.com/moshtv/moshport/internal/scraper"
	"github.com/moshtv/moshport/internal/services"
	"github.com/moshtv/moshport/internal/shield"
	"github.com/moshtv/moshport/internal/sports"
)

type Handler struct {
	resolver     *resolve.Resolver
	builder      *embed.Builder
	metaClient   *services.MetadataClient
	sportsClient *sports.Client
	refresher    *sports.Refresher
	scraper      *scraper.Client
	shieldMgr    *shield.Manager
	tokens       *auth.TokenService
	userStore    *database.UserStore
	resolutions  *database.ResolutionStore
	log          zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*player.Session
}

func NewHandler(
	resolver *resolve.Resolver,
	builder *embed.Builder,
	metaClient *services.MetadataClient,
	sportsClient *sports.Client,
	refresher *sports.Refresher,
	scraperClient *scraper.Client,
	shieldMgr *shield.Manager,
	tokens *auth.TokenService,
	userStore *database.UserStore,
	resolutions *database.ResolutionStore,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		resolver:     resolver,
		builder:      builder,
		metaClient:   metaClient,
		sportsClient: sportsClient,
		refresher:    refresher,
		scraper:      scraperClient,
		shieldMgr:    shieldMgr,
		tokens:       tokens,
		userStore:    userStore,
		resolutions:  resolutions,
		log:          log,
		sessions:     make(map[string]*player.Session),
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles GET /api/v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResolveTitle handles GET /api/v1/resolve. It maps a display title to
// the embed provider's numeric catalog id.
func (h *Handler) ResolveTitle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	year := cast.ToInt(q.Get("year"))
	hint := models.MediaKind(q.Get("type"))
	if hint != models.KindTV {
		hint = models.KindMovie
	}

	match, err := h.resolver.Resolve(r.Context(), title, year, hint)
	if err != nil {
		if errors.Is(err, resolve.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Stream not found for this title")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, match)
}

// BuildEmbedURL handles GET /api/v1/embed-url. The id must already be a
// resolved catalog id.
func (h *Handler) BuildEmbedURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	kind := models.MediaKind(q.Get("type"))
	if kind != models.KindTV {
		kind = models.KindMovie
	}
	match := models.CatalogMatch{ID: id, Kind: kind}
	pos := embed.ParsePosition(q)

	respondJSON(w, http.StatusOK, map[string]string{
		"url": h.builder.EmbedURL(match, pos),
	})
}

// GetTitle handles GET /api/v1/titles/{id}
func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	title, err := h.metaClient.GetTitle(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, title)
}

// GetTitleSeasons handles GET /api/v1/titles/{id}/seasons
func (h *Handler) GetTitleSeasons(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	seasons, err := h.metaClient.GetSeasons(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"seasons": seasons})
}

// GetTitleEpisodes handles GET /api/v1/titles/{id}/episodes?season=N
func (h *Handler) GetTitleEpisodes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	season := cast.ToInt(r.URL.Query().Get("season"))
	if season < 1 {
		season = 1
	}

	episodes, err := h.metaClient.GetEpisodes(r.Context(), id, season)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"episodes": episodes})
}

// SearchTitles handles GET /api/v1/search/titles
func (h *Handler) SearchTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	titles, err := h.metaClient.SearchTitles(r.Context(), query, cast.ToInt(q.Get("limit")))
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"titles": titles})
}

// RootHandler serves basic service info at /
func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "moshport",
		"status":  "running",
	})
}
