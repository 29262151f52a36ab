package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// SetupRoutes configures all API routes. assets, when non-nil, serves
// everything the API router does not claim.
func SetupRoutes(handler *Handler, assets http.Handler) http.Handler {
	r := mux.NewRouter()

	// Legacy scraper proxy path, kept off /api/v1 so existing clients
	// keep working. Method handling lives in the handler (405 semantics).
	r.HandleFunc("/api/tmdb-scraper", handler.ScraperProxy)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Title resolution and embeds
	api.HandleFunc("/resolve", handler.ResolveTitle).Methods("GET")
	api.HandleFunc("/embed-url", handler.BuildEmbedURL).Methods("GET")

	// Metadata
	api.HandleFunc("/titles/{id}", handler.GetTitle).Methods("GET")
	api.HandleFunc("/titles/{id}/seasons", handler.GetTitleSeasons).Methods("GET")
	api.HandleFunc("/titles/{id}/episodes", handler.GetTitleEpisodes).Methods("GET")
	api.HandleFunc("/search/titles", handler.SearchTitles).Methods("GET")

	// Player sessions
	api.HandleFunc("/player", handler.CreatePlayerSession).Methods("POST")
	api.HandleFunc("/player/{id}", handler.GetPlayerSession).Methods("GET")
	api.HandleFunc("/player/{id}", handler.ClosePlayerSession).Methods("DELETE")
	api.HandleFunc("/player/{id}/season", handler.SelectSeason).Methods("POST")
	api.HandleFunc("/player/{id}/episode", handler.SelectEpisode).Methods("POST")
	api.HandleFunc("/player/{id}/toggle", handler.ToggleKind).Methods("POST")
	api.HandleFunc("/player/{id}/message", handler.PlayerMessage).Methods("POST")
	api.HandleFunc("/player/{id}/share", handler.ShareLink).Methods("GET")

	// Shield
	api.HandleFunc("/player/{id}/shield", handler.GetShieldState).Methods("GET")
	api.HandleFunc("/player/{id}/shield/toggle", handler.ToggleShield).Methods("POST")
	api.HandleFunc("/player/{id}/shield/popup", handler.ReportPopup).Methods("POST")
	api.HandleFunc("/player/{id}/shield/confirm", handler.ReportConfirm).Methods("POST")
	api.HandleFunc("/player/{id}/shield/anchor", handler.CheckAnchor).Methods("POST")
	api.HandleFunc("/player/{id}/shield/blocklog", handler.GetBlockLog).Methods("GET")
	api.HandleFunc("/player/{id}/shield/blocklog", handler.ClearBlockLog).Methods("DELETE")

	// Sports
	api.HandleFunc("/sports/matches/today", handler.GetTodayFixtures).Methods("GET")
	api.HandleFunc("/sports/matches/live", handler.GetLiveFixtures).Methods("GET")
	api.HandleFunc("/sports/matches/{category}", handler.GetCategoryFixtures).Methods("GET")
	api.HandleFunc("/sports/categories", handler.GetSportCategories).Methods("GET")
	api.HandleFunc("/sports/stream/{source}/{id}", handler.GetSportStream).Methods("GET")
	api.HandleFunc("/sports/poll", handler.GetSportsPoll).Methods("GET")
	api.HandleFunc("/sports/poll", handler.StopSportsPoll).Methods("DELETE")
	api.HandleFunc("/sports/poll/{category}", handler.StartSportsPoll).Methods("POST")

	// Auth
	api.HandleFunc("/auth/login", handler.Login).Methods("POST")

	// Admin (override table, resolution cache)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(func(next http.Handler) http.Handler {
		return handler.tokens.RequireAdmin(next)
	}))
	admin.HandleFunc("/overrides", handler.ListOverrides).Methods("GET")
	admin.HandleFunc("/overrides", handler.PutOverride).Methods("PUT")
	admin.HandleFunc("/overrides/{title}", handler.DeleteOverride).Methods("DELETE")
	admin.HandleFunc("/resolutions", handler.ListResolutions).Methods("GET")
	admin.HandleFunc("/resolutions/prune", handler.PruneResolutions).Methods("POST")

	// Static assets, cache-first
	if assets != nil {
		r.PathPrefix("/").Handler(assets)
	} else {
		r.HandleFunc("/", handler.RootHandler).Methods("GET")
	}

	// Enable CORS
	r.Use(corsMiddleware)

	// Logging middleware
	r.Use(loggingMiddleware(handler.log))

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
