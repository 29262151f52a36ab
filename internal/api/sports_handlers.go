package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/sports"
)

// GetTodayFixtures handles GET /api/v1/sports/matches/today
func (h *Handler) GetTodayFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := h.sportsClient.AllToday(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.withSearch(fixtures, r))
}

// GetLiveFixtures handles GET /api/v1/sports/matches/live
func (h *Handler) GetLiveFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := h.sportsClient.Live(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.withSearch(fixtures, r))
}

// GetCategoryFixtures handles GET /api/v1/sports/matches/{category}
func (h *Handler) GetCategoryFixtures(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	fixtures, err := h.sportsClient.ByCategory(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.withSearch(fixtures, r))
}

// withSearch applies the optional ?q= filter and badge URLs.
func (h *Handler) withSearch(fixtures []models.SportsFixture, r *http.Request) map[string]interface{} {
	filtered := sports.Filter(fixtures, r.URL.Query().Get("q"))
	for i := range filtered {
		if filtered[i].Teams == nil {
			continue
		}
		if home := filtered[i].Teams.Home; home != nil && home.Badge != "" {
			home.Badge = h.sportsClient.BadgeURL(home.Badge)
		}
		if away := filtered[i].Teams.Away; away != nil && away.Badge != "" {
			away.Badge = h.sportsClient.BadgeURL(away.Badge)
		}
	}
	return map[string]interface{}{"fixtures": filtered}
}

// GetSportCategories handles GET /api/v1/sports/categories
func (h *Handler) GetSportCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.sportsClient.Categories(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// GetSportStream handles GET /api/v1/sports/stream/{source}/{id}
func (h *Handler) GetSportStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	streams, err := h.sportsClient.GetStream(r.Context(), vars["source"], vars["id"])
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"streams": streams})
}

// StartSportsPoll handles POST /api/v1/sports/poll/{category}. Opening the
// sports view starts the poll; it is torn down by StopSportsPoll.
func (h *Handler) StartSportsPoll(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	if err := h.refresher.Start(category); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":  true,
		"category": category,
	})
}

// StopSportsPoll handles DELETE /api/v1/sports/poll
func (h *Handler) StopSportsPoll(w http.ResponseWriter, r *http.Request) {
	h.refresher.Stop()
	respondJSON(w, http.StatusOK, map[string]bool{"running": false})
}

// GetSportsPoll handles GET /api/v1/sports/poll, the latest polled
// fixture list.
func (h *Handler) GetSportsPoll(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":  h.refresher.Running(),
		"fixtures": sports.Filter(h.refresher.Latest(), r.URL.Query().Get("q")),
	})
}
