package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/moshtv/moshport/internal/models"
)

// ListOverrides handles GET /api/v1/admin/overrides
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": h.resolver.Overrides(),
	})
}

type overrideRequest struct {
	Title string `json:"title"`
	ID    string `json:"id"`
	Type  string `json:"type"`
}

// PutOverride handles PUT /api/v1/admin/overrides, pinning a title to a
// fixed catalog match.
func (h *Handler) PutOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.ID == "" {
		respondError(w, http.StatusBadRequest, "title and id are required")
		return
	}

	kind := models.MediaKind(req.Type)
	if kind != models.KindTV {
		kind = models.KindMovie
	}

	h.resolver.AddOverride(req.Title, models.CatalogMatch{ID: req.ID, Kind: kind})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": h.resolver.Overrides(),
	})
}

// DeleteOverride handles DELETE /api/v1/admin/overrides/{title}
func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]
	if title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	h.resolver.RemoveOverride(title)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": h.resolver.Overrides(),
	})
}

// ListResolutions handles GET /api/v1/admin/resolutions
func (h *Handler) ListResolutions(w http.ResponseWriter, r *http.Request) {
	if h.resolutions == nil {
		respondError(w, http.StatusServiceUnavailable, "resolution store not configured")
		return
	}

	all, err := h.resolutions.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"resolutions": all})
}

// PruneResolutions handles POST /api/v1/admin/resolutions/prune. The
// optional max_age_hours field defaults to 30 days.
func (h *Handler) PruneResolutions(w http.ResponseWriter, r *http.Request) {
	if h.resolutions == nil {
		respondError(w, http.StatusServiceUnavailable, "resolution store not configured")
		return
	}

	var req struct {
		MaxAgeHours json.Number `json:"max_age_hours"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	hours := cast.ToInt(req.MaxAgeHours.String())
	if hours <= 0 {
		hours = 24 * 30
	}

	removed, err := h.resolutions.Prune(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
