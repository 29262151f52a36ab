package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/scraper"
)

type scraperRequest struct {
	TitleName   string `json:"titleName"`
	ContentType string `json:"contentType"`
}

// ScraperProxy handles /api/tmdb-scraper. The scraper credential stays on
// the server; clients post a title and get the raw candidate array back.
// Non-POST requests get 405, a missing server credential gets 500.
func (h *Handler) ScraperProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !h.scraper.HasToken() {
		respondError(w, http.StatusInternalServerError, "Apify API token not configured on server")
		return
	}

	var req scraperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TitleName == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	kind := models.MediaKind(req.ContentType)
	raw, err := h.scraper.SearchRaw(r.Context(), req.TitleName, kind)
	if err != nil {
		if errors.Is(err, scraper.ErrNoToken) {
			respondError(w, http.StatusInternalServerError, "Apify API token not configured on server")
			return
		}
		h.log.Warn().Err(err).Str("title", req.TitleName).Msg("scraper proxy call failed")
		respondError(w, http.StatusBadGateway, "scraper request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
