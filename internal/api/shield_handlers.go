package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/moshtv/moshport/internal/shield"
)

func (h *Handler) sessionShield(r *http.Request) (*shield.Shield, bool) {
	return h.shieldMgr.Get(mux.Vars(r)["id"])
}

// GetShieldState handles GET /api/v1/player/{id}/shield
func (h *Handler) GetShieldState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":   string(s.State()),
		"sandbox": s.SandboxTokens(),
		"blocked": s.BlockedURLs(),
	})
}

// ToggleShield handles POST /api/v1/player/{id}/shield/toggle
func (h *Handler) ToggleShield(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	next := s.Toggle()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":   string(next),
		"sandbox": s.SandboxTokens(),
	})
}

// ReportPopup handles POST /api/v1/player/{id}/shield/popup. The embed's
// popup attempt is reported here; it is never opened.
func (h *Handler) ReportPopup(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.RequestPopup(req.URL)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"opened":  false,
		"blocked": s.BlockedURLs(),
	})
}

// ReportConfirm handles POST /api/v1/player/{id}/shield/confirm. The
// answer is always cancel.
func (h *Handler) ReportConfirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"confirmed": s.RequestConfirm(req.Message),
	})
}

// CheckAnchor handles POST /api/v1/player/{id}/shield/anchor, the policy
// decision for an anchor click on the hosting page.
func (h *Handler) CheckAnchor(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Href     string `json:"href"`
		AnchorID string `json:"anchorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"allowed": s.AllowAnchor(req.Href, req.AnchorID),
	})
}

// GetBlockLog handles GET /api/v1/player/{id}/shield/blocklog
func (h *Handler) GetBlockLog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blocked": s.BlockedURLs(),
	})
}

// ClearBlockLog handles DELETE /api/v1/player/{id}/shield/blocklog
func (h *Handler) ClearBlockLog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionShield(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	s.ClearBlocked()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
