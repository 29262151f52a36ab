package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/moshtv/moshport/internal/player"
)

// sessionClipboard records the last blocked destination copied for the
// user, the server-side stand-in for the client clipboard.
type sessionClipboard struct {
	mu   sync.Mutex
	last string
}

func (c *sessionClipboard) Write(text string) error {
	c.mu.Lock()
	c.last = text
	c.mu.Unlock()
	return nil
}

func (c *sessionClipboard) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// CreatePlayerSession handles POST /api/v1/player. The page query
// parameters arrive as the request's query string.
func (h *Handler) CreatePlayerSession(w http.ResponseWriter, r *http.Request) {
	id, sess := player.NewSession(h.metaClient, h.resolver, h.builder, h.shieldMgr, &sessionClipboard{}, h.log)

	if err := sess.Init(r.Context(), r.URL.Query()); err != nil {
		h.shieldMgr.Remove(id)
		if errors.Is(err, player.ErrNoTitle) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusNotFound, "Stream not found for this title")
		return
	}

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": id,
		"state":     sess.Snapshot(),
	})
}

func (h *Handler) session(r *http.Request) (*player.Session, bool) {
	id := mux.Vars(r)["id"]
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// GetPlayerSession handles GET /api/v1/player/{id}
func (h *Handler) GetPlayerSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// ClosePlayerSession handles DELETE /api/v1/player/{id}
func (h *Handler) ClosePlayerSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	h.shieldMgr.Remove(id)

	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// SelectSeason handles POST /api/v1/player/{id}/season
func (h *Handler) SelectSeason(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Season int `json:"season"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.SelectSeason(r.Context(), req.Season); err != nil {
		h.log.Warn().Err(err).Int("season", req.Season).Msg("season switch failed")
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// SelectEpisode handles POST /api/v1/player/{id}/episode
func (h *Handler) SelectEpisode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Episode int `json:"episode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SelectEpisode(req.Episode)
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// ToggleKind handles POST /api/v1/player/{id}/toggle
func (h *Handler) ToggleKind(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.ToggleKind()
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// PlayerMessage handles POST /api/v1/player/{id}/message, forwarding a
// provider postMessage payload to the session.
func (h *Handler) PlayerMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	advanced := sess.HandlePlayerMessage(data)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"advanced": advanced,
		"state":    sess.Snapshot(),
	})
}

// ShareLink handles GET /api/v1/player/{id}/share
func (h *Handler) ShareLink(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"query": sess.ShareQuery().Encode(),
	})
}
