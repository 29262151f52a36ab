package embed

import (
	"encoding/json"

	"github.com/moshtv/moshport/internal/models"
)

// EventKind is the normalized playback lifecycle event shape. Providers
// emit two different postMessage formats; both decode to this.
type EventKind string

const (
	EventEnded    EventKind = "ended"
	EventProgress EventKind = "progress"
)

// PlayerEvent is a normalized inbound player message.
type PlayerEvent struct {
	Kind EventKind `json:"kind"`
}

type rawPlayerMessage struct {
	Type string `json:"type"`
	Data struct {
		Event string `json:"event"`
	} `json:"data"`
}

// DecodePlayerEvent normalizes a provider postMessage payload. Supported
// shapes: a bare {"type":"video_ended"} and a nested
// {"type":"PLAYER_EVENT","data":{"event":"ended"|...}}. Returns false for
// anything else.
func DecodePlayerEvent(data []byte) (PlayerEvent, bool) {
	var msg rawPlayerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return PlayerEvent{}, false
	}

	switch msg.Type {
	case "video_ended":
		return PlayerEvent{Kind: EventEnded}, true
	case "PLAYER_EVENT":
		if msg.Data.Event == "ended" {
			return PlayerEvent{Kind: EventEnded}, true
		}
		if msg.Data.Event != "" {
			return PlayerEvent{Kind: EventProgress}, true
		}
	}

	return PlayerEvent{}, false
}

// NextEpisode advances a position by one episode within the current season.
// Returns false when the position is already at the last known episode.
func NextEpisode(pos models.PlaybackPosition, episodeCount int) (models.PlaybackPosition, bool) {
	pos = pos.Normalize()
	if pos.Episode+1 > episodeCount {
		return pos, false
	}
	pos.Episode++
	return pos, true
}
