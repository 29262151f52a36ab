package shield

import (
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// State is the shield's operating mode.
type State string

const (
	// Armed restricts the embed surface: no top-level navigation.
	Armed State = "armed"
	// Disarmed lifts the restriction; popups are still intercepted.
	Disarmed State = "disarmed"
)

// Clipboard receives blocked destinations for user convenience. Production
// wiring binds it to the client clipboard; tests use a recording fake.
type Clipboard interface {
	Write(text string) error
}

// Surface is the embed render surface. Toggling the shield reloads it,
// because sandbox restrictions cannot change on an already-loaded embed.
type Surface interface {
	Reload()
}

// armedSandboxTokens is the capability set granted to the embed while
// Armed. Top-level navigation is deliberately absent.
var armedSandboxTokens = []string{
	"allow-forms",
	"allow-pointer-lock",
	"allow-same-origin",
	"allow-scripts",
	"allow-presentation",
}

// backToBrowseAnchorID is the one off-origin control exempt from anchor
// interception.
const backToBrowseAnchorID = "backToBrowse"

// Shield contains popups and redirects originating from the adversarial
// embedded player. It owns the block log and the Armed/Disarmed state for
// one viewing session.
type Shield struct {
	origin    string
	clipboard Clipboard
	surface   Surface
	blocked   *BlockLog
	log       zerolog.Logger

	mu    sync.RWMutex
	state State
}

// New creates a shield in the Armed state. origin is the hosting page's
// origin (scheme://host) used for anchor-click policy. clipboard and
// surface may be nil.
func New(origin string, clipboard Clipboard, surface Surface, log zerolog.Logger) *Shield {
	return &Shield{
		origin:    origin,
		clipboard: clipboard,
		surface:   surface,
		blocked:   NewBlockLog(),
		log:       log,
		state:     Armed,
	}
}

// State returns the current operating mode.
func (s *Shield) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsArmed reports whether the shield is in its restrictive mode.
func (s *Shield) IsArmed() bool {
	return s.State() == Armed
}

// Toggle flips Armed ⇄ Disarmed and reloads the embed surface so the new
// restriction takes effect.
func (s *Shield) Toggle() State {
	s.mu.Lock()
	if s.state == Armed {
		s.state = Disarmed
	} else {
		s.state = Armed
	}
	next := s.state
	s.mu.Unlock()

	s.log.Info().Str("state", string(next)).Msg("shield toggled")
	if s.surface != nil {
		s.surface.Reload()
	}
	return next
}

// SandboxTokens returns the capability tokens for the embed surface in the
// current state. Nil means the restriction is lifted entirely.
func (s *Shield) SandboxTokens() []string {
	if s.IsArmed() {
		tokens := make([]string, len(armedSandboxTokens))
		copy(tokens, armedSandboxTokens)
		return tokens
	}
	return nil
}

// RequestPopup intercepts a popup-open attempt. The destination is never
// opened, regardless of state; it is logged once per distinct URL and
// copied to the clipboard.
func (s *Shield) RequestPopup(dest string) {
	if !s.blocked.Add(dest) {
		return
	}

	s.log.Info().Str("url", dest).Msg("blocked popup attempt")

	if s.clipboard != nil {
		if err := s.clipboard.Write(dest); err != nil {
			s.log.Warn().Err(err).Msg("clipboard write failed")
		}
	}
}

// RequestConfirm auto-dismisses a native confirmation prompt, always
// answering cancel. Prompts matching the VPN nag pattern are additionally
// recorded in the block log.
func (s *Shield) RequestConfirm(message string) bool {
	s.log.Debug().Str("message", message).Msg("auto-cancelled confirmation dialog")

	if strings.Contains(strings.ToLower(message), "vpn") {
		s.blocked.Add("Blocked VPN Prompt: " + message)
	}
	return false
}

// AllowAnchor decides whether an anchor click on the hosting page may be
// followed. Same-origin targets and the whitelisted back-to-browse control
// pass; any other off-origin destination is blocked and logged.
func (s *Shield) AllowAnchor(href, anchorID string) bool {
	u, err := url.Parse(href)
	if err != nil {
		s.blocked.Add(href)
		return false
	}

	if u.Scheme+"://"+u.Host == s.origin || !u.IsAbs() {
		return true
	}
	if anchorID == backToBrowseAnchorID {
		return true
	}

	if s.blocked.Add(href) {
		s.log.Info().Str("url", href).Msg("blocked off-origin navigation")
	}
	return false
}

// BlockedURLs returns the block log, most recent first.
func (s *Shield) BlockedURLs() []string {
	return s.blocked.Entries()
}

// ClearBlocked empties the block log.
func (s *Shield) ClearBlocked() {
	s.blocked.Clear()
}
