package sports

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/models"
)

// Refresher polls the fixture list on a fixed cadence while the sports
// view is visible. Start/Stop are tied to the view's lifecycle so a torn
// down view never leaves a timer running. A generation stamp guards
// against a slow response overwriting the result of a newer request
// (category change, manual refresh).
type Refresher struct {
	client   *Client
	interval time.Duration
	log      zerolog.Logger

	gen atomic.Uint64

	mu       sync.RWMutex
	cron     *cron.Cron
	category string
	latest   []models.SportsFixture
}

// NewRefresher creates a stopped refresher.
func NewRefresher(client *Client, interval time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

// Start begins polling for the given category ("all" means live fixtures
// across every sport) and performs one immediate fetch. Calling Start on a
// running refresher switches the category.
func (r *Refresher) Start(category string) error {
	r.mu.Lock()
	r.category = category
	if r.cron == nil {
		c := cron.New()
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), r.refresh); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("failed to schedule fixture poll: %w", err)
		}
		c.Start()
		r.cron = c
	}
	r.mu.Unlock()

	r.refresh()
	return nil
}

// Stop tears the poll down. Safe to call when not running.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
}

// Running reports whether the poll is active.
func (r *Refresher) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cron != nil
}

// Latest returns the most recently fetched fixture list.
func (r *Refresher) Latest() []models.SportsFixture {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SportsFixture, len(r.latest))
	copy(out, r.latest)
	return out
}

func (r *Refresher) refresh() {
	gen := r.gen.Add(1)

	r.mu.RLock()
	category := r.category
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	var fixtures []models.SportsFixture
	var err error
	if category == "" || category == "all" {
		fixtures, err = r.client.Live(ctx)
	} else {
		fixtures, err = r.client.ByCategory(ctx, category)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("category", category).Msg("fixture refresh failed")
		return
	}

	// A newer request started while this one was in flight; its result
	// wins, this one is stale.
	if r.gen.Load() != gen {
		r.log.Debug().Str("category", category).Msg("discarding stale fixture response")
		return
	}

	r.mu.Lock()
	r.latest = fixtures
	r.mu.Unlock()
}
