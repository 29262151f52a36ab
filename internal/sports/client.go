package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/cache"
	"github.com/moshtv/moshport/internal/models"
)

const fixtureCacheTTL = 25 * time.Second

// Client reads live sports fixtures and stream endpoints from the sports
// API. Read-only; responses are cached just under the poll cadence so
// concurrent viewers share one upstream fetch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *cache.Store
	log        zerolog.Logger
}

// NewClient creates a sports API client. store may be nil.
func NewClient(baseURL string, store *cache.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		store: store,
		log:   log,
	}
}

// AllToday returns every fixture scheduled today.
func (c *Client) AllToday(ctx context.Context) ([]models.SportsFixture, error) {
	return c.fixtures(ctx, "/matches/all-today")
}

// Live returns fixtures currently in play.
func (c *Client) Live(ctx context.Context) ([]models.SportsFixture, error) {
	return c.fixtures(ctx, "/matches/live")
}

// ByCategory returns fixtures for one sport category.
func (c *Client) ByCategory(ctx context.Context, category string) ([]models.SportsFixture, error) {
	return c.fixtures(ctx, "/matches/"+category)
}

// Categories returns the sport category navigation list.
func (c *Client) Categories(ctx context.Context) ([]models.SportCategory, error) {
	data, err := c.get(ctx, "/sports")
	if err != nil {
		return nil, err
	}

	var categories []models.SportCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sports list: %w", err)
	}

	return categories, nil
}

// GetStream resolves the playable streams for one fixture source.
func (c *Client) GetStream(ctx context.Context, source, id string) ([]models.SportStream, error) {
	data, err := c.get(ctx, fmt.Sprintf("/stream/%s/%s", source, id))
	if err != nil {
		return nil, err
	}

	var streams []models.SportStream
	if err := json.Unmarshal(data, &streams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal streams: %w", err)
	}

	return streams, nil
}

// BadgeURL returns the image URL for a team badge reference.
func (c *Client) BadgeURL(badge string) string {
	if badge == "" {
		return ""
	}
	return fmt.Sprintf("%s/images/badge/%s.webp", c.baseURL, badge)
}

func (c *Client) fixtures(ctx context.Context, endpoint string) ([]models.SportsFixture, error) {
	data, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var fixtures []models.SportsFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures: %w", err)
	}

	return fixtures, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	u := c.baseURL + endpoint

	cacheKey := "sports:" + u
	if c.store != nil {
		if data, ok := c.store.Get(ctx, cacheKey); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sports API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sports API returned status %d for %s", resp.StatusCode, u)
	}

	if c.store != nil {
		c.store.Set(ctx, cacheKey, data, fixtureCacheTTL)
	}

	return data, nil
}
