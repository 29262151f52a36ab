package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/moshtv/moshport/internal/models"
)

const defaultActorURL = "https://api.apify.com/v2/acts/shahidirfan~themoviedb-scraper/run-sync-get-dataset-items"

// ErrNoToken means the server-held scraper credential is not configured.
var ErrNoToken = errors.New("scraper token not configured")

// Client calls the third-party catalog scraping actor. The token never
// leaves the server; browsers go through the /api/tmdb-scraper proxy.
type Client struct {
	token      string
	actorURL   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a scraper client. token may be empty; calls then fail
// with ErrNoToken.
func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		token:    token,
		actorURL: defaultActorURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// HasToken reports whether the credential is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

type actorPayload struct {
	SearchQueries string             `json:"searchQueries"`
	ResultsWanted int                `json:"resultsWanted"`
	ContentType   string             `json:"contentType"`
	UseAPIFirst   bool               `json:"useApiFirst"`
	Proxy         actorProxySettings `json:"proxyConfiguration"`
}

type actorProxySettings struct {
	UseApifyProxy bool `json:"useApifyProxy"`
}

// SearchRaw runs the actor synchronously and returns the raw candidate
// array, for the pass-through proxy endpoint.
func (c *Client) SearchRaw(ctx context.Context, titleName string, kind models.MediaKind) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	contentType := string(kind)
	if contentType == "" {
		contentType = "movie"
	}

	payload, err := json.Marshal(actorPayload{
		SearchQueries: titleName,
		ResultsWanted: 20,
		ContentType:   contentType,
		UseAPIFirst:   true,
		Proxy:         actorProxySettings{UseApifyProxy: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor payload: %w", err)
	}

	url := fmt.Sprintf("%s?token=%s", c.actorURL, c.token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call scraper actor: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read actor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("scraper actor returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Search runs the actor and decodes the candidate list.
func (c *Client) Search(ctx context.Context, titleName string, kind models.MediaKind) ([]Candidate, error) {
	body, err := c.SearchRaw(ctx, titleName, kind)
	if err != nil {
		return nil, err
	}

	candidates, err := ParseCandidates(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}

	c.log.Debug().Str("title", titleName).Int("candidates", len(candidates)).Msg("scraper search complete")
	return candidates, nil
}

// SetActorURL overrides the actor endpoint, used in tests.
func (c *Client) SetActorURL(url string) {
	c.actorURL = url
}
