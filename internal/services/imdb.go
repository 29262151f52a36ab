package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/moshtv/moshport/internal/cache"
	"github.com/moshtv/moshport/internal/models"
)

const metadataCacheTTL = 5 * time.Minute

// MetadataClient reads title metadata from the IMDb-style API. All calls
// are read-only; responses are cached briefly through the request cache.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
	store      *cache.Store
	log        zerolog.Logger
}

// NewMetadataClient creates a metadata client. store may be nil to disable
// response caching.
func NewMetadataClient(baseURL string, store *cache.Store, log zerolog.Logger) *MetadataClient {
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		store: store,
		log:   log,
	}
}

type titleResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	PrimaryTitle  string `json:"primaryTitle"`
	OriginalTitle string `json:"originalTitle"`
	StartYear     int    `json:"startYear"`
	Plot          string `json:"plot"`
	PrimaryImage  *struct {
		URL string `json:"url"`
	} `json:"primaryImage"`
	Rating *struct {
		AggregateRating float64 `json:"aggregateRating"`
	} `json:"rating"`
}

func (t *titleResponse) toRecord() *models.TitleRecord {
	rec := &models.TitleRecord{
		ID:            t.ID,
		PrimaryTitle:  t.PrimaryTitle,
		OriginalTitle: t.OriginalTitle,
		Type:          t.Type,
		StartYear:     t.StartYear,
		Plot:          t.Plot,
	}
	if t.PrimaryImage != nil {
		rec.PosterURL = t.PrimaryImage.URL
	}
	if t.Rating != nil {
		rec.Rating = t.Rating.AggregateRating
	}
	return rec
}

// GetTitle retrieves a title record by its IMDb-style id.
func (c *MetadataClient) GetTitle(ctx context.Context, id string) (*models.TitleRecord, error) {
	data, err := c.get(ctx, fmt.Sprintf("/titles/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var tr titleResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal title: %w", err)
	}

	return tr.toRecord(), nil
}

// GetSeasons lists the seasons of a series.
func (c *MetadataClient) GetSeasons(ctx context.Context, id string) ([]models.SeasonInfo, error) {
	data, err := c.get(ctx, fmt.Sprintf("/titles/%s/seasons", id), nil)
	if err != nil {
		return nil, err
	}

	// Season numbers arrive as strings or numbers depending on the title.
	var result struct {
		Seasons []struct {
			Season       interface{} `json:"season"`
			EpisodeCount int         `json:"episodeCount"`
		} `json:"seasons"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seasons: %w", err)
	}

	seasons := make([]models.SeasonInfo, 0, len(result.Seasons))
	for _, s := range result.Seasons {
		seasons = append(seasons, models.SeasonInfo{
			Season:       cast.ToInt(s.Season),
			EpisodeCount: s.EpisodeCount,
		})
	}

	return seasons, nil
}

// GetEpisodes lists the episodes of one season of a series.
func (c *MetadataClient) GetEpisodes(ctx context.Context, id string, season int) ([]models.EpisodeInfo, error) {
	params := url.Values{}
	params.Set("season", fmt.Sprintf("%d", season))

	data, err := c.get(ctx, fmt.Sprintf("/titles/%s/episodes", id), params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Episodes []struct {
			EpisodeNumber int         `json:"episodeNumber"`
			Title         string      `json:"title"`
			Season        interface{} `json:"season"`
		} `json:"episodes"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episodes: %w", err)
	}

	episodes := make([]models.EpisodeInfo, 0, len(result.Episodes))
	for _, e := range result.Episodes {
		episodes = append(episodes, models.EpisodeInfo{
			EpisodeNumber: e.EpisodeNumber,
			Title:         e.Title,
			Season:        cast.ToInt(e.Season),
		})
	}

	return episodes, nil
}

// ListTitles reads a sorted title listing, e.g. most popular or most
// recent. sortOrder may be empty.
func (c *MetadataClient) ListTitles(ctx context.Context, sortBy, sortOrder string, limit int) ([]*models.TitleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("sortBy", sortBy)
	if sortOrder != "" {
		params.Set("sortOrder", sortOrder)
	}
	params.Set("limit", fmt.Sprintf("%d", limit))

	data, err := c.get(ctx, "/titles", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Titles []titleResponse `json:"titles"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal title listing: %w", err)
	}

	titles := make([]*models.TitleRecord, 0, len(result.Titles))
	for i := range result.Titles {
		titles = append(titles, result.Titles[i].toRecord())
	}

	return titles, nil
}

// SearchTitles searches title metadata by free-text query.
func (c *MetadataClient) SearchTitles(ctx context.Context, query string, limit int) ([]*models.TitleRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	data, err := c.get(ctx, "/search/titles", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Titles []titleResponse `json:"titles"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
	}

	titles := make([]*models.TitleRecord, 0, len(result.Titles))
	for i := range result.Titles {
		titles = append(titles, result.Titles[i].toRecord())
	}

	return titles, nil
}

// get performs a cached HTTP GET against the metadata API.
func (c *MetadataClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	cacheKey := "meta:" + u
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
		return nil, fmt.Errorf("failed to call metadata API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata API returned status %d for %s", resp.StatusCode, u)
	}

	if c.store != nil {
		c.store.Set(ctx, cacheKey, data, metadataCacheTTL)
	}

	return data, nil
}
