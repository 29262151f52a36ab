// Command cachegen warms the title resolution cache ahead of time. It
// walks the metadata API's browse categories plus a fixed list of iconic
// shows, resolves each title to its catalog id through the scraper, and
// stores the results so the portal never resolves popular titles at
// request time.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/moshtv/moshport/internal/config"
	"github.com/moshtv/moshport/internal/database"
	"github.com/moshtv/moshport/internal/models"
	"github.com/moshtv/moshport/internal/resolve"
	"github.com/moshtv/moshport/internal/scraper"
	"github.com/moshtv/moshport/internal/services"
	"github.com/moshtv/moshport/pkg/logger"
)

// iconicShows are always warmed regardless of the browse listings.
var iconicShows = []string{
	"The Simpsons",
	"Family Guy",
	"South Park",
	"Futurama",
	"Rick and Morty",
	"American Dad!",
}

type listing struct {
	sortBy    string
	sortOrder string
}

var listings = []listing{
	{"SORT_BY_RELEASE_DATE", "DESC"},
	{"SORT_BY_POPULARITY", ""},
	{"SORT_BY_USER_RATING", "DESC"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()
	log := logger.New(cfg.Debug)

	scraperClient := scraper.NewClient(cfg.ApifyToken, log)
	if !scraperClient.HasToken() {
		log.Fatal().Msg("APIFY_TOKEN is required for cache generation")
	}

	var resolutionCache resolve.Cache
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		store, err := database.NewResolutionStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize resolution store")
		}
		resolutionCache = store
	} else {
		log.Warn().Msg("DATABASE_URL not set, writing tmdb_cache.json only")
	}

	resolver := resolve.New(scraperClient, resolutionCache, log)
	metaClient := services.NewMetadataClient(cfg.MetadataAPIBase, nil, log)

	ctx := context.Background()

	log.Info().Msg("Step 1: gathering titles from metadata API")
	seen := make(map[string]bool)
	type pending struct {
		title string
		year  int
		hint  models.MediaKind
	}
	var queue []pending

	for _, l := range listings {
		titles, err := metaClient.ListTitles(ctx, l.sortBy, l.sortOrder, 20)
		if err != nil {
			log.Warn().Err(err).Str("sort", l.sortBy).Msg("listing fetch failed")
			continue
		}
		for _, t := range titles {
			if seen[t.PrimaryTitle] {
				continue
			}
			seen[t.PrimaryTitle] = true
			hint := models.KindMovie
			if t.IsSeries() {
				hint = models.KindTV
			}
			queue = append(queue, pending{title: t.PrimaryTitle, year: t.StartYear, hint: hint})
		}
	}

	for _, name := range iconicShows {
		if !seen[name] {
			seen[name] = true
			queue = append(queue, pending{title: name, hint: models.KindTV})
		}
	}

	log.Info().Int("titles", len(queue)).Msg("Step 2: resolving catalog ids")
	results := make(map[string]models.CatalogMatch)
	for i, p := range queue {
		match, err := resolver.Resolve(ctx, p.title, p.year, p.hint)
		if err != nil {
			log.Warn().Str("title", p.title).Msg("resolution failed, skipping")
			continue
		}
		results[resolve.NormalizeTitle(p.title)] = match
		log.Info().
			Int("n", i+1).
			Int("total", len(queue)).
			Str("title", p.title).
			Str("id", match.ID).
			Msg("resolved")

		// Stay under the scraper's sync-mode rate limits.
		time.Sleep(500 * time.Millisecond)
	}

	log.Info().Msg("Step 3: writing tmdb_cache.json")
	out := make(map[string]map[string]string, len(results))
	for title, m := range results {
		out[title] = map[string]string{"id": m.ID, "type": string(m.Kind)}
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal cache")
	}
	if err := os.WriteFile("tmdb_cache.json", data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write cache file")
	}

	log.Info().Int("entries", len(results)).Msg("Cache generated successfully")
}
