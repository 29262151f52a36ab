package sports

import (
	"strings"

	"github.com/moshtv/moshport/internal/models"
)

// Filter returns fixtures whose title, home or away team name, or category
// case-insensitively contains the query. An empty query matches everything.
// An empty result is an empty slice, which callers render as "No events
// found" rather than an empty grid.
func Filter(fixtures []models.SportsFixture, query string) []models.SportsFixture {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return fixtures
	}

	matched := make([]models.SportsFixture, 0)
	for _, f := range fixtures {
		if fixtureMatches(f, query) {
			matched = append(matched, f)
		}
	}
	return matched
}

func fixtureMatches(f models.SportsFixture, query string) bool {
	if strings.Contains(strings.ToLower(f.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(f.Category), query) {
		return true
	}
	if f.Teams != nil {
		if f.Teams.Home != nil && strings.Contains(strings.ToLower(f.Teams.Home.Name), query) {
			return true
		}
		if f.Teams.Away != nil && strings.Contains(strings.ToLower(f.Teams.Away.Name), query) {
			return true
		}
	}
	return false
}
