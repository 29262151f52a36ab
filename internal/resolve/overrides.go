package resolve

import "github.com/moshtv/moshport/internal/models"

// defaultOverrides pins titles the search proxy systematically mis-resolves.
// Keys are normalized (lowercased, trimmed) titles.
var defaultOverrides = map[string]models.CatalogMatch{
	"rick and morty": {ID: "60625", Kind: models.KindTV},
	"mr. young":      {ID: "37731", Kind: models.KindTV},
}

// DefaultOverrides returns a copy of the built-in override table.
func DefaultOverrides() map[string]models.CatalogMatch {
	out := make(map[string]models.CatalogMatch, len(defaultOverrides))
	for k, v := range defaultOverrides {
		out[k] = v
	}
	return out
}
