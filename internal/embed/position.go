package embed

import (
	"net/url"
	"strconv"

	"github.com/moshtv/moshport/internal/models"
)

// ParsePosition reads season/episode from page query parameters. Absent or
// unparsable values default to 1.
func ParsePosition(q url.Values) models.PlaybackPosition {
	return models.PlaybackPosition{
		Season:  atoiOrOne(q.Get("s")),
		Episode: atoiOrOne(q.Get("e")),
	}
}

func atoiOrOne(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ReflectPosition writes season/episode back into a query parameter set so
// the page's addressable location preserves playback position across
// reload/share without a full navigation.
func ReflectPosition(q url.Values, pos models.PlaybackPosition) url.Values {
	pos = pos.Normalize()
	q.Set("s", strconv.Itoa(pos.Season))
	q.Set("e", strconv.Itoa(pos.Episode))
	return q
}
