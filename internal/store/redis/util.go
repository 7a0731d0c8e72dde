package redis

import (
	"sort"
	"time"

	"github.com/gamebattle/arena/internal/elo"
)

// sortPreferences orders by timestamp ascending. Redis SCAN iteration order
// carries no insertion guarantee, so unlike internal/store/memory there is no
// stable tie-break available beyond the timestamp itself.
func sortPreferences(prefs []elo.Preference) {
	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].Timestamp.Before(prefs[j].Timestamp)
	})
}

func unixSeconds(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
