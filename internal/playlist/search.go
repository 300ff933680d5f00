package playlist

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/alorle/iptv-player/internal/channel"
)

// Search returns the channels whose name fuzzily matches query, closest
// match first. Matching ignores case and diacritics.
func (c *Catalog) Search(query string) []channel.Channel {
	query = strings.TrimSpace(query)
	if query == "" || len(c.channels) == 0 {
		return nil
	}

	names := make([]string, len(c.channels))
	for i, ch := range c.channels {
		names[i] = ch.Name()
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]channel.Channel, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, c.channels[r.OriginalIndex])
	}
	return out
}
