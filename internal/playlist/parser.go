package playlist

import (
	"strings"

	"github.com/alorle/iptv-player/internal/channel"
)

const (
	// GroupMarker in the URL field turns a line into a group header.
	GroupMarker = "#genre#"

	// LastUpdatedMarker identifies the informational "last updated" group
	// some feeds inject; channels in it are not real channels.
	LastUpdatedMarker = "更新时间"
)

// Parse converts delimited playlist text into a catalog.
//
// Every non-blank line holding a comma is split on its first comma into a
// name and a URL. A URL of "#genre#" starts a new group. Lines with an
// already-seen name append their URL to that channel, duplicates included.
// Lines that cannot form a channel are skipped; Parse never fails.
func Parse(raw string) *Catalog {
	currentGroup := channel.DefaultGroup
	order := make([]string, 0)
	working := make(map[string]channel.Channel)

	lines := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	for _, line := range lines {
		if strings.TrimSpace(line) == "" || !strings.Contains(line, ",") {
			continue
		}

		field0, field1, _ := strings.Cut(line, ",")
		name := strings.TrimSpace(field0)
		url := strings.TrimSpace(field1)

		if url == GroupMarker {
			currentGroup = name
			continue
		}

		if existing, ok := working[name]; ok {
			working[name] = existing.WithURL(url)
			continue
		}

		ch, err := channel.NewChannel(name, currentGroup, url)
		if err != nil {
			continue
		}
		working[ch.Name()] = ch
		order = append(order, ch.Name())
	}

	channels := make([]channel.Channel, 0, len(order))
	for _, name := range order {
		ch := working[name]
		if strings.Contains(ch.GroupName(), LastUpdatedMarker) {
			continue
		}
		channels = append(channels, ch)
	}

	return New(DefaultName, channels)
}
