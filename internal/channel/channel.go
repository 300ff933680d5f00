package channel

import (
	"errors"
	"strings"
)

// DefaultGroup is the group assigned to channels that appear before any
// group marker in a playlist.
const DefaultGroup = "default"

// Domain errors
var (
	ErrEmptyName = errors.New("channel name cannot be empty")
	ErrNoURLs    = errors.New("channel must have at least one url")
)

// Channel represents a TV channel in the catalog.
// A channel is identified by its name and carries every stream URL that was
// listed for that name, in the order they were encountered.
// Channels are values: once built they are never mutated in place.
type Channel struct {
	name      string
	groupName string
	urls      []string
}

// NewChannel creates a new Channel with the given name, group and URLs.
// The name is trimmed and must not be empty. At least one URL is required,
// although individual URLs may be empty strings (see PlayableURLs).
func NewChannel(name, groupName string, urls ...string) (Channel, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Channel{}, ErrEmptyName
	}
	if len(urls) == 0 {
		return Channel{}, ErrNoURLs
	}
	cp := make([]string, len(urls))
	copy(cp, urls)
	return Channel{name: trimmed, groupName: groupName, urls: cp}, nil
}

// Name returns the channel's name.
func (c Channel) Name() string {
	return c.name
}

// GroupName returns the name of the group the channel belongs to.
func (c Channel) GroupName() string {
	return c.groupName
}

// URLs returns a copy of every URL listed for the channel, duplicates included.
func (c Channel) URLs() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

// PlayableURLs returns the non-empty URLs in their original order.
func (c Channel) PlayableURLs() []string {
	out := make([]string, 0, len(c.urls))
	for _, u := range c.urls {
		if strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	return out
}

// URL returns the first playable URL, or "" if the channel has none.
func (c Channel) URL() string {
	for _, u := range c.urls {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	return ""
}

// WithURL returns a copy of the channel with url appended to its URL list.
func (c Channel) WithURL(url string) Channel {
	urls := make([]string, len(c.urls), len(c.urls)+1)
	copy(urls, c.urls)
	return Channel{name: c.name, groupName: c.groupName, urls: append(urls, url)}
}

// Equal reports whether two channels have the same name, group and URLs.
func (c Channel) Equal(other Channel) bool {
	if c.name != other.name || c.groupName != other.groupName || len(c.urls) != len(other.urls) {
		return false
	}
	for i := range c.urls {
		if c.urls[i] != other.urls[i] {
			return false
		}
	}
	return true
}

// Group is a display grouping of channels sharing the same group name.
type Group struct {
	name     string
	channels []Channel
}

// NewGroup creates a group holding the given channels.
func NewGroup(name string, channels []Channel) Group {
	cp := make([]Channel, len(channels))
	copy(cp, channels)
	return Group{name: name, channels: cp}
}

// Name returns the group's name.
func (g Group) Name() string {
	return g.name
}

// Channels returns a copy of the group's channels.
func (g Group) Channels() []Channel {
	out := make([]Channel, len(g.channels))
	copy(out, g.channels)
	return out
}

// Len returns the number of channels in the group.
func (g Group) Len() int {
	return len(g.channels)
}
