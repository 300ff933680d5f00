// Package playlist holds the channel catalog built from a remote playlist,
// the parser for the delimited playlist text format and the canonical JSON
// form the catalog is persisted and compared in.
package playlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alorle/iptv-player/internal/channel"
)

// DefaultName is the name given to catalogs built from the remote playlist.
const DefaultName = "default"

// ErrInvalidCatalog is returned when persisted catalog JSON cannot be decoded.
var ErrInvalidCatalog = errors.New("invalid catalog json")

// Catalog is an immutable snapshot of channels keyed by name, plus the
// grouping derived from each channel's group name. Channel and group order
// follow first appearance.
type Catalog struct {
	name     string
	channels []channel.Channel
	index    map[string]int
	groups   []channel.Group
}

// New builds a catalog from channels. Channels sharing a name are merged into
// the first one, their URLs appended in order.
func New(name string, channels []channel.Channel) *Catalog {
	c := &Catalog{
		name:     name,
		channels: make([]channel.Channel, 0, len(channels)),
		index:    make(map[string]int, len(channels)),
	}

	for _, ch := range channels {
		if i, ok := c.index[ch.Name()]; ok {
			merged := c.channels[i]
			for _, u := range ch.URLs() {
				merged = merged.WithURL(u)
			}
			c.channels[i] = merged
			continue
		}
		c.index[ch.Name()] = len(c.channels)
		c.channels = append(c.channels, ch)
	}

	groupOrder := make([]string, 0)
	members := make(map[string][]channel.Channel)
	for _, ch := range c.channels {
		g := ch.GroupName()
		if _, seen := members[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		members[g] = append(members[g], ch)
	}
	c.groups = make([]channel.Group, 0, len(groupOrder))
	for _, g := range groupOrder {
		c.groups = append(c.groups, channel.NewGroup(g, members[g]))
	}

	return c
}

// Empty returns the built-in fallback catalog with no channels.
func Empty() *Catalog {
	return New(DefaultName, nil)
}

// Name returns the catalog's name.
func (c *Catalog) Name() string {
	return c.name
}

// Len returns the number of channels.
func (c *Catalog) Len() int {
	return len(c.channels)
}

// Channels returns a copy of all channels.
func (c *Catalog) Channels() []channel.Channel {
	out := make([]channel.Channel, len(c.channels))
	copy(out, c.channels)
	return out
}

// Channel looks up a channel by name.
func (c *Catalog) Channel(name string) (channel.Channel, bool) {
	i, ok := c.index[name]
	if !ok {
		return channel.Channel{}, false
	}
	return c.channels[i], true
}

// Groups returns the channel groups in order of first appearance.
func (c *Catalog) Groups() []channel.Group {
	out := make([]channel.Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Group looks up a group by name.
func (c *Catalog) Group(name string) (channel.Group, bool) {
	for _, g := range c.groups {
		if g.Name() == name {
			return g, true
		}
	}
	return channel.Group{}, false
}

// channelJSON is the persisted form of a channel. Field order is part of the
// canonical form and must not change.
type channelJSON struct {
	Name      string   `json:"name"`
	GroupName string   `json:"groupName"`
	URLs      []string `json:"urls"`
}

// MarshalCanonical returns the canonical, pretty-printed JSON array form of
// the catalog. Equal catalogs always produce byte-identical output.
func (c *Catalog) MarshalCanonical() ([]byte, error) {
	dtos := make([]channelJSON, 0, len(c.channels))
	for _, ch := range c.channels {
		dtos = append(dtos, channelJSON{
			Name:      ch.Name(),
			GroupName: ch.GroupName(),
			URLs:      ch.URLs(),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dtos); err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FromJSON rebuilds a catalog from its persisted JSON array form.
// Entries without a name or without any URL are dropped.
func FromJSON(data []byte) (*Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrInvalidCatalog
	}

	var dtos []channelJSON
	if err := json.Unmarshal(trimmed, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	channels := make([]channel.Channel, 0, len(dtos))
	for _, dto := range dtos {
		ch, err := channel.NewChannel(dto.Name, dto.GroupName, dto.URLs...)
		if err != nil {
			continue
		}
		channels = append(channels, ch)
	}

	return New(DefaultName, channels), nil
}
