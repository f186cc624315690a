package domain

import "time"

type ChannelID string
type ConnID string

// Channel groups one broadcaster and its viewers for signaling.
type Channel struct {
	ID           ChannelID
	Broadcaster  ConnID
	Viewers      map[ConnID]struct{}
	Aliases      map[ConnID]string
	CreatedAt    time.Time
	LastActivity time.Time
}

// HasViewer reports whether conn is in the channel's viewer set.
func (c *Channel) HasViewer(conn ConnID) bool {
	_, ok := c.Viewers[conn]
	return ok
}

// ViewerList returns the viewer set as a slice.
func (c *Channel) ViewerList() []ConnID {
	viewers := make([]ConnID, 0, len(c.Viewers))
	for v := range c.Viewers {
		viewers = append(viewers, v)
	}
	return viewers
}

// Clone returns a deep copy so callers never hold live registry state.
func (c *Channel) Clone() *Channel {
	clone := &Channel{
		ID:           c.ID,
		Broadcaster:  c.Broadcaster,
		Viewers:      make(map[ConnID]struct{}, len(c.Viewers)),
		Aliases:      make(map[ConnID]string, len(c.Aliases)),
		CreatedAt:    c.CreatedAt,
		LastActivity: c.LastActivity,
	}
	for v := range c.Viewers {
		clone.Viewers[v] = struct{}{}
	}
	for v, alias := range c.Aliases {
		clone.Aliases[v] = alias
	}
	return clone
}

// ChannelInfo is the directory entry exposed to viewers browsing channels.
type ChannelInfo struct {
	ID           ChannelID `json:"id"`
	Broadcaster  ConnID    `json:"broadcaster_id"`
	CreatedAt    time.Time `json:"created_at"`
	AgeSeconds   int       `json:"age_seconds"`
	LastActivity time.Time `json:"last_activity"`
}
