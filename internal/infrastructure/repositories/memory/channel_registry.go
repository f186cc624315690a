package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/ports"

	"github.com/google/uuid"
)

const generatedIDLength = 8

// EvictionHandler is called for every channel the registry drops on TTL
// expiry, after the registry lock has been released. Handlers get the final
// snapshot and typically notify the channel's viewers.
type EvictionHandler func(*domain.Channel)

// ChannelRegistry is the in-memory implementation of ports.ChannelRegistry.
// Expired entries are purged lazily on every access; there is no background
// sweep. Capacity is a hard bound: live channels are never dropped to admit
// a new one.
type ChannelRegistry struct {
	channels map[domain.ChannelID]*domain.Channel
	mu       sync.RWMutex

	maxChannels int
	ttl         time.Duration

	onEvict EvictionHandler

	// now is swapped out in tests
	now func() time.Time
}

var _ ports.ChannelRegistry = (*ChannelRegistry)(nil)

func NewChannelRegistry(maxChannels int, ttl time.Duration) *ChannelRegistry {
	return &ChannelRegistry{
		channels:    make(map[domain.ChannelID]*domain.Channel),
		maxChannels: maxChannels,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SetEvictionHandler installs the TTL-eviction callback. Must be called
// during wiring, before the registry is shared between goroutines.
func (r *ChannelRegistry) SetEvictionHandler(fn EvictionHandler) {
	r.onEvict = fn
}

func (r *ChannelRegistry) Create(ctx context.Context, id domain.ChannelID, owner domain.ConnID) (*domain.Channel, error) {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()

	if id == "" {
		id = r.generateIDLocked()
	} else if _, exists := r.channels[id]; exists {
		r.mu.Unlock()
		r.notifyEvicted(expired)
		return nil, domain.ErrChannelExists
	}

	if len(r.channels) >= r.maxChannels {
		r.mu.Unlock()
		r.notifyEvicted(expired)
		return nil, domain.ErrCapacityExceeded
	}

	now := r.now()
	ch := &domain.Channel{
		ID:           id,
		Broadcaster:  owner,
		Viewers:      make(map[domain.ConnID]struct{}),
		Aliases:      make(map[domain.ConnID]string),
		CreatedAt:    now,
		LastActivity: now,
	}
	r.channels[id] = ch
	snap := ch.Clone()
	r.mu.Unlock()

	r.notifyEvicted(expired)
	return snap, nil
}

func (r *ChannelRegistry) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	ch, ok := r.channels[id]
	var snap *domain.Channel
	if ok {
		snap = ch.Clone()
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return snap, nil
}

func (r *ChannelRegistry) Touch(ctx context.Context, id domain.ChannelID) error {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	ch, ok := r.channels[id]
	if ok {
		ch.LastActivity = r.now()
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	if !ok {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *ChannelRegistry) TouchByMember(ctx context.Context, conn domain.ConnID) bool {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	touched := false
	for _, ch := range r.channels {
		if ch.Broadcaster == conn || ch.HasViewer(conn) {
			ch.LastActivity = r.now()
			touched = true
			break
		}
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	return touched
}

func (r *ChannelRegistry) Remove(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	ch, ok := r.channels[id]
	var snap *domain.Channel
	if ok {
		snap = ch.Clone()
		delete(r.channels, id)
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return snap, nil
}

func (r *ChannelRegistry) List(ctx context.Context) []domain.ChannelInfo {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	now := r.now()
	infos := make([]domain.ChannelInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		infos = append(infos, domain.ChannelInfo{
			ID:           ch.ID,
			Broadcaster:  ch.Broadcaster,
			CreatedAt:    ch.CreatedAt,
			AgeSeconds:   int(now.Sub(ch.CreatedAt).Seconds()),
			LastActivity: ch.LastActivity,
		})
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (r *ChannelRegistry) AddViewer(ctx context.Context, id domain.ChannelID, conn domain.ConnID) (*domain.Channel, error) {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	ch, ok := r.channels[id]
	var snap *domain.Channel
	var err error
	switch {
	case !ok:
		err = domain.ErrChannelNotFound
	case ch.Broadcaster == conn:
		err = domain.ErrNotViewer
	default:
		// A connection watches at most one channel at a time.
		for _, other := range r.channels {
			if other.ID != id && other.HasViewer(conn) {
				delete(other.Viewers, conn)
				delete(other.Aliases, conn)
			}
		}
		ch.Viewers[conn] = struct{}{}
		ch.LastActivity = r.now()
		snap = ch.Clone()
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *ChannelRegistry) SetAlias(ctx context.Context, id domain.ChannelID, conn domain.ConnID, alias string) error {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	ch, ok := r.channels[id]
	var err error
	switch {
	case !ok:
		err = domain.ErrChannelNotFound
	case !ch.HasViewer(conn):
		err = domain.ErrNotViewer
	default:
		ch.Aliases[conn] = alias
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	return err
}

func (r *ChannelRegistry) DropConnection(ctx context.Context, conn domain.ConnID) []*domain.Channel {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	var closed []*domain.Channel
	for id, ch := range r.channels {
		if ch.Broadcaster == conn {
			closed = append(closed, ch.Clone())
			delete(r.channels, id)
		} else if ch.HasViewer(conn) {
			delete(ch.Viewers, conn)
			delete(ch.Aliases, conn)
		}
	}
	r.mu.Unlock()

	r.notifyEvicted(expired)
	return closed
}

func (r *ChannelRegistry) Len(ctx context.Context) int {
	r.mu.Lock()
	expired := r.purgeExpiredLocked()
	n := len(r.channels)
	r.mu.Unlock()

	r.notifyEvicted(expired)
	return n
}

// purgeExpiredLocked removes every channel whose inactivity exceeds the TTL
// and returns their final snapshots. Callers must hold the write lock and
// deliver the snapshots to notifyEvicted after releasing it.
func (r *ChannelRegistry) purgeExpiredLocked() []*domain.Channel {
	now := r.now()
	var expired []*domain.Channel
	for id, ch := range r.channels {
		if now.Sub(ch.LastActivity) > r.ttl {
			expired = append(expired, ch.Clone())
			delete(r.channels, id)
		}
	}
	return expired
}

// notifyEvicted runs the eviction handler outside the registry lock so that
// handlers may perform network sends.
func (r *ChannelRegistry) notifyEvicted(expired []*domain.Channel) {
	if r.onEvict == nil {
		return
	}
	for _, ch := range expired {
		r.onEvict(ch)
	}
}

func (r *ChannelRegistry) generateIDLocked() domain.ChannelID {
	for {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		id := domain.ChannelID(raw[:generatedIDLength])
		if _, exists := r.channels[id]; !exists {
			return id
		}
	}
}
