package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

var errDeviceRequired = errors.New("device id required")

const (
	evictIdle     = "idle"
	evictCapacity = "capacity"
)

type registryEntry struct {
	session  *Session
	lastSeen time.Time
}

// Registry hands out one Session per device and closes sessions that have
// been idle longer than the configured TTL. When maxSessions is positive and
// a new device would exceed it, the least recently seen session is closed.
type Registry struct {
	store       persister
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
	closed   bool
}

// NewRegistry builds a registry whose sessions persist through store.
// maxSessions <= 0 leaves the number of sessions unbounded.
func NewRegistry(store persister, idleTTL time.Duration, maxSessions int, logg *logger.Logger, m *metrics.CartMetrics) *Registry {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		store:       store,
		logg:        logg,
		metrics:     m,
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*registryEntry),
	}
}

// Session returns the session of deviceID, creating it on first use.
func (r *Registry) Session(deviceID string) (*Session, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, errDeviceRequired
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrSessionClosed
	}
	var evicted *Session
	entry, ok := r.sessions[deviceID]
	if !ok {
		if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
			evicted = r.evictOldestLocked()
		}
		entry = &registryEntry{session: NewSession(deviceID, r.store, r.logg, r.metrics)}
		r.sessions[deviceID] = entry
	}
	entry.lastSeen = r.now()
	session := entry.session
	r.mu.Unlock()

	if evicted != nil {
		r.metrics.AddSessionEvictions(evictCapacity, 1)
		r.closeEvicted(context.Background(), evicted)
	}
	return session, nil
}

func (r *Registry) evictOldestLocked() *Session {
	var (
		oldestID string
		oldest   *registryEntry
	)
	for deviceID, entry := range r.sessions {
		if oldest == nil || entry.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = deviceID, entry
		}
	}
	if oldest == nil {
		return nil
	}
	delete(r.sessions, oldestID)
	return oldest.session
}

func (r *Registry) closeEvicted(ctx context.Context, session *Session) {
	if err := session.Close(); err != nil {
		r.logg.WarnErr(r.logg.WithDeviceID(ctx, session.DeviceID()), "evicted cart session had failed saves", err)
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were evicted.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for deviceID, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry.session)
			delete(r.sessions, deviceID)
		}
	}
	r.mu.Unlock()

	for _, session := range idle {
		r.closeEvicted(ctx, session)
	}
	r.metrics.AddSessionEvictions(evictIdle, len(idle))
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(ctx); n > 0 {
				r.logg.Debug(r.logg.WithField(ctx, "evicted", n), "cart sessions evicted")
			}
		}
	}
}

// Close drains and closes every session.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, entry := range r.sessions {
		sessions = append(sessions, entry.session)
	}
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	var errs error
	for _, session := range sessions {
		errs = multierr.Append(errs, session.Close())
	}
	return errs
}
