package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const DefaultTTL = 4 * time.Hour

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Store keeps sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	clock    clockwork.Clock
}

func NewStore(ttl time.Duration, clock clockwork.Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		clock:    clock,
	}
}

// Create starts a new idle session.
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString())

	st.mu.Lock()
	st.sessions[s.ID] = &entry{session: s, lastSeen: st.clock.Now()}
	st.mu.Unlock()

	slog.Debug("session: created", "session", s.ID)
	return s
}

// Get returns the session and marks it as used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = st.clock.Now()
	return e.session, true
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// DeleteExpired removes sessions idle for longer than the TTL. Sessions with
// a pending analysis are kept.
func (st *Store) DeleteExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.clock.Now().Add(-st.ttl)
	n := 0
	for id, e := range st.sessions {
		if e.lastSeen.After(cutoff) || e.session.State().Phase == PhaseAnalyzing {
			continue
		}
		delete(st.sessions, id)
		n++
	}
	return n
}

// Run deletes expired sessions every interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := st.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if n := st.DeleteExpired(); n > 0 {
				slog.Info("session: expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}
