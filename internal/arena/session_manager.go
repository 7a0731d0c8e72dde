package arena

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/pairing"
	"github.com/gamebattle/arena/internal/runtime"
)

// CatalogueProvider is the subset of *catalogue.Launcher the manager needs:
// the current set of games to hand to a PairingStrategy. Duck-typed so this
// package never needs anything else from internal/catalogue.
type CatalogueProvider interface {
	All() []catalogue.GameMeta
}

// SessionManager is the process-wide registry of live sessions keyed by
// UUID (spec §4.5). All mutating operations serialize on a single lock;
// container creation/teardown happens outside it where possible.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	rt                 runtime.Runtime
	cat                CatalogueProvider
	limits             runtime.Limits
	maxSessionsPerUser int
	ttl                time.Duration
}

// NewSessionManager constructs an empty manager. maxSessionsPerUser and ttl
// default to 1 and 1h respectively when zero, per spec §4.5.
func NewSessionManager(rt runtime.Runtime, cat CatalogueProvider, maxSessionsPerUser int, ttl time.Duration, limits runtime.Limits) *SessionManager {
	if maxSessionsPerUser <= 0 {
		maxSessionsPerUser = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionManager{
		sessions:           make(map[uuid.UUID]*Session),
		rt:                 rt,
		cat:                cat,
		limits:             limits,
		maxSessionsPerUser: maxSessionsPerUser,
		ttl:                ttl,
	}
}

// Create launches a new session for owner via strategy. Preconditions:
// owner must be under their session quota, and strategy must return at
// least one game.
func (sm *SessionManager) Create(ctx context.Context, owner string, strategy pairing.Strategy, capacity int) (uuid.UUID, *Session, error) {
	sm.mu.Lock()
	if sm.countForOwner(owner) >= sm.maxSessionsPerUser {
		sm.mu.Unlock()
		return uuid.UUID{}, nil, arenaerr.New(arenaerr.QuotaExceeded, "user %s already has %d session(s)", owner, sm.maxSessionsPerUser)
	}
	sm.mu.Unlock()

	session, err := Launch(ctx, sm.rt, owner, sm.cat.All(), strategy, capacity, sm.limits)
	if err != nil {
		return uuid.UUID{}, nil, err
	}

	sm.mu.Lock()
	sm.sessions[session.ID()] = session
	sm.mu.Unlock()

	id := session.ID()
	time.AfterFunc(sm.ttl, func() {
		_ = sm.Stop(context.Background(), id, owner)
	})

	return id, session, nil
}

// countForOwner must be called with sm.mu held.
func (sm *SessionManager) countForOwner(owner string) int {
	n := 0
	for _, s := range sm.sessions {
		if s.Owner() == owner {
			n++
		}
	}
	return n
}

// Get looks up a session by id, folding an owner mismatch into NotFound so
// callers cannot distinguish "doesn't exist" from "belongs to someone
// else" (spec §4.5, Invariant 6).
func (sm *SessionManager) Get(owner string, id uuid.UUID) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if !ok || s.Owner() != owner {
		return nil, arenaerr.New(arenaerr.NotFound, "session %s not found", id)
	}
	return s, nil
}

// GetGame looks up a session (with the same owner-mismatch-as-NotFound
// rule) and bounds-checks index.
func (sm *SessionManager) GetGame(owner string, id uuid.UUID, index int) (*Game, error) {
	s, err := sm.Get(owner, id)
	if err != nil {
		return nil, err
	}
	return s.Game(index)
}

// UserSessions returns every session owned by owner.
func (sm *SessionManager) UserSessions(owner string) map[uuid.UUID]*Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make(map[uuid.UUID]*Session)
	for id, s := range sm.sessions {
		if s.Owner() == owner {
			out[id] = s
		}
	}
	return out
}

// Stop stops and removes a session, applying the same owner-mismatch rule
// as Get.
func (sm *SessionManager) Stop(ctx context.Context, id uuid.UUID, owner string) error {
	session, err := sm.Get(owner, id)
	if err != nil {
		return err
	}

	stopErr := session.Stop(ctx)

	sm.mu.Lock()
	delete(sm.sessions, id)
	sm.mu.Unlock()

	return stopErr
}

// StopAll stops every registered session, for use as a shutdown hook.
func (sm *SessionManager) StopAll(ctx context.Context) {
	sm.mu.Lock()
	all := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		all = append(all, s)
	}
	sm.sessions = make(map[uuid.UUID]*Session)
	sm.mu.Unlock()

	for _, s := range all {
		_ = s.Stop(ctx)
	}
}
