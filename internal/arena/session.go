package arena

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/pairing"
	"github.com/gamebattle/arena/internal/runtime"
)

// Session is a fixed-size ordered list of 1 or 2 Games plus an owner (spec
// §4.4). Presentation order is randomized once at Launch and then preserved
// across ReplaceGame calls.
type Session struct {
	id         uuid.UUID
	owner      string
	games      []*Game
	launchTime time.Time
}

// SessionPublicView is the read-only view exposed to API callers.
type SessionPublicView struct {
	Owner      string
	LaunchTime time.Time
	Games      []GamePublicView
}

// Launch picks capacity games via strategy (avoid is empty at launch time),
// starts each, then randomly permutes the list so A/B presentation carries
// no positional bias.
func Launch(
	ctx context.Context,
	rt runtime.Runtime,
	owner string,
	cat []catalogue.GameMeta,
	strategy pairing.Strategy,
	capacity int,
	limits runtime.Limits,
) (*Session, error) {
	chosen, err := strategy(cat, capacity, owner, nil)
	if err != nil {
		return nil, err
	}
	if len(chosen) == 0 {
		return nil, arenaerr.New(arenaerr.NoGamesAvailable, "no games available for %s", owner)
	}

	games := make([]*Game, 0, len(chosen))
	for _, meta := range chosen {
		g, err := Start(ctx, rt, meta, limits)
		if err != nil {
			// Best-effort cleanup of any games already started for this session.
			for _, started := range games {
				_ = started.Stop(ctx)
			}
			return nil, err
		}
		games = append(games, g)
	}

	rand.Shuffle(len(games), func(i, j int) { games[i], games[j] = games[j], games[i] })

	return &Session{
		id:         uuid.New(),
		owner:      owner,
		games:      games,
		launchTime: time.Now(),
	}, nil
}

// ID returns the session's identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Owner returns the session owner's email.
func (s *Session) Owner() string { return s.owner }

// Game returns the game at index, bounds-checked.
func (s *Session) Game(index int) (*Game, error) {
	if index < 0 || index >= len(s.games) {
		return nil, arenaerr.New(arenaerr.NotFound, "game index %d out of range", index)
	}
	return s.games[index], nil
}

// ReplaceGame stops the game at index and starts a replacement chosen by
// strategy, with avoid set to every remaining game's team_id (to prevent
// accidental self-pairing). Presentation order of the untouched games is
// preserved (spec §4.4, Invariant 7).
func (s *Session) ReplaceGame(ctx context.Context, rt runtime.Runtime, index int, cat []catalogue.GameMeta, strategy pairing.Strategy, limits runtime.Limits) error {
	if index < 0 || index >= len(s.games) {
		return arenaerr.New(arenaerr.NotFound, "game index %d out of range", index)
	}

	avoid := make(map[string]struct{}, len(s.games))
	for i, g := range s.games {
		if i == index {
			continue
		}
		avoid[g.Meta().TeamID] = struct{}{}
	}

	chosen, err := strategy(cat, 1, s.owner, avoid)
	if err != nil {
		return err
	}
	if len(chosen) == 0 {
		return arenaerr.New(arenaerr.NoGamesAvailable, "no replacement game available")
	}

	_ = s.games[index].Stop(ctx)

	replacement, err := Start(ctx, rt, chosen[0], limits)
	if err != nil {
		return err
	}
	s.games[index] = replacement
	return nil
}

// Stop stops every game sequentially. Best-effort: a failure on one game
// does not prevent stopping the rest, and there is no rollback.
func (s *Session) Stop(ctx context.Context) error {
	var firstErr error
	for _, g := range s.games {
		if err := g.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Over reports whether every game in the session has stopped running.
func (s *Session) Over() bool {
	for _, g := range s.games {
		if g.Running() {
			return false
		}
	}
	return true
}

// PublicView returns the read-only view exposed to API callers.
func (s *Session) PublicView() SessionPublicView {
	views := make([]GamePublicView, len(s.games))
	for i, g := range s.games {
		views[i] = g.PublicView()
	}
	return SessionPublicView{Owner: s.owner, LaunchTime: s.launchTime, Games: views}
}
