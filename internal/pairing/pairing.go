// Package pairing implements the pure PairingStrategy functions (component
// C7, spec §4.7): the simple, non-Elo ways a Session's games get chosen.
// EloPair, the interesting strategy, lives on *elo.Engine instead (§4.8) —
// it needs ratings state these pure functions don't.
//
// Grounded on the original's manager.py, which treats a pairing strategy as
// a plain callable taking (catalogue, capacity, requester, avoid) and
// returning a game list; Random/Own/Specified are rewritten here as Go
// functions and closures matching that same shape.
package pairing

import (
	"math/rand"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/catalogue"
)

// Strategy picks up to capacity games for requesterEmail, excluding any
// team_id in avoid. All strategies share this signature (spec §4.7).
type Strategy func(cat []catalogue.GameMeta, capacity int, requesterEmail string, avoid map[string]struct{}) ([]catalogue.GameMeta, error)

// Random uniformly samples capacity distinct games, excluding any game the
// requester's team owns and anything in avoid.
func Random(requesterTeamID string) Strategy {
	return func(cat []catalogue.GameMeta, capacity int, requesterEmail string, avoid map[string]struct{}) ([]catalogue.GameMeta, error) {
		eligible := make([]catalogue.GameMeta, 0, len(cat))
		for _, g := range cat {
			if g.TeamID == requesterTeamID {
				continue
			}
			if _, skip := avoid[g.TeamID]; skip {
				continue
			}
			eligible = append(eligible, g)
		}
		if len(eligible) < capacity {
			return nil, nil
		}
		rand.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
		return eligible[:capacity], nil
	}
}

// Own returns the requester's own team's game. Requires capacity == 1.
func Own(requesterTeamID string) Strategy {
	return func(cat []catalogue.GameMeta, capacity int, requesterEmail string, avoid map[string]struct{}) ([]catalogue.GameMeta, error) {
		if capacity != 1 {
			return nil, arenaerr.New(arenaerr.Gamebattle, "own strategy requires capacity 1, got %d", capacity)
		}
		for _, g := range cat {
			if g.TeamID == requesterTeamID {
				return []catalogue.GameMeta{g}, nil
			}
		}
		return nil, arenaerr.New(arenaerr.Gamebattle, "requester has no game in the catalogue")
	}
}

// Specified returns exactly the named games, in order (admin use). It does
// not consult avoid — an admin-specified pairing is deliberate.
func Specified(teamIDs ...string) Strategy {
	return func(cat []catalogue.GameMeta, capacity int, requesterEmail string, avoid map[string]struct{}) ([]catalogue.GameMeta, error) {
		byTeam := make(map[string]catalogue.GameMeta, len(cat))
		for _, g := range cat {
			byTeam[g.TeamID] = g
		}
		out := make([]catalogue.GameMeta, 0, len(teamIDs))
		for _, id := range teamIDs {
			g, ok := byTeam[id]
			if !ok {
				return nil, arenaerr.New(arenaerr.NotFound, "specified game %q not in catalogue", id)
			}
			out = append(out, g)
		}
		return out, nil
	}
}
