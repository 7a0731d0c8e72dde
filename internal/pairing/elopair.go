package pairing

import (
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/elo"
)

// EloPair adapts *elo.Engine.Pair to the Strategy shape so SessionManager can
// treat it like any other strategy (spec §4.7's note that EloPair "lives on
// the engine" but is still selected as a strategy by POST /sessions). The
// engine needs more context than Strategy's signature carries — the
// requester's own team_id, the globally excluded games, and a reported-against
// predicate — so those are captured in the closure instead of threaded
// through avoid.
func EloPair(engine *elo.Engine, requesterTeamID string, excluded map[string]struct{}, reported elo.ReportedAgainst) Strategy {
	return func(cat []catalogue.GameMeta, capacity int, requesterEmail string, avoid map[string]struct{}) ([]catalogue.GameMeta, error) {
		return engine.Pair(cat, capacity, requesterTeamID, requesterEmail, avoid, excluded, reported)
	}
}
