package catalogue

import (
	"context"
	"strings"
)

// GameMeta is the immutable metadata record for one team's submitted game
// (spec §3). ImageTag is derived, never stored independently, so the two can
// never drift apart.
type GameMeta struct {
	Name           string
	TeamID         string
	EntrypointFile string
}

// ImageTag is the container image tag this game builds to.
func (g GameMeta) ImageTag() string {
	return "gamebattle-" + g.TeamID
}

// Team groups normalized member emails under one team_id (spec §3). Each
// email belongs to at most one team; that invariant is enforced by whatever
// loads Teams (TeamRosterLoader), not by this type.
type Team struct {
	TeamID       string
	DisplayName  string
	MemberEmails []string
}

// NormalizeEmail performs the one email transformation used throughout the
// arena: lower-case, trimmed. Applied once at team-load and once per vote
// (spec §9).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasMember reports whether email (already normalized or not) belongs to t.
func (t Team) HasMember(email string) bool {
	normalized := NormalizeEmail(email)
	for _, m := range t.MemberEmails {
		if m == normalized {
			return true
		}
	}
	return false
}

// TeamRosterLoader is an out-of-scope collaborator (spec §6): real roster
// sourcing (LDAP, a spreadsheet import, whatever) lives outside this module.
// No implementation of this interface ships; the package function LoadTeams
// reads a YAML roster file directly instead.
type TeamRosterLoader interface {
	Load(ctx context.Context) ([]Team, error)
}

// Builder is an out-of-scope collaborator (spec §6): turning a set of
// uploaded files plus GameMeta into a runnable image is explicitly excluded
// from this module's scope. No default implementation ships.
type Builder interface {
	Build(ctx context.Context, meta GameMeta, files map[string][]byte) error
}
