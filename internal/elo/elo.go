// Package elo implements the pairwise Elo rating engine (component C8, spec
// §4.8): registering preferences, replaying the preference log
// deterministically, leaderboard queries, and matchmaking scoring.
//
// Grounded on the original implementation's gamebattle_backend/preferences.py
// EloRatingSystem (same K-factor/logistic-expected-score math), extended with
// the distilled spec's self-vote immunity, per-voter idempotence, and
// rating-normalization rules, none of which the original carried.
package elo

import (
	"time"

	"github.com/google/uuid"
)

// K-factor and initial rating, per spec §4.8.
const (
	K       = 32.0
	Initial = 1000.0
)

// Preference is one vote between the two games of a session (spec §3).
// AuthorOwnsGame is resolved and passed in explicitly by the caller (the API
// Adapter, using the Launcher's team membership lookup) since the engine has
// no roster of its own — this is the Open Question resolution recorded in
// SPEC_FULL.md §9.
type Preference struct {
	SessionID      uuid.UUID
	Games          [2]string // team_id of game A, B, in presentation order
	FirstScore     float64
	Author         string
	AuthorOwnsGame bool
	Timestamp      time.Time
}

// Rating is one leaderboard row.
type Rating struct {
	TeamID string
	Score  float64
}

// Report is one submitted report against a team's game (spec §3).
type Report struct {
	SessionID   uuid.UUID
	ShortReason string
	Reason      string
	Output      []byte
	Author      string
}
