// Package store defines PreferenceStore and ReportStore (components C9/C10,
// spec §4.9-§4.10): durable, append-oriented storage for the preference log
// and per-game reports. Two backends satisfy these interfaces:
// internal/store/memory (grounded on the original's RAMPreferenceStore, for
// tests and local runs) and internal/store/redis (the production backend,
// using the exact namespace layout spec §6 specifies).
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamebattle/arena/internal/elo"
)

// RatingSink is what a PreferenceStore notifies as the preference log
// changes. *elo.Engine satisfies this structurally — Register and Replay
// already have this exact shape.
type RatingSink interface {
	Register(p elo.Preference)
	Replay(prefs []elo.Preference)
}

// PreferenceStore is the durable, per-session preference log — the source
// of truth ratings are replayed from (spec §4.9).
type PreferenceStore interface {
	Get(ctx context.Context, sessionID uuid.UUID) (elo.Preference, bool, error)

	// Set stores pref under sessionID with authorOwnsGame threaded in
	// explicitly (the engine has no team roster of its own). If sessionID
	// already existed this is an edit: every bound sink gets a full Replay.
	// Otherwise every bound sink gets a single Register.
	Set(ctx context.Context, sessionID uuid.UUID, pref elo.Preference, authorOwnsGame bool) error

	// Delete always triggers a full rebuild of every bound sink.
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// SortedPreferences returns every preference ordered by timestamp
	// ascending. internal/store/memory breaks ties by insertion order;
	// internal/store/redis does not define the order of preferences with
	// equal timestamps.
	SortedPreferences(ctx context.Context) ([]elo.Preference, error)

	AccumulationBy(ctx context.Context, email string) (float64, error)
	AllAccumulations(ctx context.Context) (map[string]float64, error)

	// Bind subscribes sink to future changes and immediately replays the
	// current log into it.
	Bind(ctx context.Context, sink RatingSink) error
}

// ReportStore is the append-only report list per team_id, plus the global
// exclusion set (spec §4.10).
type ReportStore interface {
	Get(ctx context.Context, teamID string) ([]elo.Report, error)
	Append(ctx context.Context, teamID string, report elo.Report) (int, error)
	Delete(ctx context.Context, teamID string) error

	Exclude(ctx context.Context, teamID string) error
	Include(ctx context.Context, teamID string) error
	IsExcluded(ctx context.Context, teamID string) (bool, error)
	ExcludedGames(ctx context.Context) (map[string]struct{}, error)
}
