// Package memory implements internal/store's interfaces entirely in
// process memory, directly grounded on the original implementation's
// RAMPreferenceStore: the same edit-triggers-rebuild / new-triggers-register
// distinction, generalized to Go's explicit error returns and mutex-guarded
// maps instead of Python's async dict access.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gamebattle/arena/internal/elo"
	"github.com/gamebattle/arena/internal/store"
)

type prefEntry struct {
	pref elo.Preference
	seq  int
}

// PreferenceStore is an in-memory store.PreferenceStore.
type PreferenceStore struct {
	mu    sync.Mutex
	prefs map[uuid.UUID]prefEntry
	sinks []store.RatingSink
	next  int
}

// New creates an empty PreferenceStore.
func New() *PreferenceStore {
	return &PreferenceStore{prefs: make(map[uuid.UUID]prefEntry)}
}

func (s *PreferenceStore) Get(_ context.Context, sessionID uuid.UUID) (elo.Preference, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.prefs[sessionID]
	return e.pref, ok, nil
}

func (s *PreferenceStore) Set(_ context.Context, sessionID uuid.UUID, pref elo.Preference, authorOwnsGame bool) error {
	pref.SessionID = sessionID
	pref.AuthorOwnsGame = authorOwnsGame

	s.mu.Lock()
	_, existed := s.prefs[sessionID]
	s.next++
	s.prefs[sessionID] = prefEntry{pref: pref, seq: s.next}
	sinks := append([]store.RatingSink(nil), s.sinks...)
	var snapshot []elo.Preference
	if existed {
		snapshot = s.sortedLocked()
	}
	s.mu.Unlock()

	if existed {
		for _, sink := range sinks {
			sink.Replay(snapshot)
		}
		return nil
	}
	for _, sink := range sinks {
		sink.Register(pref)
	}
	return nil
}

func (s *PreferenceStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	delete(s.prefs, sessionID)
	snapshot := s.sortedLocked()
	sinks := append([]store.RatingSink(nil), s.sinks...)
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.Replay(snapshot)
	}
	return nil
}

func (s *PreferenceStore) SortedPreferences(_ context.Context) ([]elo.Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

// sortedLocked must be called with s.mu held.
func (s *PreferenceStore) sortedLocked() []elo.Preference {
	entries := make([]prefEntry, 0, len(s.prefs))
	for _, e := range s.prefs {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].pref.Timestamp, entries[j].pref.Timestamp
		if ti.Equal(tj) {
			return entries[i].seq < entries[j].seq
		}
		return ti.Before(tj)
	})
	out := make([]elo.Preference, len(entries))
	for i, e := range entries {
		out[i] = e.pref
	}
	return out
}

func (s *PreferenceStore) AccumulationBy(_ context.Context, email string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.prefs {
		if e.pref.Author == email {
			total += e.pref.FirstScore
		}
	}
	return total, nil
}

func (s *PreferenceStore) AllAccumulations(_ context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64)
	for _, e := range s.prefs {
		out[e.pref.Author] += e.pref.FirstScore
	}
	return out, nil
}

func (s *PreferenceStore) Bind(_ context.Context, sink store.RatingSink) error {
	s.mu.Lock()
	snapshot := s.sortedLocked()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()

	for _, p := range snapshot {
		sink.Register(p)
	}
	return nil
}
