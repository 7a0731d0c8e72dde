// Package redis implements internal/store's interfaces against Redis, using
// the namespace layout of spec §6: preference:{uuid} hashes, report:{team_id}
// lists, and an excluded_games set. Grounded on the key-per-entity +
// SCAN-prefix style of the zigbee-adapter's internal/store.StateCache, the
// closest example of a Redis-backed domain store in the pack.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gamebattle/arena/internal/elo"
	"github.com/gamebattle/arena/internal/store"
)

const preferenceKeyPrefix = "preference:"

func preferenceKey(id uuid.UUID) string { return preferenceKeyPrefix + id.String() }

// PreferenceStore is a Redis-backed store.PreferenceStore.
type PreferenceStore struct {
	rdb *redis.Client

	mu    sync.Mutex
	sinks []store.RatingSink
}

// NewPreferenceStore wraps an existing Redis client.
func NewPreferenceStore(rdb *redis.Client) *PreferenceStore {
	return &PreferenceStore{rdb: rdb}
}

func (s *PreferenceStore) Get(ctx context.Context, sessionID uuid.UUID) (elo.Preference, bool, error) {
	h, err := s.rdb.HGetAll(ctx, preferenceKey(sessionID)).Result()
	if err != nil {
		return elo.Preference{}, false, err
	}
	if len(h) == 0 {
		return elo.Preference{}, false, nil
	}
	pref, err := decodePreference(sessionID, h)
	return pref, true, err
}

func (s *PreferenceStore) Set(ctx context.Context, sessionID uuid.UUID, pref elo.Preference, authorOwnsGame bool) error {
	pref.SessionID = sessionID
	pref.AuthorOwnsGame = authorOwnsGame

	_, existed, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	fields, err := encodePreference(pref)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, preferenceKey(sessionID), fields).Err(); err != nil {
		return err
	}

	s.mu.Lock()
	sinks := append([]store.RatingSink(nil), s.sinks...)
	s.mu.Unlock()

	if existed {
		snapshot, err := s.SortedPreferences(ctx)
		if err != nil {
			return err
		}
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

func (s *PreferenceStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.rdb.Del(ctx, preferenceKey(sessionID)).Err(); err != nil {
		return err
	}

	snapshot, err := s.SortedPreferences(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	sinks := append([]store.RatingSink(nil), s.sinks...)
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.Replay(snapshot)
	}
	return nil
}

func (s *PreferenceStore) SortedPreferences(ctx context.Context) ([]elo.Preference, error) {
	var prefs []elo.Preference
	iter := s.rdb.Scan(ctx, 0, preferenceKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		idStr := strings.TrimPrefix(key, preferenceKeyPrefix)
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		h, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		pref, err := decodePreference(id, h)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sortPreferences(prefs)
	return prefs, nil
}

func (s *PreferenceStore) AccumulationBy(ctx context.Context, email string) (float64, error) {
	prefs, err := s.SortedPreferences(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range prefs {
		if p.Author == email {
			total += p.FirstScore
		}
	}
	return total, nil
}

func (s *PreferenceStore) AllAccumulations(ctx context.Context) (map[string]float64, error) {
	prefs, err := s.SortedPreferences(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, p := range prefs {
		out[p.Author] += p.FirstScore
	}
	return out, nil
}

func (s *PreferenceStore) Bind(ctx context.Context, sink store.RatingSink) error {
	snapshot, err := s.SortedPreferences(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()

	for _, p := range snapshot {
		sink.Register(p)
	}
	return nil
}

func encodePreference(p elo.Preference) (map[string]any, error) {
	games, err := json.Marshal(p.Games)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"games":     string(games),
		"score":     strconv.FormatFloat(p.FirstScore, 'g', -1, 64),
		"author":    p.Author,
		"owns_game": strconv.FormatBool(p.AuthorOwnsGame),
		"timestamp": strconv.FormatFloat(float64(p.Timestamp.UnixNano())/1e9, 'f', -1, 64),
	}, nil
}

func decodePreference(id uuid.UUID, h map[string]string) (elo.Preference, error) {
	var games [2]string
	if err := json.Unmarshal([]byte(h["games"]), &games); err != nil {
		return elo.Preference{}, fmt.Errorf("decode preference %s: %w", id, err)
	}
	score, err := strconv.ParseFloat(h["score"], 64)
	if err != nil {
		return elo.Preference{}, fmt.Errorf("decode preference %s score: %w", id, err)
	}
	ts, err := strconv.ParseFloat(h["timestamp"], 64)
	if err != nil {
		return elo.Preference{}, fmt.Errorf("decode preference %s timestamp: %w", id, err)
	}

	return elo.Preference{
		SessionID:      id,
		Games:          games,
		FirstScore:     score,
		Author:         h["author"],
		AuthorOwnsGame: h["owns_game"] == "true",
		Timestamp:      unixSeconds(ts),
	}, nil
}
