package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/elo"
)

type recordingSink struct {
	registered []elo.Preference
	replays    [][]elo.Preference
}

func (s *recordingSink) Register(p elo.Preference)     { s.registered = append(s.registered, p) }
func (s *recordingSink) Replay(prefs []elo.Preference) { s.replays = append(s.replays, prefs) }

func TestPreferenceStore_NewKeyEmitsRegister(t *testing.T) {
	ctx := context.Background()
	s := New()
	sink := &recordingSink{}
	require.NoError(t, s.Bind(ctx, sink))

	id := uuid.New()
	require.NoError(t, s.Set(ctx, id, elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 1.0, Author: "v"}, false))

	require.Len(t, sink.registered, 1)
	assert.Empty(t, sink.replays)
	assert.Equal(t, id, sink.registered[0].SessionID)
}

func TestPreferenceStore_EditEmitsFullReplay(t *testing.T) {
	ctx := context.Background()
	s := New()
	sink := &recordingSink{}
	require.NoError(t, s.Bind(ctx, sink))

	id := uuid.New()
	require.NoError(t, s.Set(ctx, id, elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 1.0, Author: "v"}, false))
	require.NoError(t, s.Set(ctx, id, elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 0.0, Author: "v"}, false))

	assert.Len(t, sink.registered, 1)
	require.Len(t, sink.replays, 1)
	assert.Len(t, sink.replays[0], 1)
	assert.Equal(t, 0.0, sink.replays[0][0].FirstScore)
}

func TestPreferenceStore_DeleteTriggersRebuild(t *testing.T) {
	ctx := context.Background()
	s := New()
	sink := &recordingSink{}
	require.NoError(t, s.Bind(ctx, sink))

	id := uuid.New()
	require.NoError(t, s.Set(ctx, id, elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 1.0, Author: "v"}, false))
	require.NoError(t, s.Delete(ctx, id))

	require.Len(t, sink.replays, 1)
	assert.Empty(t, sink.replays[0])
}

func TestPreferenceStore_BindReplaysExistingLogInTimestampOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Now()
	id1, id2 := uuid.New(), uuid.New()
	require.NoError(t, s.Set(ctx, id1, elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 1.0, Author: "v1", Timestamp: now.Add(time.Second)}, false))
	require.NoError(t, s.Set(ctx, id2, elo.Preference{Games: [2]string{"C", "D"}, FirstScore: 1.0, Author: "v2", Timestamp: now}, false))

	sink := &recordingSink{}
	require.NoError(t, s.Bind(ctx, sink))

	require.Len(t, sink.registered, 2)
	assert.Equal(t, id2, sink.registered[0].SessionID)
	assert.Equal(t, id1, sink.registered[1].SessionID)
}

func TestPreferenceStore_AccumulationByEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, uuid.New(), elo.Preference{Games: [2]string{"A", "B"}, FirstScore: 0.5, Author: "v1"}, false))
	require.NoError(t, s.Set(ctx, uuid.New(), elo.Preference{Games: [2]string{"C", "D"}, FirstScore: 0.25, Author: "v1"}, false))
	require.NoError(t, s.Set(ctx, uuid.New(), elo.Preference{Games: [2]string{"E", "F"}, FirstScore: 1.0, Author: "v2"}, false))

	total, err := s.AccumulationBy(ctx, "v1")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, total, 0.0001)

	all, err := s.AllAccumulations(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, all["v2"], 0.0001)
}
