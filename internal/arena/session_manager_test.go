package arena

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/pairing"
	"github.com/gamebattle/arena/internal/runtime"
)

type staticCatalogue []catalogue.GameMeta

func (c staticCatalogue) All() []catalogue.GameMeta { return c }

func newTestManager(rt runtime.Runtime) *SessionManager {
	return NewSessionManager(rt, staticCatalogue(testCatalogue), 1, time.Hour, runtime.Limits{})
}

func TestSessionManager_CreateEnforcesQuota(t *testing.T) {
	rt := newFakeRuntime()
	sm := newTestManager(rt)

	_, _, err := sm.Create(context.Background(), "owner@example.com", pairing.Specified("A"), 1)
	require.NoError(t, err)

	_, _, err = sm.Create(context.Background(), "owner@example.com", pairing.Specified("B"), 1)
	require.Error(t, err)
	assert.True(t, arenaerr.Is(err, arenaerr.QuotaExceeded))
}

func TestSessionManager_GetOwnerMismatchFoldsIntoNotFound(t *testing.T) {
	rt := newFakeRuntime()
	sm := newTestManager(rt)

	id, _, err := sm.Create(context.Background(), "owner@example.com", pairing.Specified("A"), 1)
	require.NoError(t, err)

	_, err = sm.Get("someone-else@example.com", id)
	require.Error(t, err)
	assert.True(t, arenaerr.Is(err, arenaerr.NotFound))

	_, err = sm.Get("owner@example.com", uuid.New())
	require.Error(t, err)
	assert.True(t, arenaerr.Is(err, arenaerr.NotFound))
}

func TestSessionManager_GetGameBoundsChecks(t *testing.T) {
	rt := newFakeRuntime()
	sm := newTestManager(rt)

	id, _, err := sm.Create(context.Background(), "owner@example.com", pairing.Specified("A"), 1)
	require.NoError(t, err)

	_, err = sm.GetGame("owner@example.com", id, 3)
	assert.Error(t, err)

	g, err := sm.GetGame("owner@example.com", id, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", g.Meta().TeamID)
}

func TestSessionManager_StopRemovesSessionAndFreesQuota(t *testing.T) {
	rt := newFakeRuntime()
	sm := newTestManager(rt)

	id, _, err := sm.Create(context.Background(), "owner@example.com", pairing.Specified("A"), 1)
	require.NoError(t, err)

	require.NoError(t, sm.Stop(context.Background(), id, "owner@example.com"))
	assert.Empty(t, sm.UserSessions("owner@example.com"))

	_, _, err = sm.Create(context.Background(), "owner@example.com", pairing.Specified("B"), 1)
	assert.NoError(t, err)
}

func TestSessionManager_StopAllStopsEverySession(t *testing.T) {
	rt := newFakeRuntime()
	sm := newTestManager(rt)

	id1, s1, err := sm.Create(context.Background(), "a@example.com", pairing.Specified("A"), 1)
	require.NoError(t, err)
	_, s2, err := sm.Create(context.Background(), "b@example.com", pairing.Specified("B"), 1)
	require.NoError(t, err)

	sm.StopAll(context.Background())

	assert.True(t, s1.Over())
	assert.True(t, s2.Over())
	_, err = sm.Get("a@example.com", id1)
	assert.Error(t, err)
}
