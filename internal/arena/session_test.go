package arena

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/pairing"
	"github.com/gamebattle/arena/internal/runtime"
)

var testCatalogue = []catalogue.GameMeta{
	{Name: "Pong", TeamID: "A"},
	{Name: "Tetris", TeamID: "B"},
	{Name: "Snake", TeamID: "C"},
	{Name: "Breakout", TeamID: "D"},
}

func TestSession_LaunchStartsCapacityGames(t *testing.T) {
	rt := newFakeRuntime()
	s, err := Launch(context.Background(), rt, "voter@example.com", testCatalogue, pairing.Random(""), 2, runtime.Limits{})
	require.NoError(t, err)
	assert.Len(t, s.games, 2)
	assert.False(t, s.Over())
}

func TestSession_LaunchPropagatesNoGamesAvailable(t *testing.T) {
	rt := newFakeRuntime()
	_, err := Launch(context.Background(), rt, "voter@example.com", testCatalogue, pairing.Random("A"), 10, runtime.Limits{})
	assert.Error(t, err)
}

func TestSession_ReplaceGameAvoidsRemainingTeams(t *testing.T) {
	rt := newFakeRuntime()
	s, err := Launch(context.Background(), rt, "voter@example.com", testCatalogue, pairing.Specified("A", "B"), 2, runtime.Limits{})
	require.NoError(t, err)

	remainingIdx, replaceIdx := 0, 1
	if s.games[0].Meta().TeamID == "B" {
		remainingIdx, replaceIdx = 1, 0
	}
	remainingTeam := s.games[remainingIdx].Meta().TeamID

	var gotAvoid map[string]struct{}
	recordAvoid := func(cat []catalogue.GameMeta, capacity int, requester string, avoid map[string]struct{}) ([]catalogue.GameMeta, error) {
		gotAvoid = avoid
		return pairing.Specified("C")(cat, capacity, requester, avoid)
	}

	err = s.ReplaceGame(context.Background(), rt, replaceIdx, testCatalogue, recordAvoid, runtime.Limits{})
	require.NoError(t, err)

	assert.Contains(t, gotAvoid, remainingTeam, "strategy is told to avoid the remaining game's team")
	assert.Equal(t, remainingTeam, s.games[remainingIdx].Meta().TeamID, "untouched game keeps its presentation slot")
	assert.Equal(t, "C", s.games[replaceIdx].Meta().TeamID)
}

func TestSession_StopStopsAllGames(t *testing.T) {
	rt := newFakeRuntime()
	s, err := Launch(context.Background(), rt, "voter@example.com", testCatalogue, pairing.Specified("A", "B"), 2, runtime.Limits{})
	require.NoError(t, err)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, s.Over())
}

func TestSession_GameBoundsChecked(t *testing.T) {
	rt := newFakeRuntime()
	s, err := Launch(context.Background(), rt, "voter@example.com", testCatalogue, pairing.Specified("A"), 1, runtime.Limits{})
	require.NoError(t, err)

	_, err = s.Game(5)
	assert.Error(t, err)
}
