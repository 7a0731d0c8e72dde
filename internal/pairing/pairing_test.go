package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/catalogue"
)

var cat = []catalogue.GameMeta{
	{TeamID: "A"}, {TeamID: "B"}, {TeamID: "C"}, {TeamID: "D"},
}

func TestRandom_ExcludesOwnTeamAndAvoidSet(t *testing.T) {
	strat := Random("A")
	avoid := map[string]struct{}{"B": {}}

	result, err := strat(cat, 2, "voter@example.com", avoid)
	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, g := range result {
		assert.NotEqual(t, "A", g.TeamID)
		assert.NotEqual(t, "B", g.TeamID)
	}
}

func TestRandom_TooFewEligibleReturnsEmpty(t *testing.T) {
	strat := Random("A")
	avoid := map[string]struct{}{"B": {}, "C": {}, "D": {}}

	result, err := strat(cat, 1, "voter@example.com", avoid)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestOwn_ReturnsRequesterGame(t *testing.T) {
	strat := Own("B")
	result, err := strat(cat, 1, "voter@example.com", nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "B", result[0].TeamID)
}

func TestOwn_RejectsCapacityOtherThanOne(t *testing.T) {
	strat := Own("B")
	_, err := strat(cat, 2, "voter@example.com", nil)
	assert.Error(t, err)
}

func TestOwn_NoOwnGameErrors(t *testing.T) {
	strat := Own("not-in-catalogue")
	_, err := strat(cat, 1, "voter@example.com", nil)
	assert.Error(t, err)
}

func TestSpecified_ReturnsExactGamesInOrder(t *testing.T) {
	strat := Specified("C", "A")
	result, err := strat(cat, 2, "voter@example.com", nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "C", result[0].TeamID)
	assert.Equal(t, "A", result[1].TeamID)
}

func TestSpecified_UnknownTeamErrors(t *testing.T) {
	strat := Specified("nope")
	_, err := strat(cat, 1, "voter@example.com", nil)
	assert.Error(t, err)
}
