package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/elo"
)

func TestEloPair_DelegatesToEngine(t *testing.T) {
	engine := elo.New(nil)
	strategy := EloPair(engine, "", nil, nil)

	chosen, err := strategy(cat, 2, "voter@example.com", nil)
	require.NoError(t, err)
	assert.Len(t, chosen, 2)
}

func TestEloPair_TooFewAvailableReturnsEmpty(t *testing.T) {
	engine := elo.New(nil)
	strategy := EloPair(engine, "", nil, nil)

	chosen, err := strategy([]catalogue.GameMeta{cat[0]}, 2, "voter@example.com", nil)
	require.NoError(t, err)
	assert.Empty(t, chosen)
}
