package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/elo"
)

func TestReportStore_AppendReturnsNewCount(t *testing.T) {
	ctx := context.Background()
	s := NewReportStore()

	n, err := s.Append(ctx, "team-a", elo.Report{ShortReason: "buggy", Author: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Append(ctx, "team-a", elo.Report{ShortReason: "unclear", Author: "v2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	reports, err := s.Get(ctx, "team-a")
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestReportStore_ExcludeIncludeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewReportStore()

	excluded, err := s.IsExcluded(ctx, "team-a")
	require.NoError(t, err)
	assert.False(t, excluded)

	require.NoError(t, s.Exclude(ctx, "team-a"))
	excluded, err = s.IsExcluded(ctx, "team-a")
	require.NoError(t, err)
	assert.True(t, excluded)

	all, err := s.ExcludedGames(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "team-a")

	require.NoError(t, s.Include(ctx, "team-a"))
	excluded, err = s.IsExcluded(ctx, "team-a")
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestReportStore_DeleteClearsReports(t *testing.T) {
	ctx := context.Background()
	s := NewReportStore()
	_, err := s.Append(ctx, "team-a", elo.Report{ShortReason: "buggy"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "team-a"))
	reports, err := s.Get(ctx, "team-a")
	require.NoError(t, err)
	assert.Empty(t, reports)
}
