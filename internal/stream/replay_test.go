package stream

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5 — ReplayStream late subscribe.
func TestReplayStream_LateSubscribeSeesFullHistory(t *testing.T) {
	s := New[string]()
	require.NoError(t, s.Append("he"))
	require.NoError(t, s.Append("ll"))
	require.NoError(t, s.Append("o"))

	sub := s.Subscribe(context.Background())

	require.NoError(t, s.Append("!"))
	s.Close()

	got := sub.Drain()
	assert.Equal(t, []string{"he", "ll", "o", "!"}, got)
}

func TestReplayStream_AppendAfterCloseFails(t *testing.T) {
	s := New[int]()
	s.Close()
	assert.ErrorIs(t, s.Append(1), ErrClosed)
}

func TestReplayStream_EarlySubscriberGetsEverythingNoDuplicatesNoGaps(t *testing.T) {
	s := New[int]()
	sub := s.Subscribe(context.Background())

	const n = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = s.Append(i)
		}
		s.Close()
	}()
	wg.Wait()

	got := sub.Drain()
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestReplayStream_MultipleSubscribersIndependentCursors(t *testing.T) {
	s := New[int]()
	require.NoError(t, s.Append(1))

	subA := s.Subscribe(context.Background())
	v, ok := subA.Next()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	require.NoError(t, s.Append(2))
	subB := s.Subscribe(context.Background())
	s.Close()

	assert.Equal(t, []int{2}, subA.Drain())
	assert.Equal(t, []int{1, 2}, subB.Drain())
}

func TestReplayStream_SubscribeContextCancelEndsIterator(t *testing.T) {
	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	sub := s.Subscribe(ctx)

	cancel()
	_, ok := sub.Next()
	assert.False(t, ok)
}

func TestReplayStream_Accumulated(t *testing.T) {
	s := New[int]()
	require.NoError(t, s.Append(1))
	require.NoError(t, s.Append(2))
	assert.Equal(t, []int{1, 2}, s.Accumulated())
}
