package arena

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/runtime"
)

func TestGame_SendWritesToContainerStdin(t *testing.T) {
	rt := newFakeRuntime()
	g, err := Start(context.Background(), rt, catalogue.GameMeta{Name: "Pong", TeamID: "A"}, runtime.Limits{})
	require.NoError(t, err)

	require.NoError(t, g.Send([]byte("hello")))

	h := g.handle.(*fakeHandle)
	sent := h.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", string(sent[0]))
}

func TestGame_ReceiveSeesContainerOutput(t *testing.T) {
	rt := newFakeRuntime()
	g, err := Start(context.Background(), rt, catalogue.GameMeta{Name: "Pong", TeamID: "A"}, runtime.Limits{})
	require.NoError(t, err)

	h := g.handle.(*fakeHandle)
	_, werr := h.out.Write([]byte("frame1"))
	require.NoError(t, werr)

	sub := g.Receive()
	frame, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, "frame1", string(frame.Bytes))

	require.NoError(t, g.Stop(context.Background()))
	_, ok = sub.Next()
	assert.False(t, ok, "stream must close once the container stops")
}

func TestGame_SendAfterStopIsNoOp(t *testing.T) {
	rt := newFakeRuntime()
	g, err := Start(context.Background(), rt, catalogue.GameMeta{Name: "Pong", TeamID: "A"}, runtime.Limits{})
	require.NoError(t, err)
	require.NoError(t, g.Stop(context.Background()))

	assert.NoError(t, g.Send([]byte("ignored")))
	h := g.handle.(*fakeHandle)
	assert.Empty(t, h.Sent())
}

func TestGame_RestartStartsFreshStream(t *testing.T) {
	rt := newFakeRuntime()
	g, err := Start(context.Background(), rt, catalogue.GameMeta{Name: "Pong", TeamID: "A"}, runtime.Limits{})
	require.NoError(t, err)

	oldHandle := g.handle.(*fakeHandle)
	oldSub := g.Receive()
	_, werr := oldHandle.out.Write([]byte("before restart"))
	require.NoError(t, werr)
	frame, ok := oldSub.Next()
	require.True(t, ok)
	assert.Equal(t, "before restart", string(frame.Bytes))

	require.NoError(t, g.Restart(context.Background(), runtime.Limits{}))

	_, ok = oldSub.Next()
	assert.False(t, ok, "old subscription must end after restart")
	assert.Empty(t, g.AccumulatedOutput(), "new stream starts empty")

	newHandle := g.handle.(*fakeHandle)
	assert.NotEqual(t, oldHandle.id, newHandle.id)
}

func TestGame_PublicViewReflectsRunningState(t *testing.T) {
	rt := newFakeRuntime()
	g, err := Start(context.Background(), rt, catalogue.GameMeta{Name: "Pong", TeamID: "A"}, runtime.Limits{})
	require.NoError(t, err)
	assert.False(t, g.PublicView().Over)

	require.NoError(t, g.Stop(context.Background()))
	assert.True(t, g.PublicView().Over)
}
