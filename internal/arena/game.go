package arena

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/runtime"
	"github.com/gamebattle/arena/internal/stream"
)

const readChunk = 4096

// Game binds a catalogue entry to a running ContainerRuntime handle and the
// ReplayStream that fans its PTY output out to every reader (spec §4.3).
type Game struct {
	mu     sync.Mutex
	rt     runtime.Runtime
	meta   catalogue.GameMeta
	limits runtime.Limits
	handle runtime.Handle
	writer io.Writer
	out    *stream.ReplayStream[Frame]
}

// GamePublicView is the read-only view exposed to API callers.
type GamePublicView struct {
	Name string
	Over bool
}

// Start creates and attaches a container for meta's image, beginning a pump
// from its PTY into a fresh ReplayStream (spec §4.3).
func Start(ctx context.Context, rt runtime.Runtime, meta catalogue.GameMeta, limits runtime.Limits) (*Game, error) {
	g := &Game{rt: rt, meta: meta, limits: limits}
	if err := g.attachNew(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// attachNew creates a container, attaches to it, and starts pumping its
// output into a new ReplayStream, replacing any prior handle/stream.
func (g *Game) attachNew(ctx context.Context) error {
	handle, err := g.rt.Create(ctx, g.meta.ImageTag(), g.limits)
	if err != nil {
		return err
	}
	if err := g.rt.Start(ctx, handle); err != nil {
		return err
	}
	w, r, err := g.rt.Attach(ctx, handle)
	if err != nil {
		return err
	}

	out := stream.New[Frame]()

	g.mu.Lock()
	g.handle = handle
	g.writer = w
	g.out = out
	g.mu.Unlock()

	go pump(r, out)
	return nil
}

// pump copies bytes from r into out as Frames until r is exhausted, then
// closes out so every subscriber's iterator terminates.
func pump(r io.Reader, out *stream.ReplayStream[Frame]) {
	defer out.Close()
	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			_ = out.Append(Frame{Stream: FrameStdout, Bytes: chunk, Timestamp: time.Now()})
		}
		if err != nil {
			return
		}
	}
}

// Send writes data to the container's stdin. Once the container has
// stopped running this is a silent no-op (spec §4.1's failure policy).
func (g *Game) Send(data []byte) error {
	g.mu.Lock()
	handle, w := g.handle, g.writer
	g.mu.Unlock()

	if handle == nil || !handle.Running() {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// Resize is best-effort; the runtime backend never escalates failures here.
func (g *Game) Resize(ctx context.Context, cols, rows int) error {
	g.mu.Lock()
	handle := g.handle
	g.mu.Unlock()
	if handle == nil {
		return nil
	}
	return g.rt.Resize(ctx, handle, cols, rows)
}

// Receive subscribes to the game's current output stream. Callers that hold
// a Subscription across a Restart keep observing the stream that was live
// at the time they subscribed; it closes, and a fresh Receive is required to
// follow the new container.
func (g *Game) Receive() *stream.Subscription[Frame] {
	g.mu.Lock()
	out := g.out
	g.mu.Unlock()
	return out.Subscribe(context.Background())
}

// AccumulatedOutput concatenates the current stream's history so far.
func (g *Game) AccumulatedOutput() []byte {
	g.mu.Lock()
	out := g.out
	g.mu.Unlock()

	var buf bytes.Buffer
	for _, f := range out.Accumulated() {
		buf.Write(f.Bytes)
	}
	return buf.Bytes()
}

// Running reports whether the underlying container is still alive.
func (g *Game) Running() bool {
	g.mu.Lock()
	handle := g.handle
	g.mu.Unlock()
	return handle != nil && handle.Running()
}

// Restart stops the current container and attaches a fresh one in its
// place. Observers of the prior Receive() see closure; a new Receive starts
// fresh against the new container (spec §4.3).
func (g *Game) Restart(ctx context.Context, limits runtime.Limits) error {
	g.mu.Lock()
	handle := g.handle
	g.limits = limits
	g.mu.Unlock()

	if handle != nil {
		_ = g.rt.Stop(ctx, handle)
	}
	return g.attachNew(ctx)
}

// Stop terminates the container. Terminal: the Game must not be reused.
func (g *Game) Stop(ctx context.Context) error {
	g.mu.Lock()
	handle := g.handle
	g.mu.Unlock()
	if handle == nil {
		return nil
	}
	return g.rt.Stop(ctx, handle)
}

// PublicView returns the read-only view exposed to API callers.
func (g *Game) PublicView() GamePublicView {
	return GamePublicView{Name: g.meta.Name, Over: !g.Running()}
}

// Meta returns the catalogue entry this game was started from.
func (g *Game) Meta() catalogue.GameMeta {
	return g.meta
}
