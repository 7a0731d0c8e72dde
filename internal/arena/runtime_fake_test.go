package arena

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gamebattle/arena/internal/runtime"
)

// fakeRuntime is an in-memory runtime.Runtime for testing Game/Session/
// SessionManager without a real container backend.
type fakeRuntime struct {
	mu      sync.Mutex
	next    int
	handles map[string]*fakeHandle
	stopped []string
	resizes []resizeCall
}

type resizeCall struct {
	id         string
	cols, rows int
}

type fakeHandle struct {
	id      string
	running *runtime.RunningFlag
	out     *io.PipeWriter // the "container" writes its stdout here
	outR    *io.PipeReader
	sent    [][]byte
	mu      sync.Mutex
}

func (h *fakeHandle) ID() string    { return h.id }
func (h *fakeHandle) Running() bool { return h.running.Get() }
func (h *fakeHandle) Sent() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.sent))
	copy(out, h.sent)
	return out
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{handles: make(map[string]*fakeHandle)}
}

func (r *fakeRuntime) Create(ctx context.Context, image string, limits runtime.Limits) (runtime.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	pr, pw := io.Pipe()
	h := &fakeHandle{
		id:      fmt.Sprintf("%s-%d", image, r.next),
		running: runtime.NewRunningFlag(true),
		out:     pw,
		outR:    pr,
	}
	r.handles[h.id] = h
	return h, nil
}

type recordingWriter struct {
	h *fakeHandle
}

func (w recordingWriter) Write(p []byte) (int, error) {
	w.h.mu.Lock()
	cp := make([]byte, len(p))
	copy(cp, p)
	w.h.sent = append(w.h.sent, cp)
	w.h.mu.Unlock()
	return len(p), nil
}

func (r *fakeRuntime) Attach(ctx context.Context, handle runtime.Handle) (io.Writer, io.Reader, error) {
	h := handle.(*fakeHandle)
	return recordingWriter{h: h}, h.outR, nil
}

func (r *fakeRuntime) Start(ctx context.Context, handle runtime.Handle) error { return nil }

func (r *fakeRuntime) Resize(ctx context.Context, handle runtime.Handle, cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizes = append(r.resizes, resizeCall{id: handle.ID(), cols: cols, rows: rows})
	return nil
}

func (r *fakeRuntime) Stop(ctx context.Context, handle runtime.Handle) error {
	h := handle.(*fakeHandle)
	h.running.Set(false)
	_ = h.out.Close()
	r.mu.Lock()
	r.stopped = append(r.stopped, h.id)
	r.mu.Unlock()
	return nil
}
