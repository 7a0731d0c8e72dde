// Package runtime defines ContainerRuntime (spec §4.1, component C1): the
// ability to start a sandbox from an image tag and bridge a full-duplex byte
// stream to its attached PTY. Two concrete implementations live in the
// process and kubernetes subpackages; both satisfy Runtime.
package runtime

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gamebattle/arena/internal/arenaerr"
)

// Handle identifies one running sandbox. Implementations embed whatever
// backend-specific identifiers they need (pod name, process PID, ...); the
// core only ever holds this interface.
type Handle interface {
	// ID is a backend-unique identifier, used only for logging.
	ID() string
	// Running reports whether the sandbox is still alive. Once a handle's
	// reader hits EOF the backend must flip this to false.
	Running() bool
}

// Limits bounds one container's resources. Zero fields mean "use backend
// default."
type Limits struct {
	MemoryBytes int64
	CPUNanos    int64
}

// Runtime is the ContainerRuntime capability interface (C1).
type Runtime interface {
	// Create produces a container with stdin open, a TTY allocated, and
	// stdout+stderr merged onto the TTY channel. The image must already
	// exist; building one is a separate collaborator (§4.6).
	Create(ctx context.Context, image string, limits Limits) (Handle, error)

	// Attach opens the single bidirectional byte stream for handle. The
	// returned reader yields merged stdout+stderr bytes in arrival order;
	// callers are expected to multiplex it into a stream.ReplayStream so
	// many subscribers can observe identical bytes (done by internal/arena.Game).
	Attach(ctx context.Context, handle Handle) (io.Writer, io.Reader, error)

	// Start is idempotent.
	Start(ctx context.Context, handle Handle) error

	// Resize is best-effort; a failure here must never be treated as fatal
	// by the caller.
	Resize(ctx context.Context, handle Handle, cols, rows int) error

	// Stop SIGKILLs, waits, then removes the sandbox. Each of those three
	// steps independently swallows "not found" so Stop is safe to call
	// more than once or on an already-dead handle. After Stop returns, the
	// handle is unusable.
	Stop(ctx context.Context, handle Handle) error
}

// WithRetry wraps a Runtime so that a single transient failure from the
// underlying daemon is retried once before surfacing RuntimeUnavailable,
// per spec §4.1's failure policy ("transient network errors ... are retried
// once internally; persistent failure returns RuntimeUnavailable").
type WithRetry struct {
	Inner Runtime
}

func (r WithRetry) Create(ctx context.Context, image string, limits Limits) (Handle, error) {
	h, err := r.Inner.Create(ctx, image, limits)
	if err == nil {
		return h, nil
	}
	h, err2 := r.Inner.Create(ctx, image, limits)
	if err2 != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err2, "create container from %s", image)
	}
	return h, nil
}

func (r WithRetry) Attach(ctx context.Context, handle Handle) (io.Writer, io.Reader, error) {
	w, rd, err := r.Inner.Attach(ctx, handle)
	if err == nil {
		return w, rd, nil
	}
	w, rd, err2 := r.Inner.Attach(ctx, handle)
	if err2 != nil {
		return nil, nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err2, "attach to %s", handle.ID())
	}
	return w, rd, nil
}

func (r WithRetry) Start(ctx context.Context, handle Handle) error {
	return r.Inner.Start(ctx, handle)
}

func (r WithRetry) Resize(ctx context.Context, handle Handle, cols, rows int) error {
	// Best-effort: never escalate to RuntimeUnavailable.
	_ = r.Inner.Resize(ctx, handle, cols, rows)
	return nil
}

func (r WithRetry) Stop(ctx context.Context, handle Handle) error {
	return r.Inner.Stop(ctx, handle)
}

// BoundedStop runs Stop with a bounded wait; past the deadline it gives up
// cleanly rather than blocking shutdown forever (spec §5).
func BoundedStop(parent context.Context, rt Runtime, handle Handle, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, wait)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.Stop(ctx, handle) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// RunningFlag is a mutex-guarded boolean the concrete backends use to back
// Handle.Running() without each backend reimplementing the bookkeeping.
type RunningFlag struct {
	mu      sync.RWMutex
	running bool
}

func NewRunningFlag(initial bool) *RunningFlag {
	return &RunningFlag{running: initial}
}

func (f *RunningFlag) Get() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.running
}

func (f *RunningFlag) Set(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = v
}
