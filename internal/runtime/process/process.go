// Package process implements runtime.Runtime by forking a local child
// process under a real PTY, using github.com/creack/pty. It is the
// development/test backend and the documented degraded mode for a cluster-
// less deployment (spec §4.1 "DOMAIN STACK").
//
// Grounded on the reference stack's internal/games/infrastructure/pty/manager.go
// (CreatePTYWithCallback/handleOutput/ForceTerminate): same pty.Start +
// goroutine-per-direction shape, adapted so "start" is idempotent (a local
// exec has no separate create/start phases, so Create does both and Start
// is a no-op) and so Stop follows the SIGKILL-then-wait-then-release,
// swallow-not-found contract of spec §4.1 instead of keeping the process
// alive for reconnection.
package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/runtime"
)

// Runtime runs each "container" as a local child process with a PTY
// attached. image is resolved to BinDir/image.
type Runtime struct {
	BinDir string
}

// New creates a process-backed runtime rooted at binDir.
func New(binDir string) *Runtime {
	return &Runtime{BinDir: binDir}
}

// Handle is a running local process.
type Handle struct {
	id      string
	cmd     *exec.Cmd
	ptmx    *os.File
	running *runtime.RunningFlag
}

func (h *Handle) ID() string    { return h.id }
func (h *Handle) Running() bool { return h.running.Get() }

// Create starts image (a binary name under BinDir) under a new PTY. Unlike
// a container daemon there is no separate "created but not started" state,
// so the process is already running when Create returns; Start is then a
// no-op, satisfying its idempotence contract.
func (r *Runtime) Create(ctx context.Context, image string, limits runtime.Limits) (runtime.Handle, error) {
	bin := filepath.Join(r.BinDir, image)
	if _, err := os.Stat(bin); err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "image %s not found", image)
	}

	cmd := exec.CommandContext(ctx, bin)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "start process for %s", image)
	}

	h := &Handle{
		id:      image + "-" + cmd.String(),
		cmd:     cmd,
		ptmx:    ptmx,
		running: runtime.NewRunningFlag(true),
	}

	go func() {
		_ = cmd.Wait()
		h.running.Set(false)
	}()

	return h, nil
}

func (r *Runtime) Attach(ctx context.Context, handle runtime.Handle) (io.Writer, io.Reader, error) {
	h, ok := handle.(*Handle)
	if !ok {
		return nil, nil, arenaerr.New(arenaerr.RuntimeUnavailable, "handle not owned by process runtime")
	}
	return h.ptmx, h.ptmx, nil
}

// Start is idempotent: the process backend has nothing more to do.
func (r *Runtime) Start(ctx context.Context, handle runtime.Handle) error {
	return nil
}

func (r *Runtime) Resize(ctx context.Context, handle runtime.Handle, cols, rows int) error {
	h, ok := handle.(*Handle)
	if !ok {
		return nil
	}
	// Best-effort per spec §4.1; Setsize failures are never fatal.
	_ = pty.Setsize(h.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	return nil
}

// Stop sends SIGKILL, waits for the process to exit (at most 5s, or until
// ctx is done), then closes the PTY file descriptor. Each step swallows
// "process already finished" so Stop is idempotent.
func (r *Runtime) Stop(ctx context.Context, handle runtime.Handle) error {
	h, ok := handle.(*Handle)
	if !ok {
		return nil
	}
	if !h.running.Get() {
		_ = h.ptmx.Close()
		return nil
	}

	_ = signalSwallowNotFound(h.cmd, syscall.SIGKILL)

	waitCh := make(chan struct{})
	go func() {
		for h.running.Get() {
			time.Sleep(20 * time.Millisecond)
		}
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}

	_ = h.ptmx.Close()
	return nil
}

func signalSwallowNotFound(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Signal(sig)
	if err == nil || errors.Is(err, os.ErrProcessDone) || strings.Contains(err.Error(), "process already finished") {
		return nil
	}
	return err
}
