package process

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gamebattle/arena/internal/runtime"
)

// writeEchoScript installs a tiny "cat"-like script so the process runtime
// has a real image contract to exercise: reads stdin, writes stdout, exits
// on EOF (the contract spec §6 mandates of any launched image).
func writeEchoScript(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\ncat\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

func TestProcessRuntime_CreateAttachStop(t *testing.T) {
	dir := t.TempDir()
	writeEchoScript(t, dir, "echoer")

	rt := New(dir)
	ctx := context.Background()

	handle, err := rt.Create(ctx, "echoer", runtime.Limits{})
	require.NoError(t, err)
	require.True(t, handle.Running())

	w, r, err := rt.Attach(ctx, handle)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "hello")

	require.NoError(t, rt.Resize(ctx, handle, 100, 40))
	require.NoError(t, rt.Stop(ctx, handle))

	require.Eventually(t, func() bool { return !handle.Running() }, 2*time.Second, 10*time.Millisecond)

	// Stop must be idempotent.
	require.NoError(t, rt.Stop(ctx, handle))
}
