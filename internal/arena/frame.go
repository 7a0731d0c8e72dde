// Package arena implements the Game/Session/SessionManager trio (components
// C3-C5, spec §4.3-§4.5): binding a catalogue entry to a running container,
// grouping 1-2 games into a presented Session, and the process-wide registry
// of live sessions with owner-scoped lookups and TTL expiry.
//
// Grounded on the teacher's internal/games/domain/session.go (private-field
// aggregate + accessor style) and internal/games/application/session_manager.go
// (registry-over-a-repository shape, here simplified to an in-memory map
// since persistence is out of scope), generalized per the original's
// manager.py (owner-hiding lookups folding into NotFound), session.py
// (shuffle-after-launch) and game.py (replace-with-avoid-set).
package arena

import "time"

// FrameKind distinguishes a Frame's origin stream.
type FrameKind int

const (
	FrameStdout FrameKind = 1
	FrameStderr FrameKind = 2
)

// Frame is one chunk of output from a game's attached PTY (spec §3).
// Ordering within a container is strictly PTY arrival order.
type Frame struct {
	Stream    FrameKind
	Bytes     []byte
	Timestamp time.Time
}
