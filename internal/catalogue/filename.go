// Package catalogue holds the game metadata catalogue (component C6, spec
// §4.6): GameMeta/Team data model, file intake, and the security-sensitive
// filename validation rules of spec §6.
package catalogue

import (
	"strings"

	"github.com/gamebattle/arena/internal/arenaerr"
)

const maxComponentLen = 255
const maxPathComponents = 10

// validComponent returns an error unless a component is 1..255 bytes long,
// only uses letters, digits, '_', '-', '.', and — when strict is false —
// space, and contains at least one letter, digit, '_' or '-'.
func validComponent(component string, strict bool) error {
	if len(component) < 1 || len(component) > maxComponentLen {
		return arenaerr.New(arenaerr.InvalidInput, "filename component length must be 1..%d, got %d", maxComponentLen, len(component))
	}

	hasIdentifierChar := false
	for _, r := range component {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			hasIdentifierChar = true
		case r == '.':
			// allowed, doesn't count toward the "must contain one of" rule
		case r == ' ' && !strict:
			// allowed only outside strict mode
		default:
			return arenaerr.New(arenaerr.InvalidInput, "filename component %q contains disallowed character %q", component, string(r))
		}
	}
	if !hasIdentifierChar {
		return arenaerr.New(arenaerr.InvalidInput, "filename component %q must contain at least one letter, digit, '_' or '-'", component)
	}
	return nil
}

// ValidatePath validates a '/'-joined relative path against spec §6's
// filename rules: each component must pass validComponent, and the path may
// have at most 10 components. strict disallows spaces (used for the
// entrypoint file at build time); non-strict is used for general file
// intake.
func ValidatePath(path string, strict bool) error {
	if path == "" {
		return arenaerr.New(arenaerr.InvalidInput, "filename must not be empty")
	}
	components := strings.Split(path, "/")
	if len(components) > maxPathComponents {
		return arenaerr.New(arenaerr.InvalidInput, "path has %d components, max is %d", len(components), maxPathComponents)
	}
	for _, c := range components {
		if err := validComponent(c, strict); err != nil {
			return err
		}
	}
	return nil
}
