package instruction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNewline is returned when a name, value, path or flag contains a newline.
	// Cargo reads one instruction per line, so such values cannot be expressed.
	ErrNewline = errors.New("value contains a newline")
	// ErrEmptyName is returned for a library without a name.
	ErrEmptyName = errors.New("empty name")
	// ErrModifiersWithoutKind is returned for link modifiers given without a library kind.
	ErrModifiersWithoutKind = errors.New("link modifiers require a library kind")
	// ErrUnknownKind is returned for an unsupported link-arg target, library kind or search kind.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrReservedKey is returned for a legacy metadata key that cargo would read
	// as an instruction of its own.
	ErrReservedKey = errors.New("key is reserved for cargo instructions")
)

// checkNoNewline reports ErrNewline for what (e.g. "library paths") if any of vals has a newline.
func checkNoNewline(what string, vals ...string) error {
	for _, v := range vals {
		if strings.ContainsRune(v, '\n') {
			return fmt.Errorf("%s containing newlines cannot be used in build scripts: %w", what, ErrNewline)
		}
	}
	return nil
}
