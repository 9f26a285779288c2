// Package instruction formats cargo build-script instructions.
//
// Every function validates its arguments and returns the lines to emit; nothing
// here writes. Callers hand the lines to an emitter, which writes all lines of
// one call as a single group.
package instruction

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Kind identifies the category of an instruction.
type Kind string

const (
	KindRerunIfChanged    Kind = "rerun-if-changed"
	KindRerunIfEnvChanged Kind = "rerun-if-env-changed"
	KindLinkArg           Kind = "rustc-link-arg"
	KindLinkLib           Kind = "rustc-link-lib"
	KindLinkSearch        Kind = "rustc-link-search"
	KindFlags             Kind = "rustc-flags"
	KindCfg               Kind = "rustc-cfg"
	KindCheckCfg          Kind = "rustc-check-cfg"
	KindEnv               Kind = "rustc-env"
	KindError             Kind = "error"
	KindWarning           Kind = "warning"
	KindMetadata          Kind = "metadata"
)

// Syntax selects the instruction prefix understood by the consuming cargo.
type Syntax int

const (
	// Modern is the "cargo::" prefix, supported since cargo 1.77.
	Modern Syntax = iota
	// Legacy is the single colon "cargo:" prefix.
	Legacy
)

// modernSince is the first Rust release that understands the "cargo::" prefix.
const modernSince = "v1.77.0"

func (s Syntax) String() string {
	if s == Legacy {
		return "legacy"
	}
	return "modern"
}

// Prefix returns the instruction prefix for s.
func (s Syntax) Prefix() string {
	if s == Legacy {
		return "cargo:"
	}
	return "cargo::"
}

// SyntaxFor returns the syntax a package with the given minimum Rust version
// must use. An empty or unparsable version selects Modern.
func SyntaxFor(rustVersion string) Syntax {
	v := strings.TrimSpace(rustVersion)
	if v == "" {
		return Modern
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Modern
	}
	if semver.Compare(v, modernSince) < 0 {
		return Legacy
	}
	return Modern
}

// Line is a single instruction. It renders as <prefix><Key>=<Value>.
type Line struct {
	Kind  Kind
	Key   string
	Value string
}

// Format renders l without the trailing newline.
func (l Line) Format(s Syntax) string {
	if s == Legacy {
		switch l.Kind {
		case KindMetadata:
			// Legacy metadata is any unknown key: cargo:KEY=VALUE.
			return s.Prefix() + l.Value
		case KindError:
			// cargo:error is not understood before the modern syntax.
			return s.Prefix() + string(KindWarning) + "=" + l.Value
		}
	}
	return s.Prefix() + l.Key + "=" + l.Value
}

func (l Line) String() string { return l.Format(Modern) }

// Check reports whether every line can be written with syntax s. The legacy
// syntax spells metadata as cargo:KEY=VALUE, so a KEY that cargo knows as an
// instruction, or any rustc- key, would be read as that instruction instead.
func Check(s Syntax, lines []Line) error {
	if s != Legacy {
		return nil
	}
	for _, l := range lines {
		if l.Kind != KindMetadata {
			continue
		}
		key, _, _ := strings.Cut(l.Value, "=")
		if KindOf(key) != "" || strings.HasPrefix(key, "rustc-") {
			return fmt.Errorf("metadata key %q with the %s syntax: %w", key, s, ErrReservedKey)
		}
	}
	return nil
}

// Render formats lines with s. The results carry no newline.
func Render(s Syntax, lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Format(s))
	}
	return out
}

func simple(kind Kind, what string, vals []string) ([]Line, error) {
	if err := checkNoNewline(what, vals...); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(vals))
	for _, v := range vals {
		lines = append(lines, Line{Kind: kind, Key: string(kind), Value: v})
	}
	return lines, nil
}

// RerunIfChanged tells cargo to rerun the build script when any of paths changes.
func RerunIfChanged(paths ...string) ([]Line, error) {
	return simple(KindRerunIfChanged, "paths", paths)
}

// RerunIfEnvChanged tells cargo to rerun the build script when any of the
// named environment variables changes.
func RerunIfEnvChanged(names ...string) ([]Line, error) {
	return simple(KindRerunIfEnvChanged, "env var names", names)
}

// Flags passes raw flags (only -l and -L are honoured by cargo) to the compiler.
func Flags(flags ...string) ([]Line, error) {
	return simple(KindFlags, "rustc flags", flags)
}

// Env sets a compile-time environment variable readable with env!.
func Env(name, value string) ([]Line, error) {
	if err := checkNoNewline("env variables", name); err != nil {
		return nil, err
	}
	if err := checkNoNewline("env variable values", value); err != nil {
		return nil, err
	}
	return []Line{{Kind: KindEnv, Key: string(KindEnv), Value: name + "=" + value}}, nil
}

// Metadata publishes a key/value pair to dependent packages' build scripts.
func Metadata(key, value string) ([]Line, error) {
	if err := checkNoNewline("metadata keys", key); err != nil {
		return nil, err
	}
	if err := checkNoNewline("metadata values", value); err != nil {
		return nil, err
	}
	return []Line{{Kind: KindMetadata, Key: string(KindMetadata), Value: key + "=" + value}}, nil
}

// Warning reports msg as a build warning, one instruction per message line.
func Warning(msg string) []Line {
	return messages(KindWarning, msg)
}

// Error reports msg as a build error, one instruction per message line.
// Cargo fails the build after the script exits.
func Error(msg string) []Line {
	return messages(KindError, msg)
}

func messages(kind Kind, msg string) []Line {
	var lines []Line
	for _, ln := range SplitLines(msg) {
		lines = append(lines, Line{Kind: kind, Key: string(kind), Value: ln})
	}
	return lines
}

// SplitLines splits s into lines ending in "\n" or "\r\n". The final line
// needs no terminator, and a "\r" that ends s without a following "\n" is
// kept. An empty string has no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	last := len(parts) - 1
	for i := 0; i < last; i++ {
		parts[i] = strings.TrimSuffix(parts[i], "\r")
	}
	if parts[last] == "" {
		parts = parts[:last]
	}
	return parts
}
