package instruction

import (
	"fmt"
	"strings"
)

// LinkTarget restricts a linker argument to a class of build targets.
type LinkTarget string

const (
	LinkAll      LinkTarget = ""
	LinkCdylib   LinkTarget = "cdylib"
	LinkBins     LinkTarget = "bins"
	LinkTests    LinkTarget = "tests"
	LinkExamples LinkTarget = "examples"
	LinkBenches  LinkTarget = "benches"
)

// LibKind is the kind of a native library passed to rustc -l.
type LibKind string

const (
	LibDefault   LibKind = ""
	LibDylib     LibKind = "dylib"
	LibStatic    LibKind = "static"
	LibFramework LibKind = "framework"
)

// SearchKind limits where rustc looks in a -L search path.
type SearchKind string

const (
	SearchDefault    SearchKind = ""
	SearchDependency SearchKind = "dependency"
	SearchCrate      SearchKind = "crate"
	SearchNative     SearchKind = "native"
	SearchFramework  SearchKind = "framework"
	SearchAll        SearchKind = "all"
)

func (t LinkTarget) valid() bool {
	switch t {
	case LinkAll, LinkCdylib, LinkBins, LinkTests, LinkExamples, LinkBenches:
		return true
	}
	return false
}

func (k LibKind) valid() bool {
	switch k {
	case LibDefault, LibDylib, LibStatic, LibFramework:
		return true
	}
	return false
}

func (k SearchKind) valid() bool {
	switch k {
	case SearchDefault, SearchDependency, SearchCrate, SearchNative, SearchFramework, SearchAll:
		return true
	}
	return false
}

// LinkArg passes flags to the linker for the targets selected by target.
func LinkArg(target LinkTarget, flags ...string) ([]Line, error) {
	if !target.valid() {
		return nil, fmt.Errorf("link-arg target %q: %w", target, ErrUnknownKind)
	}
	if err := checkNoNewline("linker flags", flags...); err != nil {
		return nil, err
	}
	key := string(KindLinkArg)
	if target != LinkAll {
		key += "-" + string(target)
	}
	lines := make([]Line, 0, len(flags))
	for _, f := range flags {
		lines = append(lines, Line{Kind: KindLinkArg, Key: key, Value: f})
	}
	return lines, nil
}

// LinkArgBin passes flags to the linker for the binary target named bin only.
func LinkArgBin(bin string, flags ...string) ([]Line, error) {
	if err := checkNoNewline("binary names", bin); err != nil {
		return nil, err
	}
	if err := checkNoNewline("linker flags", flags...); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(flags))
	for _, f := range flags {
		lines = append(lines, Line{Kind: KindLinkArg, Key: string(KindLinkArg) + "-bin", Value: bin + "=" + f})
	}
	return lines, nil
}

// Library describes a native library to link, rendered as
// [KIND[:MODIFIERS]=]NAME[:RENAME].
type Library struct {
	Kind      LibKind `mapstructure:"kind"`
	Modifiers string  `mapstructure:"modifiers"` // e.g. "+whole-archive,-bundle"
	Name      string  `mapstructure:"name"`
	Rename    string  `mapstructure:"rename"`
}

// Validate checks l can be expressed as a single instruction.
func (l Library) Validate() error {
	if err := checkNoNewline("library names", l.Name, l.Rename); err != nil {
		return err
	}
	if err := checkNoNewline("library modifiers", string(l.Kind), l.Modifiers); err != nil {
		return err
	}
	if l.Name == "" {
		return fmt.Errorf("library: %w", ErrEmptyName)
	}
	if !l.Kind.valid() {
		return fmt.Errorf("library kind %q: %w", l.Kind, ErrUnknownKind)
	}
	if l.Modifiers != "" && l.Kind == LibDefault {
		return fmt.Errorf("library %s: %w", l.Name, ErrModifiersWithoutKind)
	}
	return nil
}

func (l Library) String() string {
	var b strings.Builder
	if l.Kind != LibDefault {
		b.WriteString(string(l.Kind))
		if l.Modifiers != "" {
			b.WriteByte(':')
			b.WriteString(l.Modifiers)
		}
		b.WriteByte('=')
	}
	b.WriteString(l.Name)
	if l.Rename != "" {
		b.WriteByte(':')
		b.WriteString(l.Rename)
	}
	return b.String()
}

// ParseLibrary parses the [KIND[:MODIFIERS]=]NAME[:RENAME] form.
func ParseLibrary(s string) (Library, error) {
	var l Library
	rest := s
	if spec, name, ok := strings.Cut(s, "="); ok {
		kind, mods, _ := strings.Cut(spec, ":")
		l.Kind = LibKind(kind)
		l.Modifiers = mods
		rest = name
	}
	l.Name, l.Rename, _ = strings.Cut(rest, ":")
	if err := l.Validate(); err != nil {
		return Library{}, err
	}
	return l, nil
}

// Libraries returns one Library of the given kind per name.
func Libraries(kind LibKind, names ...string) []Library {
	libs := make([]Library, 0, len(names))
	for _, n := range names {
		libs = append(libs, Library{Kind: kind, Name: n})
	}
	return libs
}

// LinkLib links each of libs.
func LinkLib(libs ...Library) ([]Line, error) {
	lines := make([]Line, 0, len(libs))
	for _, l := range libs {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		lines = append(lines, Line{Kind: KindLinkLib, Key: string(KindLinkLib), Value: l.String()})
	}
	return lines, nil
}

// LinkSearch adds paths to the library search path, optionally restricted by kind.
func LinkSearch(kind SearchKind, paths ...string) ([]Line, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("link-search kind %q: %w", kind, ErrUnknownKind)
	}
	if err := checkNoNewline("library paths", paths...); err != nil {
		return nil, err
	}
	prefix := ""
	if kind != SearchDefault {
		prefix = string(kind) + "="
	}
	lines := make([]Line, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, Line{Kind: KindLinkSearch, Key: string(KindLinkSearch), Value: prefix + p})
	}
	return lines, nil
}
