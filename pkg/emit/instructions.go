package emit

import (
	"fmt"

	"github.com/loykin/cargobuild/pkg/instruction"
)

// RerunIfChanged tells cargo to rerun the build script when any of paths
// changes. A directory is scanned for any modification.
func (e *Emitter) RerunIfChanged(paths ...string) {
	lines, err := instruction.RerunIfChanged(paths...)
	e.must(instruction.KindRerunIfChanged, lines, err)
}

// RerunIfEnvChanged tells cargo to rerun the build script when any of the
// named environment variables changes.
func (e *Emitter) RerunIfEnvChanged(names ...string) {
	lines, err := instruction.RerunIfEnvChanged(names...)
	e.must(instruction.KindRerunIfEnvChanged, lines, err)
}

// LinkArg passes flags to the linker for every supported target.
func (e *Emitter) LinkArg(flags ...string) {
	e.LinkArgTarget(instruction.LinkAll, flags...)
}

// LinkArgTarget passes flags to the linker for one class of targets.
func (e *Emitter) LinkArgTarget(target instruction.LinkTarget, flags ...string) {
	lines, err := instruction.LinkArg(target, flags...)
	e.must(instruction.KindLinkArg, lines, err)
}

// LinkArgBin passes flags to the linker for the binary named bin.
func (e *Emitter) LinkArgBin(bin string, flags ...string) {
	lines, err := instruction.LinkArgBin(bin, flags...)
	e.must(instruction.KindLinkArg, lines, err)
}

// LinkLib links the named libraries with the default kind.
func (e *Emitter) LinkLib(names ...string) {
	e.LinkLibKind(instruction.LibDefault, names...)
}

// LinkLibKind links the named libraries with the given kind.
func (e *Emitter) LinkLibKind(kind instruction.LibKind, names ...string) {
	e.LinkLibrary(instruction.Libraries(kind, names...)...)
}

// LinkLibrary links fully described libraries (kind, modifiers, rename).
func (e *Emitter) LinkLibrary(libs ...instruction.Library) {
	lines, err := instruction.LinkLib(libs...)
	e.must(instruction.KindLinkLib, lines, err)
}

// LinkSearch adds paths to the library search path.
func (e *Emitter) LinkSearch(paths ...string) {
	e.LinkSearchKind(instruction.SearchDefault, paths...)
}

// LinkSearchKind adds paths to the library search path for one kind of lookup.
func (e *Emitter) LinkSearchKind(kind instruction.SearchKind, paths ...string) {
	lines, err := instruction.LinkSearch(kind, paths...)
	e.must(instruction.KindLinkSearch, lines, err)
}

// Flags passes raw -l/-L flags to the compiler.
func (e *Emitter) Flags(flags ...string) {
	lines, err := instruction.Flags(flags...)
	e.must(instruction.KindFlags, lines, err)
}

// Cfg enables the cfg option name.
func (e *Emitter) Cfg(name string) {
	lines, err := instruction.Cfg(name)
	e.must(instruction.KindCfg, lines, err)
}

// CfgValue sets the cfg option name="value".
func (e *Emitter) CfgValue(name, value string) {
	lines, err := instruction.CfgValue(name, value)
	e.must(instruction.KindCfg, lines, err)
}

// CheckCfg declares name as an expected cfg with the given expected values.
func (e *Emitter) CheckCfg(name string, values ...string) {
	lines, err := instruction.CheckCfg(name, values...)
	e.must(instruction.KindCheckCfg, lines, err)
}

// CheckCfgs declares each of names as an expected cfg without values.
func (e *Emitter) CheckCfgs(names ...string) {
	lines, err := instruction.CheckCfgs(names...)
	e.must(instruction.KindCheckCfg, lines, err)
}

// Env sets a compile-time environment variable.
func (e *Emitter) Env(name, value string) {
	lines, err := instruction.Env(name, value)
	e.must(instruction.KindEnv, lines, err)
}

// Metadata publishes key=value to the build scripts of dependent packages.
func (e *Emitter) Metadata(key, value string) {
	lines, err := instruction.Metadata(key, value)
	e.must(instruction.KindMetadata, lines, err)
}

// Warning shows msg as a warning; every line of msg becomes an instruction.
func (e *Emitter) Warning(msg string) {
	e.must(instruction.KindWarning, instruction.Warning(msg), nil)
}

// Warningf is Warning with fmt.Sprintf formatting.
func (e *Emitter) Warningf(format string, args ...any) {
	e.Warning(fmt.Sprintf(format, args...))
}

// Error reports msg as an error, failing the build once the script exits.
func (e *Emitter) Error(msg string) {
	e.must(instruction.KindError, instruction.Error(msg), nil)
}

// Errorf is Error with fmt.Sprintf formatting.
func (e *Emitter) Errorf(format string, args ...any) {
	e.Error(fmt.Sprintf(format, args...))
}
