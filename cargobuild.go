// Package cargobuild provides a simplified, stable root-level API for emitting
// cargo build-script instructions.
//
// The package-level functions write to one process-wide sink, standard output
// by default:
//
//	import "github.com/loykin/cargobuild"
//
//	cargobuild.RerunIfChanged("build.rs", "wrapper.h")
//	cargobuild.LinkLibKind(cargobuild.LibStatic, "foo")
//
// Code that needs isolation (tests in particular) creates its own Emitter with
// New and never touches the process-wide state.
package cargobuild

import (
	"io"

	"github.com/loykin/cargobuild/internal/metrics"
	"github.com/loykin/cargobuild/pkg/emit"
	"github.com/loykin/cargobuild/pkg/instruction"
	"github.com/loykin/cargobuild/pkg/sink"
	"github.com/prometheus/client_golang/prometheus"
)

// Emitter re-exports emit.Emitter.
type Emitter = emit.Emitter

// Sink re-exports sink.Sink.
type Sink = sink.Sink

// Line re-exports instruction.Line.
type Line = instruction.Line

// Library re-exports instruction.Library.
type Library = instruction.Library

// Syntax re-exports instruction.Syntax.
type Syntax = instruction.Syntax

// Kinds re-exported for convenient use from the module root.
type (
	LinkTarget = instruction.LinkTarget
	LibKind    = instruction.LibKind
	SearchKind = instruction.SearchKind
)

const (
	Modern = instruction.Modern
	Legacy = instruction.Legacy

	LinkCdylib   = instruction.LinkCdylib
	LinkBins     = instruction.LinkBins
	LinkTests    = instruction.LinkTests
	LinkExamples = instruction.LinkExamples
	LinkBenches  = instruction.LinkBenches

	LibDylib     = instruction.LibDylib
	LibStatic    = instruction.LibStatic
	LibFramework = instruction.LibFramework

	SearchDependency = instruction.SearchDependency
	SearchCrate      = instruction.SearchCrate
	SearchNative     = instruction.SearchNative
	SearchFramework  = instruction.SearchFramework
	SearchAll        = instruction.SearchAll
)

var (
	out = sink.New(nil)
	std = emit.New(out, emit.WithObserver(metrics.Observer{}))
)

// RegisterMetrics registers the instruction counters with r. Every Emitter
// built with WithObserver(MetricsObserver()) and the package-level functions
// feed them. Registering twice is not an error.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// MetricsObserver returns the observer backing the instruction counters.
func MetricsObserver() emit.Observer { return metrics.Observer{} }

// New returns an Emitter with its own sink writing to w (standard output when nil).
func New(w io.Writer, opts ...Option) *Emitter {
	return emit.New(sink.New(w), opts...)
}

// Option re-exports emit.Option.
type Option = emit.Option

// WithSyntax selects the instruction syntax of an Emitter.
func WithSyntax(s Syntax) Option { return emit.WithSyntax(s) }

// WithObserver attaches o to an Emitter.
func WithObserver(o emit.Observer) Option { return emit.WithObserver(o) }

// Default returns the process-wide Emitter used by the package-level functions.
func Default() *Emitter { return std }

// Output returns the process-wide sink.
func Output() *Sink { return out }

// SetOutput redirects the package-level functions to w. The last call wins.
func SetOutput(w io.Writer) { out.Set(w) }

// ResetOutput restores standard output for the package-level functions.
func ResetOutput() { out.Reset() }

// ParseLibrary parses [KIND[:MODIFIERS]=]NAME[:RENAME].
func ParseLibrary(s string) (Library, error) { return instruction.ParseLibrary(s) }

// RerunIfChanged reruns the build script when any of paths changes.
func RerunIfChanged(paths ...string) { std.RerunIfChanged(paths...) }

// RerunIfEnvChanged reruns the build script when any named variable changes.
func RerunIfEnvChanged(names ...string) { std.RerunIfEnvChanged(names...) }

// LinkArg passes flags to the linker.
func LinkArg(flags ...string) { std.LinkArg(flags...) }

// LinkArgTarget passes flags to the linker for one class of targets.
func LinkArgTarget(t LinkTarget, flags ...string) { std.LinkArgTarget(t, flags...) }

// LinkArgBin passes flags to the linker for the binary bin.
func LinkArgBin(bin string, flags ...string) { std.LinkArgBin(bin, flags...) }

// LinkLib links the named libraries.
func LinkLib(names ...string) { std.LinkLib(names...) }

// LinkLibKind links the named libraries with the given kind.
func LinkLibKind(kind LibKind, names ...string) { std.LinkLibKind(kind, names...) }

// LinkLibrary links fully described libraries.
func LinkLibrary(libs ...Library) { std.LinkLibrary(libs...) }

// LinkSearch adds library search paths.
func LinkSearch(paths ...string) { std.LinkSearch(paths...) }

// LinkSearchKind adds library search paths of the given kind.
func LinkSearchKind(kind SearchKind, paths ...string) { std.LinkSearchKind(kind, paths...) }

// Flags passes raw -l/-L flags to the compiler.
func Flags(flags ...string) { std.Flags(flags...) }

// Cfg enables the cfg option name.
func Cfg(name string) { std.Cfg(name) }

// CfgValue sets the cfg option name="value".
func CfgValue(name, value string) { std.CfgValue(name, value) }

// CheckCfg declares an expected cfg and its values.
func CheckCfg(name string, values ...string) { std.CheckCfg(name, values...) }

// CheckCfgs declares expected cfgs without values.
func CheckCfgs(names ...string) { std.CheckCfgs(names...) }

// Env sets a compile-time environment variable.
func Env(name, value string) { std.Env(name, value) }

// Metadata publishes key=value to dependent build scripts.
func Metadata(key, value string) { std.Metadata(key, value) }

// Warning shows msg as a build warning.
func Warning(msg string) { std.Warning(msg) }

// Warningf formats and shows a build warning.
func Warningf(format string, args ...any) { std.Warningf(format, args...) }

// Error reports msg as a build error.
func Error(msg string) { std.Error(msg) }

// Errorf formats and reports a build error.
func Errorf(format string, args ...any) { std.Errorf(format, args...) }
