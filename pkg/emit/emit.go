// Package emit writes cargo build-script instructions to a sink.
//
// An Emitter is bound to an explicit *sink.Sink. Its methods mirror the
// instruction kinds and follow build-script conventions: an argument that
// cannot be expressed (for example a path containing a newline) or a failed
// write is fatal, reported by panicking with an *Error. Callers that need the
// error instead use Write with lines built by the instruction package.
package emit

import (
	"fmt"

	"github.com/loykin/cargobuild/pkg/instruction"
	"github.com/loykin/cargobuild/pkg/sink"
)

// Observer is notified about every emission. Implementations must be safe for
// concurrent use.
type Observer interface {
	Emitted(kind instruction.Kind, lines, bytes int)
	Rejected(kind instruction.Kind)
	WriteFailed(kind instruction.Kind)
}

// Error is the panic value for a rejected argument or a failed write.
type Error struct {
	Kind instruction.Kind
	Op   string // "format" or "write"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("unable to write %s instruction to build output: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("invalid %s instruction: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Emitter formats instructions and writes them to its sink.
type Emitter struct {
	out      *sink.Sink
	syntax   instruction.Syntax
	observer Observer
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithSyntax selects the instruction prefix. The default is instruction.Modern.
func WithSyntax(s instruction.Syntax) Option {
	return func(e *Emitter) { e.syntax = s }
}

// WithObserver registers o to be told about every emission.
func WithObserver(o Observer) Option {
	return func(e *Emitter) { e.observer = o }
}

// New returns an Emitter writing to out. A nil out writes to standard output.
func New(out *sink.Sink, opts ...Option) *Emitter {
	if out == nil {
		out = sink.New(nil)
	}
	e := &Emitter{out: out}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sink returns the sink e writes to.
func (e *Emitter) Sink() *sink.Sink { return e.out }

// Syntax returns the syntax e renders instructions with.
func (e *Emitter) Syntax() instruction.Syntax { return e.syntax }

// Write renders lines and writes them as one group. Lines of different kinds
// may be mixed; observers are told per kind. Lines that e's syntax cannot
// express are rejected before anything is written.
func (e *Emitter) Write(lines []instruction.Line) error {
	if len(lines) == 0 {
		return nil
	}
	if err := instruction.Check(e.syntax, lines); err != nil {
		if e.observer != nil {
			e.observer.Rejected(lines[0].Kind)
		}
		return err
	}
	rendered := instruction.Render(e.syntax, lines)
	if err := e.out.WriteLines(rendered); err != nil {
		if e.observer != nil {
			e.observer.WriteFailed(lines[0].Kind)
		}
		return err
	}
	if e.observer != nil {
		for i, l := range lines {
			e.observer.Emitted(l.Kind, 1, len(rendered[i])+1)
		}
	}
	return nil
}

func (e *Emitter) must(kind instruction.Kind, lines []instruction.Line, err error) {
	if err == nil {
		err = instruction.Check(e.syntax, lines)
	}
	if err != nil {
		if e.observer != nil {
			e.observer.Rejected(kind)
		}
		panic(&Error{Kind: kind, Op: "format", Err: err})
	}
	if err := e.Write(lines); err != nil {
		panic(&Error{Kind: kind, Op: "write", Err: err})
	}
}
