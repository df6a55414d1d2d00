// Package cerr defines the error kinds produced by the compilation pipeline.
//
// Construction and verifier errors are returned to the caller,
// resource-limit violations are fatal but still returned, and internal
// invariant violations panic rather than return — the caller is not
// expected to recover from those.
package cerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies where in the pipeline an error originated.
type Kind int

const (
	// Construction indicates a builder-time error (bad arity, bad type).
	Construction Kind = iota
	// Verifier indicates an IR invariant violation caught by the verifier.
	Verifier
	// Unsupported indicates the legalizer found no encoding and no expander
	// for an instruction — almost always a front-end bug.
	Unsupported
	// ResourceLimit indicates a per-function arena capacity limit was exceeded.
	ResourceLimit
)

func (k Kind) String() string {
	switch k {
	case Construction:
		return "construction"
	case Verifier:
		return "verifier"
	case Unsupported:
		return "unsupported"
	case ResourceLimit:
		return "resource-limit"
	default:
		return "unknown"
	}
}

// Handle identifies the IR entity (instruction, block, or value) an error is
// attached to, decoupled from the ir package to avoid an import cycle.
type Handle struct {
	Space string // "inst", "block", "value", or "entity"
	Index uint32
}

func (h Handle) String() string {
	if h.Space == "" {
		return "<none>"
	}
	return fmt.Sprintf("%s%d", h.Space, h.Index)
}

// Error is a structured compiler error with an offending handle and a
// human-readable message, classified into one of the Kinds above.
type Error struct {
	Kind    Kind
	Handle  Handle
	Message string
}

func (e *Error) Error() string {
	if e.Handle.Space == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Handle, e.Message)
}

// Builder is a fluent constructor for Error.
type Builder struct {
	err Error
}

// New starts building an Error of the given kind with the given message.
func New(kind Kind, format string, args ...any) *Builder {
	return &Builder{err: Error{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// At attaches the offending entity handle.
func (b *Builder) At(h Handle) *Builder {
	b.err.Handle = h
	return b
}

// Err finalizes the builder into an error value.
func (b *Builder) Err() error {
	e := b.err
	return &e
}

// Internal panics with an Error describing an internal invariant violation.
// This disposition is never returned to a caller to recover from: it means
// a pass produced IR its own preconditions should have ruled out.
func Internal(format string, args ...any) {
	panic(&Error{Kind: Verifier, Message: "internal invariant violation: " + fmt.Sprintf(format, args...)})
}

// Wrap attaches a stack trace and a message to err. compile.Function uses it
// to label the errors verify and legalize return with their stage name.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}
