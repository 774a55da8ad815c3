// Package zbitvector provides typed symbolic bit-vectors and boolean
// constraints over an SMT backend.
//
// Values are built with ordinary methods (Add, Lt, Eq, ...) and handed to a
// Solver, which reports whether a set of constraints can hold at once:
//
//	x := zbitvector.MustNamed[zbitvector.Uint32]("x")
//	s := zbitvector.NewSolver()
//	s.Add(x.Lt(zbitvector.NewUint[zbitvector.W32](10)))
//	ok, err := s.Check(x.Gt(zbitvector.NewUint[zbitvector.W32](3)))
//
// Bit-vector widths are type parameters, so operands of different widths do
// not compile. Every value belongs to a Session. Functions without a session
// argument use the process-wide default session.
package zbitvector

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/zbitvector/smt"
)

var (
	ErrNameConflict = errors.New("name conflict")
	ErrUsage        = errors.New("invalid use of symbolic value")
	ErrUnresolved   = errors.New("satisfiability could not be determined")

	// ErrWidthMismatch is reported by the backend when operand widths differ.
	ErrWidthMismatch = smt.ErrWidthMismatch
)

// NameConflictError is returned when a name is requested for a kind other
// than the kind that first claimed it.
type NameConflictError struct {
	Name      string
	Existing  Kind
	Requested Kind
}

// Error returns the error message.
func (e *NameConflictError) Error() string {
	return fmt.Sprintf("cannot create %s(%q) because %s(%q) already exists", e.Requested, e.Name, e.Existing, e.Name)
}

// Is returns true if target is ErrNameConflict.
func (e *NameConflictError) Is(target error) bool {
	return target == ErrNameConflict
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}

// usage panics with an error wrapping ErrUsage.
func usage(format string, args ...interface{}) {
	panic(fmt.Errorf("%w: "+format, append([]interface{}{ErrUsage}, args...)...))
}
