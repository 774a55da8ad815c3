package zbitvector

import (
	"fmt"

	"github.com/benbjohnson/zbitvector/smt"
)

// Symbolic represents an immutable symbolic value: one backend term viewed
// through a concrete kind. Copying a Symbolic copies the reference, not the term.
type Symbolic interface {
	fmt.Stringer

	// Session returns the session that owns the value's term.
	Session() *Session

	// Term returns the underlying backend term.
	Term() smt.Term

	// Kind returns the concrete kind of the value.
	Kind() Kind

	// SMTLib returns the backend's rendering of the expression tree.
	SMTLib() string

	val() value
}

// Type is satisfied by every concrete symbolic kind T. Its zero value can
// describe and construct values of T.
type Type[T any] interface {
	Symbolic
	wrap(s *Session, t smt.Term) T
}

// value holds the state shared by all symbolic kinds.
type value struct {
	s *Session
	t smt.Term
}

// Session returns the session that owns the value's term.
func (x value) Session() *Session { return x.s }

// Term returns the underlying backend term.
func (x value) Term() smt.Term { return x.t }

// SMTLib returns the backend's rendering of the expression tree.
func (x value) SMTLib() string {
	if x.s == nil {
		return "<nil>"
	}
	return x.s.backend.Dump(x.t)
}

func (x value) val() value { return x }

// session returns the owning session. Panic if x is a zero value.
func (x value) session() *Session {
	if x.s == nil || x.t == nil {
		usage("uninitialized symbolic value")
	}
	return x.s
}

// format renders x as Kind(`text`) where text is the constant's name or the
// expression dump.
func (x value) format(k Kind) string {
	if x.s == nil {
		return fmt.Sprintf("%s(nil)", k)
	}
	text, ok := x.s.backend.Symbol(x.t)
	if !ok {
		text = x.s.backend.Dump(x.t)
	}
	return fmt.Sprintf("%s(`%s`)", k, text)
}

// build returns a new term combining the operands under op. Every operand
// must belong to the same session.
func build(op smt.Op, params []uint, args ...value) (*Session, smt.Term) {
	s := args[0].session()
	terms := make([]smt.Term, len(args))
	for i, arg := range args {
		if arg.session() != s {
			usage("%s: operands belong to different sessions", op)
		}
		terms[i] = arg.t
	}

	t, err := s.backend.Term(op, terms, params...)
	if err != nil {
		panic(err)
	}
	return s, t
}

// NamedIn returns the named constant of kind T in s. Requesting a name that
// was first created with a different kind returns a *NameConflictError.
func NamedIn[T Type[T]](s *Session, name string) (T, error) {
	var zero T
	t, err := s.intern(name, zero.Kind())
	if err != nil {
		return zero, err
	}
	return zero.wrap(s, t), nil
}

// Named returns the named constant of kind T in the default session.
func Named[T Type[T]](name string) (T, error) {
	return NamedIn[T](Default(), name)
}

// MustNamed is like Named but panics on error.
func MustNamed[T Type[T]](name string) T {
	v, err := Named[T](name)
	if err != nil {
		panic(err)
	}
	return v
}

// Select returns then if cond holds and els otherwise.
func Select[T Type[T]](cond Constraint, then, els T) T {
	var zero T
	return zero.wrap(build(smt.Ite, nil, cond.value, then.val(), els.val()))
}
