package zbitvector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/immutable"
	"github.com/benbjohnson/zbitvector/smt"
)

// Solver accumulates constraints and checks them for satisfiability together
// with per-call assumptions. Constraints are kept in insertion order and are
// never removed.
//
// Solvers in the same session share its backend and named constants but not
// their accumulated constraints.
type Solver struct {
	session    *Session
	assertions *immutable.List // Constraint
}

func newSolver(s *Session) *Solver {
	return &Solver{
		session:    s,
		assertions: immutable.NewList(),
	}
}

// NewSolver returns a new solver in the default session.
func NewSolver() *Solver {
	return Default().NewSolver()
}

// Session returns the solver's session.
func (s *Solver) Session() *Session { return s.session }

// Add appends constraints to the accumulated set. The backend is not
// consulted until the next check.
func (s *Solver) Add(cs ...Constraint) {
	for _, c := range cs {
		s.assertions = s.assertions.Append(c)
	}
}

// Len returns the number of accumulated constraints.
func (s *Solver) Len() int {
	return s.assertions.Len()
}

// Assertions returns the accumulated constraints in insertion order.
func (s *Solver) Assertions() []Constraint {
	a := make([]Constraint, 0, s.assertions.Len())
	itr := s.assertions.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(Constraint))
	}
	return a
}

// Check reports whether the accumulated constraints and assumptions can all
// hold at once. Every constraint is passed to the backend again on each call.
// An error wrapping ErrUnresolved is returned if the backend cannot decide.
func (s *Solver) Check(assumptions ...Constraint) (bool, error) {
	cs := append(s.Assertions(), assumptions...)
	for _, c := range cs {
		if c.s == nil || c.t == nil {
			return false, fmt.Errorf("%w: uninitialized constraint", ErrUsage)
		} else if c.s != s.session {
			return false, fmt.Errorf("%w: %s belongs to another session", ErrUsage, c)
		}
	}

	b := s.session.backend
	for _, c := range cs {
		b.Assume(c.t)
	}

	t := time.Now()
	result, err := b.Check()
	elapsed := time.Since(t)

	s.session.metrics.checks.WithLabelValues(result.String()).Inc()
	s.session.metrics.duration.Observe(elapsed.Seconds())
	s.session.logger.Debug("check",
		slog.Int("assertions", s.assertions.Len()),
		slog.Int("assumptions", len(assumptions)),
		slog.String("result", result.String()),
		slog.Duration("elapsed", elapsed),
	)

	switch {
	case result == smt.Sat && err == nil:
		return true, nil
	case result == smt.Unsat && err == nil:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: %w", ErrUnresolved, err)
	default:
		return false, ErrUnresolved
	}
}
