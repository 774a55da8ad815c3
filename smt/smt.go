// Package smt defines the boundary between the symbolic value layer and an
// SMT solving engine: sorts, operator kinds, terms and the assumption/check
// protocol.
package smt

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrWidthMismatch = errors.New("bit-vector width mismatch")
	ErrSortMismatch  = errors.New("sort mismatch")
	ErrArity         = errors.New("wrong number of operands")
	ErrParams        = errors.New("invalid operator parameters")
	ErrValueRange    = errors.New("value does not fit sort")
	ErrTimeout       = errors.New("solver timeout")
	ErrNoModel       = errors.New("no model available")
	ErrForeignTerm   = errors.New("term belongs to another backend")
)

// Term is a backend-owned handle for one node of a symbolic expression.
// Terms are immutable. Two terms denote the same expression if they compare equal.
type Term interface {
	Sort() Sort
}

// Result is the outcome of a satisfiability check.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

// String returns the SMT-LIB spelling of the result.
func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Backend represents an SMT solving engine.
//
// A backend owns every term it creates. Assumptions registered with Assume
// apply to the next call to Check only.
type Backend interface {
	// BoolSort returns the boolean sort.
	BoolSort() Sort

	// BitVecSort returns the bit-vector sort of the given width.
	BitVecSort(width uint) Sort

	// Const mints a fresh named constant of the given sort.
	Const(sort Sort, name string) Term

	// Value mints a literal of the given sort. Booleans use 0 and 1.
	Value(sort Sort, v *big.Int) (Term, error)

	// Term builds a derived term. Indexed operators take their integer
	// parameters in params: extract takes (high, low), extensions take the
	// number of added bits.
	Term(op Op, args []Term, params ...uint) (Term, error)

	// Assume registers t as an assumption for the next check.
	Assume(t Term)

	// Check reports the satisfiability of the pending assumptions. An Unknown
	// result is returned with an error describing why.
	Check() (Result, error)

	// Dump returns a textual rendering of the expression rooted at t.
	Dump(t Term) string

	// Symbol returns the name of t if it is a named constant.
	Symbol(t Term) (string, bool)
}

// Evaluator is implemented by backends that can report the value of a term
// in the model of the most recent satisfiable check.
type Evaluator interface {
	Eval(t Term) (*big.Int, error)
}

// OpError is returned when an operator is applied to operands of the wrong sort.
type OpError struct {
	Op    Op
	Sorts []Sort
	Err   error
}

// Error returns the error as a string.
func (e *OpError) Error() string {
	sorts := make([]string, len(e.Sorts))
	for i, s := range e.Sorts {
		sorts[i] = s.String()
	}
	return fmt.Sprintf("%s(%s): %s", e.Op, strings.Join(sorts, ", "), e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error { return e.Err }

// ResultSort validates the operand sorts and parameters of op and returns the
// sort of the resulting term.
func ResultSort(op Op, sorts []Sort, params []uint) (Sort, error) {
	fail := func(err error) (Sort, error) {
		return Sort{}, &OpError{Op: op, Sorts: sorts, Err: err}
	}

	if len(sorts) != op.arity() {
		return fail(ErrArity)
	}
	if op.IsIndexed() != (len(params) > 0) {
		return fail(ErrParams)
	}

	switch {
	case op.IsBoolean():
		for _, s := range sorts {
			if !s.IsBool() {
				return fail(ErrSortMismatch)
			}
		}
		return Bool, nil

	case op == Equal, op == Distinct:
		if sorts[0] != sorts[1] {
			return fail(mismatch(sorts[0], sorts[1]))
		}
		return Bool, nil

	case op == Ite:
		if !sorts[0].IsBool() {
			return fail(ErrSortMismatch)
		} else if sorts[1] != sorts[2] {
			return fail(mismatch(sorts[1], sorts[2]))
		}
		return sorts[1], nil

	case op.IsArithmetic(), op.IsCompare():
		for _, s := range sorts {
			if !s.IsBitVec() {
				return fail(ErrSortMismatch)
			}
		}
		if len(sorts) == 2 && sorts[0] != sorts[1] {
			return fail(ErrWidthMismatch)
		}
		if op.IsCompare() {
			return Bool, nil
		}
		return sorts[0], nil

	case op == Extract:
		if !sorts[0].IsBitVec() {
			return fail(ErrSortMismatch)
		} else if len(params) != 2 || params[0] < params[1] || params[0] >= sorts[0].Width() {
			return fail(ErrParams)
		}
		return BitVec(params[0] - params[1] + 1), nil

	case op == ZeroExtend, op == SignExtend:
		if !sorts[0].IsBitVec() {
			return fail(ErrSortMismatch)
		} else if len(params) != 1 {
			return fail(ErrParams)
		}
		return BitVec(sorts[0].Width() + params[0]), nil

	case op == Concat:
		if !sorts[0].IsBitVec() || !sorts[1].IsBitVec() {
			return fail(ErrSortMismatch)
		}
		return BitVec(sorts[0].Width() + sorts[1].Width()), nil
	}
	return fail(fmt.Errorf("unsupported operator"))
}

// mismatch returns ErrWidthMismatch when both sorts are bit-vectors and
// ErrSortMismatch otherwise.
func mismatch(a, b Sort) error {
	if a.IsBitVec() && b.IsBitVec() {
		return ErrWidthMismatch
	}
	return ErrSortMismatch
}

// CheckValue returns an error if v cannot be encoded as a literal of sort s.
// Bit-vector literals must lie in [0, 2^w); booleans must be 0 or 1.
func CheckValue(s Sort, v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return fmt.Errorf("%s: %v: %w", s, v, ErrValueRange)
	}
	w := s.Width()
	if s.IsBool() {
		w = 1
	}
	if v.BitLen() > int(w) {
		return fmt.Errorf("%s: %v: %w", s, v, ErrValueRange)
	}
	return nil
}
