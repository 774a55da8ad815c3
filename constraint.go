package zbitvector

import (
	"math/big"

	"github.com/benbjohnson/zbitvector/smt"
)

// Constraint is a boolean-sorted symbolic value.
//
// Constraints cannot be used where a Go bool is required. Decide them with a
// Solver instead.
type Constraint struct {
	value
}

// NewBool returns the literal constraint b in the default session.
func NewBool(b bool) Constraint {
	return BoolIn(Default(), b)
}

// BoolIn returns the literal constraint b in s.
func BoolIn(s *Session, b bool) Constraint {
	var v int64
	if b {
		v = 1
	}
	return Constraint{value{s, s.literal(smt.Bool, big.NewInt(v))}}
}

func (Constraint) wrap(s *Session, t smt.Term) Constraint { return Constraint{value{s, t}} }

func newConstraint(s *Session, t smt.Term) Constraint { return Constraint{value{s, t}} }

// Kind returns the Constraint kind.
func (Constraint) Kind() Kind { return Kind{Class: BoolClass} }

// String returns a debug rendering such as Constraint(`p`).
func (x Constraint) String() string { return x.format(x.Kind()) }

// Eq returns a constraint that holds when x and y are both true or both false.
func (x Constraint) Eq(y Constraint) Constraint {
	return newConstraint(build(smt.Equal, nil, x.value, y.value))
}

// Ne returns a constraint that holds when x and y differ.
func (x Constraint) Ne(y Constraint) Constraint {
	return newConstraint(build(smt.Distinct, nil, x.value, y.value))
}

// Not returns the negation of x.
func (x Constraint) Not() Constraint {
	return newConstraint(build(smt.Not, nil, x.value))
}

// And returns the conjunction of x and y.
func (x Constraint) And(y Constraint) Constraint {
	return newConstraint(build(smt.And, nil, x.value, y.value))
}

// Or returns the disjunction of x and y.
func (x Constraint) Or(y Constraint) Constraint {
	return newConstraint(build(smt.Or, nil, x.value, y.value))
}

// Xor returns the exclusive disjunction of x and y.
func (x Constraint) Xor(y Constraint) Constraint {
	return newConstraint(build(smt.Xor, nil, x.value, y.value))
}

// Implies returns a constraint that holds when x is false or y is true.
func (x Constraint) Implies(y Constraint) Constraint {
	return newConstraint(build(smt.Implies, nil, x.value, y.value))
}
