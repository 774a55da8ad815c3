package zbitvector

import (
	"math/big"

	"github.com/benbjohnson/zbitvector/smt"
)

// BitVector is implemented by Uint and Int of every width.
type BitVector interface {
	Symbolic
	bitvector()
}

// BitVectorType is satisfied by every bit-vector kind T.
type BitVectorType[T any] interface {
	BitVector
	wrap(s *Session, t smt.Term) T
}

func (Uint[W]) bitvector() {}
func (Int[W]) bitvector()  {}

// Uint is an unsigned bit-vector of width W. Comparison and division are
// unsigned, right shifts fill with zero and widening zero-extends.
type Uint[W Width] struct {
	value
}

// NewUint returns the literal v in the default session. Panic if v does not
// fit in W bits.
func NewUint[W Width](v uint64) Uint[W] {
	return UintIn[W](Default(), v)
}

// UintIn returns the literal v in s. Panic if v does not fit in W bits.
func UintIn[W Width](s *Session, v uint64) Uint[W] {
	return BigUintIn[W](s, new(big.Int).SetUint64(v))
}

// BigUintIn returns the literal v in s. Panic if v is negative or does not
// fit in W bits.
func BigUintIn[W Width](s *Session, v *big.Int) Uint[W] {
	w := bits[W]()
	assert(v.Sign() >= 0 && uint(v.BitLen()) <= w, "literal %s does not fit Uint%d", v, w)
	return Uint[W]{value{s, s.literal(smt.BitVec(w), v)}}
}

func (Uint[W]) wrap(s *Session, t smt.Term) Uint[W] { return Uint[W]{value{s, t}} }

// Kind returns the kind of Uint[W].
func (Uint[W]) Kind() Kind { return Kind{Class: UintClass, Width: bits[W]()} }

// String returns a debug rendering such as Uint8(`x`).
func (x Uint[W]) String() string { return x.format(x.Kind()) }

func (x Uint[W]) op(op smt.Op, args ...value) Uint[W] {
	return x.wrap(build(op, nil, append([]value{x.value}, args...)...))
}

func (x Uint[W]) cmp(op smt.Op, y Uint[W]) Constraint {
	return newConstraint(build(op, nil, x.value, y.value))
}

// Eq returns a constraint that holds when x equals y.
func (x Uint[W]) Eq(y Uint[W]) Constraint { return x.cmp(smt.Equal, y) }

// Ne returns a constraint that holds when x differs from y.
func (x Uint[W]) Ne(y Uint[W]) Constraint { return x.cmp(smt.Distinct, y) }

// Lt returns a constraint that holds when x < y.
func (x Uint[W]) Lt(y Uint[W]) Constraint { return x.cmp(smt.BVUlt, y) }

// Le returns a constraint that holds when x <= y.
func (x Uint[W]) Le(y Uint[W]) Constraint { return x.cmp(smt.BVUle, y) }

// Gt returns a constraint that holds when x > y.
func (x Uint[W]) Gt(y Uint[W]) Constraint { return y.Lt(x) }

// Ge returns a constraint that holds when x >= y.
func (x Uint[W]) Ge(y Uint[W]) Constraint { return y.Le(x) }

// Not returns the bitwise complement of x.
func (x Uint[W]) Not() Uint[W] { return x.op(smt.BVNot) }

// Neg returns the two's-complement negation of x.
func (x Uint[W]) Neg() Uint[W] { return x.op(smt.BVNeg) }

func (x Uint[W]) And(y Uint[W]) Uint[W] { return x.op(smt.BVAnd, y.value) }
func (x Uint[W]) Or(y Uint[W]) Uint[W]  { return x.op(smt.BVOr, y.value) }
func (x Uint[W]) Xor(y Uint[W]) Uint[W] { return x.op(smt.BVXor, y.value) }

// Add returns x + y, wrapping on overflow.
func (x Uint[W]) Add(y Uint[W]) Uint[W] { return x.op(smt.BVAdd, y.value) }

// Sub returns x - y, wrapping on overflow.
func (x Uint[W]) Sub(y Uint[W]) Uint[W] { return x.op(smt.BVSub, y.value) }

// Mul returns x * y, wrapping on overflow.
func (x Uint[W]) Mul(y Uint[W]) Uint[W] { return x.op(smt.BVMul, y.value) }

// Div returns the unsigned quotient x / y. Division by zero follows the
// backend's semantics; SMT-LIB defines it as all ones.
func (x Uint[W]) Div(y Uint[W]) Uint[W] { return x.op(smt.BVUDiv, y.value) }

// Rem returns the unsigned remainder x % y. SMT-LIB defines x % 0 as x.
func (x Uint[W]) Rem(y Uint[W]) Uint[W] { return x.op(smt.BVURem, y.value) }

// Shl returns x shifted left by y bits. Shifts of W or more yield zero.
func (x Uint[W]) Shl(y Uint[W]) Uint[W] { return x.op(smt.BVShl, y.value) }

// Shr returns x shifted right by y bits, filling with zero.
func (x Uint[W]) Shr(y Uint[W]) Uint[W] { return x.op(smt.BVLShr, y.value) }

// Int is a signed two's-complement bit-vector of width W. Comparison and
// division are signed, right shifts fill with the sign bit and widening
// sign-extends.
type Int[W Width] struct {
	value
}

// NewInt returns the literal v in the default session. Panic if v does not
// fit in W bits.
func NewInt[W Width](v int64) Int[W] {
	return IntIn[W](Default(), v)
}

// IntIn returns the literal v in s. Panic if v does not fit in W bits.
func IntIn[W Width](s *Session, v int64) Int[W] {
	return BigIntIn[W](s, big.NewInt(v))
}

// BigIntIn returns the literal v in s. Panic if v does not fit in W bits.
func BigIntIn[W Width](s *Session, v *big.Int) Int[W] {
	w := bits[W]()
	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), w-1))
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), w-1), big.NewInt(1))
	assert(v.Cmp(min) >= 0 && v.Cmp(max) <= 0, "literal %s does not fit Int%d", v, w)

	// Encode as two's complement.
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), w))
	}
	return Int[W]{value{s, s.literal(smt.BitVec(w), u)}}
}

func (Int[W]) wrap(s *Session, t smt.Term) Int[W] { return Int[W]{value{s, t}} }

// Kind returns the kind of Int[W].
func (Int[W]) Kind() Kind { return Kind{Class: IntClass, Width: bits[W]()} }

// String returns a debug rendering such as Int8(`y`).
func (x Int[W]) String() string { return x.format(x.Kind()) }

func (x Int[W]) op(op smt.Op, args ...value) Int[W] {
	return x.wrap(build(op, nil, append([]value{x.value}, args...)...))
}

func (x Int[W]) cmp(op smt.Op, y Int[W]) Constraint {
	return newConstraint(build(op, nil, x.value, y.value))
}

// Eq returns a constraint that holds when x equals y.
func (x Int[W]) Eq(y Int[W]) Constraint { return x.cmp(smt.Equal, y) }

// Ne returns a constraint that holds when x differs from y.
func (x Int[W]) Ne(y Int[W]) Constraint { return x.cmp(smt.Distinct, y) }

// Lt returns a constraint that holds when x < y.
func (x Int[W]) Lt(y Int[W]) Constraint { return x.cmp(smt.BVSlt, y) }

// Le returns a constraint that holds when x <= y.
func (x Int[W]) Le(y Int[W]) Constraint { return x.cmp(smt.BVSle, y) }

// Gt returns a constraint that holds when x > y.
func (x Int[W]) Gt(y Int[W]) Constraint { return y.Lt(x) }

// Ge returns a constraint that holds when x >= y.
func (x Int[W]) Ge(y Int[W]) Constraint { return y.Le(x) }

// Not returns the bitwise complement of x.
func (x Int[W]) Not() Int[W] { return x.op(smt.BVNot) }

// Neg returns -x. The minimum value negates to itself.
func (x Int[W]) Neg() Int[W] { return x.op(smt.BVNeg) }

func (x Int[W]) And(y Int[W]) Int[W] { return x.op(smt.BVAnd, y.value) }
func (x Int[W]) Or(y Int[W]) Int[W]  { return x.op(smt.BVOr, y.value) }
func (x Int[W]) Xor(y Int[W]) Int[W] { return x.op(smt.BVXor, y.value) }

// Add returns x + y, wrapping on overflow.
func (x Int[W]) Add(y Int[W]) Int[W] { return x.op(smt.BVAdd, y.value) }

// Sub returns x - y, wrapping on overflow.
func (x Int[W]) Sub(y Int[W]) Int[W] { return x.op(smt.BVSub, y.value) }

// Mul returns x * y, wrapping on overflow.
func (x Int[W]) Mul(y Int[W]) Int[W] { return x.op(smt.BVMul, y.value) }

// Div returns the signed quotient x / y truncated toward zero. SMT-LIB
// defines x / 0 as 1 for negative x and -1 otherwise.
func (x Int[W]) Div(y Int[W]) Int[W] { return x.op(smt.BVSDiv, y.value) }

// Rem returns the signed remainder x % y, which takes the sign of x.
// SMT-LIB defines x % 0 as x.
func (x Int[W]) Rem(y Int[W]) Int[W] { return x.op(smt.BVSRem, y.value) }

// Shl returns x shifted left by the unsigned amount y.
func (x Int[W]) Shl(y Uint[W]) Int[W] { return x.op(smt.BVShl, y.value) }

// Shr returns x shifted right by the unsigned amount y, filling with the
// sign bit.
func (x Int[W]) Shr(y Uint[W]) Int[W] { return x.op(smt.BVAShr, y.value) }

// Into converts x to the bit-vector kind T. Narrowing keeps the low-order
// bits. Widening extends with zeros when x is a Uint and with the sign bit
// when x is an Int. Converting to the same width reuses x's term.
func Into[T BitVectorType[T]](x BitVector) T {
	var zero T
	from, to := x.Kind(), zero.Kind()
	v := x.val()

	switch {
	case to.Width == from.Width:
		return zero.wrap(v.session(), v.t)
	case to.Width < from.Width:
		return zero.wrap(build(smt.Extract, []uint{to.Width - 1, 0}, v))
	case from.Class == IntClass:
		return zero.wrap(build(smt.SignExtend, []uint{to.Width - from.Width}, v))
	default:
		return zero.wrap(build(smt.ZeroExtend, []uint{to.Width - from.Width}, v))
	}
}
