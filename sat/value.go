package sat

import (
	"fmt"
	"math/big"

	"github.com/benbjohnson/zbitvector/smt"
)

// value represents a concrete bit pattern of a fixed width. Booleans are
// represented with a width of one. v is always in [0, 2^w).
type value struct {
	v *big.Int
	w uint
}

// newValue returns v truncated to w bits.
func newValue(v *big.Int, w uint) value {
	return value{v: new(big.Int).And(v, mask(w)), w: w}
}

func newBool(b bool) value {
	if b {
		return value{v: big.NewInt(1), w: 1}
	}
	return value{v: new(big.Int), w: 1}
}

// mask returns 2^w - 1.
func mask(w uint) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), w)
	return m.Sub(m, big.NewInt(1))
}

// IsTrue returns true if the lowest bit is set.
func (x value) IsTrue() bool { return x.v.Bit(0) == 1 }

// IsZero returns true if all bits are clear.
func (x value) IsZero() bool { return x.v.Sign() == 0 }

// signed returns the two's-complement interpretation of x.
func (x value) signed() *big.Int {
	if x.v.Bit(int(x.w)-1) == 0 {
		return x.v
	}
	return new(big.Int).Sub(x.v, new(big.Int).Lsh(big.NewInt(1), x.w))
}

func (x value) Not() value { return newValue(new(big.Int).Not(x.v), x.w) }
func (x value) Neg() value { return newValue(new(big.Int).Neg(x.v), x.w) }

func (x value) And(y value) value { return newValue(new(big.Int).And(x.v, y.v), x.w) }
func (x value) Or(y value) value  { return newValue(new(big.Int).Or(x.v, y.v), x.w) }
func (x value) Xor(y value) value { return newValue(new(big.Int).Xor(x.v, y.v), x.w) }
func (x value) Add(y value) value { return newValue(new(big.Int).Add(x.v, y.v), x.w) }
func (x value) Sub(y value) value { return newValue(new(big.Int).Sub(x.v, y.v), x.w) }
func (x value) Mul(y value) value { return newValue(new(big.Int).Mul(x.v, y.v), x.w) }

// UDiv returns the unsigned quotient. Division by zero yields all ones.
func (x value) UDiv(y value) value {
	if y.IsZero() {
		return value{v: mask(x.w), w: x.w}
	}
	return newValue(new(big.Int).Quo(x.v, y.v), x.w)
}

// URem returns the unsigned remainder. Division by zero yields x.
func (x value) URem(y value) value {
	if y.IsZero() {
		return x
	}
	return newValue(new(big.Int).Rem(x.v, y.v), x.w)
}

// SDiv returns the signed quotient truncated toward zero. Division by zero
// yields 1 for a negative dividend and -1 otherwise.
func (x value) SDiv(y value) value {
	if y.IsZero() {
		if x.signed().Sign() < 0 {
			return newValue(big.NewInt(1), x.w)
		}
		return value{v: mask(x.w), w: x.w}
	}
	return newValue(new(big.Int).Quo(x.signed(), y.signed()), x.w)
}

// SRem returns the signed remainder, which takes the sign of the dividend.
// Division by zero yields x.
func (x value) SRem(y value) value {
	if y.IsZero() {
		return x
	}
	return newValue(new(big.Int).Rem(x.signed(), y.signed()), x.w)
}

// Shl returns x shifted left by y bits.
func (x value) Shl(y value) value {
	if y.v.Cmp(big.NewInt(int64(x.w))) >= 0 {
		return newValue(new(big.Int), x.w)
	}
	return newValue(new(big.Int).Lsh(x.v, uint(y.v.Uint64())), x.w)
}

// LShr returns x shifted right by y bits, filling with zero.
func (x value) LShr(y value) value {
	if y.v.Cmp(big.NewInt(int64(x.w))) >= 0 {
		return newValue(new(big.Int), x.w)
	}
	return newValue(new(big.Int).Rsh(x.v, uint(y.v.Uint64())), x.w)
}

// AShr returns x shifted right by y bits, filling with the sign bit.
func (x value) AShr(y value) value {
	n := x.w
	if y.v.Cmp(big.NewInt(int64(x.w))) < 0 {
		n = uint(y.v.Uint64())
	}
	return newValue(new(big.Int).Rsh(x.signed(), n), x.w)
}

func (x value) Eq(y value) value  { return newBool(x.v.Cmp(y.v) == 0) }
func (x value) Ult(y value) value { return newBool(x.v.Cmp(y.v) < 0) }
func (x value) Ule(y value) value { return newBool(x.v.Cmp(y.v) <= 0) }
func (x value) Slt(y value) value { return newBool(x.signed().Cmp(y.signed()) < 0) }
func (x value) Sle(y value) value { return newBool(x.signed().Cmp(y.signed()) <= 0) }

// Extract returns bits hi through lo of x.
func (x value) Extract(hi, lo uint) value {
	return newValue(new(big.Int).Rsh(x.v, lo), hi-lo+1)
}

// ZExt returns x padded with n zero bits.
func (x value) ZExt(n uint) value { return value{v: x.v, w: x.w + n} }

// SExt returns x padded with n copies of its sign bit.
func (x value) SExt(n uint) value { return newValue(x.signed(), x.w+n) }

// Concat returns x as the high bits and lsb as the low bits.
func (x value) Concat(lsb value) value {
	v := new(big.Int).Lsh(x.v, lsb.w)
	return value{v: v.Or(v, lsb.v), w: x.w + lsb.w}
}

// apply computes op over concrete operands.
func apply(op smt.Op, args []value, params []uint) value {
	switch op {
	case smt.Not:
		return newBool(!args[0].IsTrue())
	case smt.And:
		return newBool(args[0].IsTrue() && args[1].IsTrue())
	case smt.Or:
		return newBool(args[0].IsTrue() || args[1].IsTrue())
	case smt.Xor:
		return newBool(args[0].IsTrue() != args[1].IsTrue())
	case smt.Implies:
		return newBool(!args[0].IsTrue() || args[1].IsTrue())
	case smt.Equal:
		return args[0].Eq(args[1])
	case smt.Distinct:
		return newBool(!args[0].Eq(args[1]).IsTrue())
	case smt.Ite:
		if args[0].IsTrue() {
			return args[1]
		}
		return args[2]
	case smt.BVNot:
		return args[0].Not()
	case smt.BVNeg:
		return args[0].Neg()
	case smt.BVAnd:
		return args[0].And(args[1])
	case smt.BVOr:
		return args[0].Or(args[1])
	case smt.BVXor:
		return args[0].Xor(args[1])
	case smt.BVAdd:
		return args[0].Add(args[1])
	case smt.BVSub:
		return args[0].Sub(args[1])
	case smt.BVMul:
		return args[0].Mul(args[1])
	case smt.BVUDiv:
		return args[0].UDiv(args[1])
	case smt.BVSDiv:
		return args[0].SDiv(args[1])
	case smt.BVURem:
		return args[0].URem(args[1])
	case smt.BVSRem:
		return args[0].SRem(args[1])
	case smt.BVShl:
		return args[0].Shl(args[1])
	case smt.BVLShr:
		return args[0].LShr(args[1])
	case smt.BVAShr:
		return args[0].AShr(args[1])
	case smt.BVUlt:
		return args[0].Ult(args[1])
	case smt.BVUle:
		return args[0].Ule(args[1])
	case smt.BVSlt:
		return args[0].Slt(args[1])
	case smt.BVSle:
		return args[0].Sle(args[1])
	case smt.Extract:
		return args[0].Extract(params[0], params[1])
	case smt.ZeroExtend:
		return args[0].ZExt(params[0])
	case smt.SignExtend:
		return args[0].SExt(params[0])
	case smt.Concat:
		return args[0].Concat(args[1])
	default:
		panic(fmt.Sprintf("sat.apply: unexpected operator: %s", op))
	}
}
