package sat

import (
	"fmt"

	"github.com/benbjohnson/zbitvector/smt"
	"github.com/go-air/gini/z"
)

// blast returns the circuit literals encoding t, least significant bit first.
// Boolean terms encode to a single literal.
func (b *Backend) blast(t *term) []z.Lit {
	if t.bits != nil {
		return t.bits
	}

	switch t.kind {
	case valueTerm:
		t.bits = make([]z.Lit, t.width())
		for i := range t.bits {
			t.bits[i] = b.constant(t.value.v.Bit(i) == 1)
		}
	case constTerm:
		t.inputAt = len(b.inputs)
		t.bits = make([]z.Lit, t.width())
		for i := range t.bits {
			t.bits[i] = b.c.Lit()
			b.inputs = append(b.inputs, t.bits[i])
		}
	default:
		args := make([][]z.Lit, len(t.args))
		for i, arg := range t.args {
			args[i] = b.blast(arg)
		}
		t.bits = b.blastOp(t.op, args, t.params)
	}
	return t.bits
}

func (b *Backend) blastOp(op smt.Op, args [][]z.Lit, params []uint) []z.Lit {
	switch op {
	case smt.Not, smt.BVNot:
		return b.not(args[0])
	case smt.And, smt.BVAnd:
		return b.bitwise(args[0], args[1], b.c.And)
	case smt.Or, smt.BVOr:
		return b.bitwise(args[0], args[1], b.c.Or)
	case smt.Xor, smt.BVXor:
		return b.bitwise(args[0], args[1], b.xor)
	case smt.Implies:
		return []z.Lit{b.c.Or(args[0][0].Not(), args[1][0])}
	case smt.Equal:
		return []z.Lit{b.eq(args[0], args[1])}
	case smt.Distinct:
		return []z.Lit{b.eq(args[0], args[1]).Not()}
	case smt.Ite:
		return b.mux(args[0][0], args[1], args[2])
	case smt.BVNeg:
		return b.neg(args[0])
	case smt.BVAdd:
		sum, _ := b.rippleAdd(args[0], args[1], b.c.F)
		return sum
	case smt.BVSub:
		return b.sub(args[0], args[1])
	case smt.BVMul:
		return b.mul(args[0], args[1])
	case smt.BVUDiv:
		q, _ := b.udivrem(args[0], args[1])
		return q
	case smt.BVURem:
		_, r := b.udivrem(args[0], args[1])
		return r
	case smt.BVSDiv:
		q, _ := b.sdivrem(args[0], args[1])
		return q
	case smt.BVSRem:
		_, r := b.sdivrem(args[0], args[1])
		return r
	case smt.BVShl:
		return b.shift(args[0], args[1], shiftLeft)
	case smt.BVLShr:
		return b.shift(args[0], args[1], shiftLogical)
	case smt.BVAShr:
		return b.shift(args[0], args[1], shiftArithmetic)
	case smt.BVUlt:
		return []z.Lit{b.ult(args[0], args[1])}
	case smt.BVUle:
		return []z.Lit{b.ult(args[1], args[0]).Not()}
	case smt.BVSlt:
		return []z.Lit{b.ult(b.flipSign(args[0]), b.flipSign(args[1]))}
	case smt.BVSle:
		return []z.Lit{b.ult(b.flipSign(args[1]), b.flipSign(args[0])).Not()}
	case smt.Extract:
		return append([]z.Lit(nil), args[0][params[1]:params[0]+1]...)
	case smt.ZeroExtend:
		return b.extend(args[0], params[0], b.c.F)
	case smt.SignExtend:
		return b.extend(args[0], params[0], args[0][len(args[0])-1])
	case smt.Concat:
		return append(append([]z.Lit(nil), args[1]...), args[0]...)
	default:
		panic(fmt.Sprintf("sat.blastOp: unexpected operator: %s", op))
	}
}

func (b *Backend) constant(v bool) z.Lit {
	if v {
		return b.c.T
	}
	return b.c.F
}

func (b *Backend) xor(x, y z.Lit) z.Lit {
	return b.c.Or(b.c.And(x, y.Not()), b.c.And(x.Not(), y))
}

func (b *Backend) not(x []z.Lit) []z.Lit {
	out := make([]z.Lit, len(x))
	for i, m := range x {
		out[i] = m.Not()
	}
	return out
}

func (b *Backend) bitwise(x, y []z.Lit, fn func(a, b z.Lit) z.Lit) []z.Lit {
	out := make([]z.Lit, len(x))
	for i := range x {
		out[i] = fn(x[i], y[i])
	}
	return out
}

// mux returns t when c is true and e otherwise.
func (b *Backend) mux(c z.Lit, t, e []z.Lit) []z.Lit {
	out := make([]z.Lit, len(t))
	for i := range t {
		out[i] = b.c.Or(b.c.And(c, t[i]), b.c.And(c.Not(), e[i]))
	}
	return out
}

func (b *Backend) eq(x, y []z.Lit) z.Lit {
	m := b.c.T
	for i := range x {
		m = b.c.And(m, b.xor(x[i], y[i]).Not())
	}
	return m
}

// add returns the ripple-carry sum of x, y and carry-in ci, plus the carry-out.
func (b *Backend) rippleAdd(x, y []z.Lit, ci z.Lit) ([]z.Lit, z.Lit) {
	out := make([]z.Lit, len(x))
	for i := range x {
		p := b.xor(x[i], y[i])
		out[i] = b.xor(p, ci)
		ci = b.c.Or(b.c.And(x[i], y[i]), b.c.And(ci, p))
	}
	return out, ci
}

func (b *Backend) sub(x, y []z.Lit) []z.Lit {
	diff, _ := b.rippleAdd(x, b.not(y), b.c.T)
	return diff
}

func (b *Backend) neg(x []z.Lit) []z.Lit {
	return b.sub(b.zeros(len(x)), x)
}

// ult returns true if x < y as unsigned integers. x >= y exactly when
// x + ^y + 1 carries out of the top bit.
func (b *Backend) ult(x, y []z.Lit) z.Lit {
	_, co := b.rippleAdd(x, b.not(y), b.c.T)
	return co.Not()
}

// flipSign inverts the most significant bit, mapping signed order onto unsigned order.
func (b *Backend) flipSign(x []z.Lit) []z.Lit {
	out := append([]z.Lit(nil), x...)
	out[len(out)-1] = out[len(out)-1].Not()
	return out
}

func (b *Backend) zeros(n int) []z.Lit {
	out := make([]z.Lit, n)
	for i := range out {
		out[i] = b.c.F
	}
	return out
}

func (b *Backend) extend(x []z.Lit, n uint, fill z.Lit) []z.Lit {
	out := append(make([]z.Lit, 0, len(x)+int(n)), x...)
	for i := uint(0); i < n; i++ {
		out = append(out, fill)
	}
	return out
}

// mul returns the low len(x) bits of x*y by shift-and-add.
func (b *Backend) mul(x, y []z.Lit) []z.Lit {
	w := len(x)
	acc := b.zeros(w)
	for i := 0; i < w; i++ {
		pp := b.zeros(w)
		for j := i; j < w; j++ {
			pp[j] = b.c.And(y[i], x[j-i])
		}
		acc, _ = b.rippleAdd(acc, pp, b.c.F)
	}
	return acc
}

// udivrem returns the unsigned quotient and remainder of x/y using restoring
// division. A zero divisor yields an all-ones quotient and a remainder of x.
func (b *Backend) udivrem(x, y []z.Lit) (q, r []z.Lit) {
	w := len(x)
	d := b.extend(y, 1, b.c.F)
	r = b.zeros(w + 1)
	q = make([]z.Lit, w)
	for i := w - 1; i >= 0; i-- {
		// The partial remainder is below 2^w, so the top bit dropped by the shift is clear.
		r = append([]z.Lit{x[i]}, r[:w]...)
		diff, geq := b.rippleAdd(r, b.not(d), b.c.T)
		q[i] = geq
		r = b.mux(geq, diff, r)
	}
	return q, r[:w]
}

// sdivrem returns the signed quotient, truncated toward zero, and the signed
// remainder, which takes the sign of x.
func (b *Backend) sdivrem(x, y []z.Lit) (q, r []z.Lit) {
	w := len(x)
	sx, sy := x[w-1], y[w-1]
	q, r = b.udivrem(b.mux(sx, b.neg(x), x), b.mux(sy, b.neg(y), y))
	return b.mux(b.xor(sx, sy), b.neg(q), q), b.mux(sx, b.neg(r), r)
}

type shiftKind int

const (
	shiftLeft shiftKind = iota
	shiftLogical
	shiftArithmetic
)

// shift returns x shifted by the unsigned amount y using a barrel shifter.
// Amounts of len(x) or more shift every bit out.
func (b *Backend) shift(x, y []z.Lit, kind shiftKind) []z.Lit {
	w := len(x)
	fill := b.c.F
	if kind == shiftArithmetic {
		fill = x[w-1]
	}

	cur, over := x, b.c.F
	for k := range y {
		if k >= 32 || 1<<uint(k) >= w {
			over = b.c.Or(over, y[k])
			continue
		}
		n := 1 << uint(k)
		next := make([]z.Lit, w)
		for i := range next {
			var src z.Lit
			switch kind {
			case shiftLeft:
				if src = b.c.F; i-n >= 0 {
					src = cur[i-n]
				}
			default:
				if src = fill; i+n < w {
					src = cur[i+n]
				}
			}
			next[i] = b.c.Or(b.c.And(y[k], src), b.c.And(y[k].Not(), cur[i]))
		}
		cur = next
	}

	out := make([]z.Lit, w)
	for i := range out {
		out[i] = b.c.Or(b.c.And(over, fill), b.c.And(over.Not(), cur[i]))
	}
	return out
}
