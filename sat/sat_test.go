package sat_test

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/zbitvector/sat"
	"github.com/benbjohnson/zbitvector/smt"
	"github.com/google/go-cmp/cmp"
)

func TestBackend_Value(t *testing.T) {
	b := sat.New(sat.Config{})

	t.Run("Hex", func(t *testing.T) {
		if s := b.Dump(MustValue(b, smt.BitVec(16), 0xAB)); s != "#x00ab" {
			t.Fatalf("unexpected dump: %s", s)
		}
	})
	t.Run("Binary", func(t *testing.T) {
		if s := b.Dump(MustValue(b, smt.BitVec(3), 5)); s != "#b101" {
			t.Fatalf("unexpected dump: %s", s)
		}
	})
	t.Run("Bool", func(t *testing.T) {
		if s := b.Dump(MustValue(b, smt.Bool, 1)); s != "true" {
			t.Fatalf("unexpected dump: %s", s)
		}
	})
	t.Run("HashConsed", func(t *testing.T) {
		if MustValue(b, smt.BitVec(8), 7) != MustValue(b, smt.BitVec(8), 7) {
			t.Fatal("expected identical terms")
		}
	})
	t.Run("ErrValueRange", func(t *testing.T) {
		if _, err := b.Value(smt.BitVec(8), big.NewInt(256)); !errors.Is(err, smt.ErrValueRange) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBackend_Const(t *testing.T) {
	b := sat.New(sat.Config{})
	x0, x1 := b.Const(smt.BitVec(8), "x"), b.Const(smt.BitVec(8), "x")
	if x0 == x1 {
		t.Fatal("expected independent constants")
	} else if name, ok := b.Symbol(x0); !ok || name != "x" {
		t.Fatalf("unexpected symbol: %q, %v", name, ok)
	} else if _, ok := b.Symbol(MustValue(b, smt.BitVec(8), 1)); ok {
		t.Fatal("expected no symbol for literal")
	}
}

func TestBackend_Term(t *testing.T) {
	t.Run("Dump", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x := b.Const(smt.BitVec(8), "x")
		y := b.Const(smt.BitVec(8), "y")
		sum := MustTerm(b, smt.BVAdd, []smt.Term{x, y})
		ext := MustTerm(b, smt.ZeroExtend, []smt.Term{sum}, 8)
		lo := MustTerm(b, smt.Extract, []smt.Term{ext}, 7, 0)
		if diff := cmp.Diff(b.Dump(lo), "((_ extract 7 0) ((_ zero_extend 8) (bvadd x y)))"); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("HashConsed", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x := b.Const(smt.BitVec(8), "x")
		if MustTerm(b, smt.BVNeg, []smt.Term{x}) != MustTerm(b, smt.BVNeg, []smt.Term{x}) {
			t.Fatal("expected identical terms")
		}
	})

	t.Run("ErrWidthMismatch", func(t *testing.T) {
		b := sat.New(sat.Config{})
		_, err := b.Term(smt.BVAdd, []smt.Term{b.Const(smt.BitVec(8), "x"), b.Const(smt.BitVec(16), "y")})
		var e *smt.OpError
		if !errors.Is(err, smt.ErrWidthMismatch) {
			t.Fatalf("unexpected error: %v", err)
		} else if !errors.As(err, &e) || e.Op != smt.BVAdd {
			t.Fatalf("unexpected error type: %#v", err)
		}
	})

	t.Run("ErrForeignTerm", func(t *testing.T) {
		b0, b1 := sat.New(sat.Config{}), sat.New(sat.Config{})
		if _, err := b0.Term(smt.BVNot, []smt.Term{b1.Const(smt.BitVec(8), "x")}); !errors.Is(err, smt.ErrForeignTerm) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBackend_Fold(t *testing.T) {
	for _, tt := range []struct {
		name string
		op   smt.Op
		w    uint
		args []int64
		want string
	}{
		{"Add/Overflow", smt.BVAdd, 8, []int64{0xFF, 2}, "#x01"},
		{"Sub/Underflow", smt.BVSub, 8, []int64{1, 2}, "#xff"},
		{"Mul", smt.BVMul, 8, []int64{16, 17}, "#x10"},
		{"Neg", smt.BVNeg, 8, []int64{1}, "#xff"},
		{"UDiv", smt.BVUDiv, 8, []int64{6, 3}, "#x02"},
		{"UDiv/Zero", smt.BVUDiv, 8, []int64{6, 0}, "#xff"},
		{"URem/Zero", smt.BVURem, 8, []int64{6, 0}, "#x06"},
		{"SDiv/Truncate", smt.BVSDiv, 8, []int64{0xF9, 2}, "#xfd"},
		{"SDiv/ZeroNegative", smt.BVSDiv, 8, []int64{0xF9, 0}, "#x01"},
		{"SDiv/ZeroPositive", smt.BVSDiv, 8, []int64{7, 0}, "#xff"},
		{"SRem/DividendSign", smt.BVSRem, 8, []int64{0xF9, 2}, "#xff"},
		{"SRem/NegativeDivisor", smt.BVSRem, 8, []int64{7, 0xFE}, "#x01"},
		{"SRem/Zero", smt.BVSRem, 8, []int64{0xF9, 0}, "#xf9"},
		{"Shl", smt.BVShl, 8, []int64{3, 2}, "#x0c"},
		{"Shl/Overflow", smt.BVShl, 8, []int64{3, 8}, "#x00"},
		{"LShr", smt.BVLShr, 8, []int64{0x80, 7}, "#x01"},
		{"AShr", smt.BVAShr, 8, []int64{0x80, 7}, "#xff"},
		{"AShr/Overflow", smt.BVAShr, 8, []int64{0x80, 200}, "#xff"},
		{"Ult", smt.BVUlt, 8, []int64{1, 0xFF}, "true"},
		{"Slt", smt.BVSlt, 8, []int64{1, 0xFF}, "false"},
		{"Sle/Equal", smt.BVSle, 8, []int64{5, 5}, "true"},
		{"Equal", smt.Equal, 8, []int64{5, 6}, "false"},
		{"Distinct", smt.Distinct, 8, []int64{5, 6}, "true"},
		{"Concat", smt.Concat, 8, []int64{0xAB, 0xCD}, "#xabcd"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			b := sat.New(sat.Config{})
			args := make([]smt.Term, len(tt.args))
			for i, v := range tt.args {
				args[i] = MustValue(b, smt.BitVec(tt.w), v)
			}
			if got := b.Dump(MustTerm(b, tt.op, args)); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("Extensions", func(t *testing.T) {
		b := sat.New(sat.Config{})
		v := MustValue(b, smt.BitVec(8), 0x80)
		if got := b.Dump(MustTerm(b, smt.ZeroExtend, []smt.Term{v}, 8)); got != "#x0080" {
			t.Fatalf("unexpected zero extension: %s", got)
		} else if got := b.Dump(MustTerm(b, smt.SignExtend, []smt.Term{v}, 8)); got != "#xff80" {
			t.Fatalf("unexpected sign extension: %s", got)
		} else if got := b.Dump(MustTerm(b, smt.Extract, []smt.Term{v}, 7, 4)); got != "#x8" {
			t.Fatalf("unexpected extraction: %s", got)
		}
	})

	t.Run("Ite", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x, y := b.Const(smt.BitVec(8), "x"), b.Const(smt.BitVec(8), "y")
		if MustTerm(b, smt.Ite, []smt.Term{MustValue(b, smt.Bool, 1), x, y}) != x {
			t.Fatal("expected then branch")
		} else if MustTerm(b, smt.Ite, []smt.Term{MustValue(b, smt.Bool, 0), x, y}) != y {
			t.Fatal("expected else branch")
		}
	})
}

// Ensure the bit-blasted circuit of each operator agrees with constant folding.
func TestBackend_Check_Circuit(t *testing.T) {
	const w = 4
	samples := []int64{0, 1, 2, 3, 5, 7, 8, 9, 14, 15}

	binary := []smt.Op{
		smt.BVAnd, smt.BVOr, smt.BVXor, smt.BVAdd, smt.BVSub, smt.BVMul,
		smt.BVUDiv, smt.BVURem, smt.BVSDiv, smt.BVSRem,
		smt.BVShl, smt.BVLShr, smt.BVAShr,
		smt.BVUlt, smt.BVUle, smt.BVSlt, smt.BVSle,
		smt.Equal, smt.Distinct, smt.Concat,
	}
	for _, op := range binary {
		t.Run(op.String(), func(t *testing.T) {
			for _, a := range samples {
				for _, c := range samples {
					b := sat.New(sat.Config{})
					x, y := b.Const(smt.BitVec(w), "x"), b.Const(smt.BitVec(w), "y")
					want := MustTerm(b, op, []smt.Term{MustValue(b, smt.BitVec(w), a), MustValue(b, smt.BitVec(w), c)})
					got := MustTerm(b, op, []smt.Term{x, y})
					MustCheckCircuit(t, b, fmt.Sprintf("%s(%d, %d)", op, a, c), got, want,
						MustTerm(b, smt.Equal, []smt.Term{x, MustValue(b, smt.BitVec(w), a)}),
						MustTerm(b, smt.Equal, []smt.Term{y, MustValue(b, smt.BitVec(w), c)}),
					)
				}
			}
		})
	}

	unary := []struct {
		op     smt.Op
		params []uint
	}{
		{smt.BVNot, nil},
		{smt.BVNeg, nil},
		{smt.ZeroExtend, []uint{3}},
		{smt.SignExtend, []uint{3}},
		{smt.Extract, []uint{2, 1}},
	}
	for _, u := range unary {
		t.Run(u.op.String(), func(t *testing.T) {
			for _, a := range samples {
				b := sat.New(sat.Config{})
				x := b.Const(smt.BitVec(w), "x")
				want := MustTerm(b, u.op, []smt.Term{MustValue(b, smt.BitVec(w), a)}, u.params...)
				got := MustTerm(b, u.op, []smt.Term{x}, u.params...)
				MustCheckCircuit(t, b, fmt.Sprintf("%s(%d)", u.op, a), got, want,
					MustTerm(b, smt.Equal, []smt.Term{x, MustValue(b, smt.BitVec(w), a)}),
				)
			}
		})
	}

	t.Run("Boolean", func(t *testing.T) {
		for _, op := range []smt.Op{smt.And, smt.Or, smt.Xor, smt.Implies} {
			for _, a := range []int64{0, 1} {
				for _, c := range []int64{0, 1} {
					b := sat.New(sat.Config{})
					p, q := b.Const(smt.Bool, "p"), b.Const(smt.Bool, "q")
					want := MustTerm(b, op, []smt.Term{MustValue(b, smt.Bool, a), MustValue(b, smt.Bool, c)})
					MustCheckCircuit(t, b, fmt.Sprintf("%s(%d, %d)", op, a, c), MustTerm(b, op, []smt.Term{p, q}), want,
						MustTerm(b, smt.Equal, []smt.Term{p, MustValue(b, smt.Bool, a)}),
						MustTerm(b, smt.Equal, []smt.Term{q, MustValue(b, smt.Bool, c)}),
					)
				}
			}
		}
	})
}

// Ensure adder-based circuits agree with constant folding at odd widths.
func TestBackend_Check_CircuitWidths(t *testing.T) {
	ops := []smt.Op{
		smt.BVAdd, smt.BVSub, smt.BVMul, smt.BVNeg,
		smt.BVUDiv, smt.BVURem, smt.BVSDiv, smt.BVSRem,
		smt.BVUlt, smt.BVUle, smt.BVSlt, smt.BVSle,
	}
	for _, w := range []uint{1, 3, 5} {
		for _, op := range ops {
			t.Run(fmt.Sprintf("%s/%d", op, w), func(t *testing.T) {
				n := int64(1) << w
				for a := int64(0); a < n; a += 1 + n/8 {
					for c := int64(0); c < n; c += 1 + n/8 {
						b := sat.New(sat.Config{})
						x, y := b.Const(smt.BitVec(w), "x"), b.Const(smt.BitVec(w), "y")
						args, consts := []smt.Term{x, y}, []smt.Term{MustValue(b, smt.BitVec(w), a), MustValue(b, smt.BitVec(w), c)}
						if op == smt.BVNeg {
							args, consts = args[:1], consts[:1]
						}
						MustCheckCircuit(t, b, fmt.Sprintf("%s(%d, %d)", op, a, c), MustTerm(b, op, args), MustTerm(b, op, consts),
							MustTerm(b, smt.Equal, []smt.Term{x, consts[0]}),
							MustTerm(b, smt.Equal, []smt.Term{y, MustValue(b, smt.BitVec(w), c)}),
						)
					}
				}
			})
		}
	}
}

func TestBackend_Check(t *testing.T) {
	t.Run("True", func(t *testing.T) {
		b := sat.New(sat.Config{})
		b.Assume(MustValue(b, smt.Bool, 1))
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("unexpected result: %s", result)
		}
	})

	t.Run("False", func(t *testing.T) {
		b := sat.New(sat.Config{})
		b.Assume(MustValue(b, smt.Bool, 0))
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Unsat {
			t.Fatalf("unexpected result: %s", result)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		b := sat.New(sat.Config{})
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("unexpected result: %s", result)
		}
	})

	// Assumptions only apply to the next check.
	t.Run("Incremental", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x := b.Const(smt.BitVec(8), "x")
		eq1 := MustTerm(b, smt.Equal, []smt.Term{x, MustValue(b, smt.BitVec(8), 1)})
		eq2 := MustTerm(b, smt.Equal, []smt.Term{x, MustValue(b, smt.BitVec(8), 2)})

		b.Assume(eq1)
		b.Assume(eq2)
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Unsat {
			t.Fatalf("unexpected result: %s", result)
		}

		b.Assume(eq2)
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("unexpected result: %s", result)
		} else if v, err := b.Eval(x); err != nil {
			t.Fatal(err)
		} else if v.Int64() != 2 {
			t.Fatalf("unexpected value: %s", v)
		}

		if stats := b.Stats(); stats.CheckN != 2 {
			t.Fatalf("unexpected check count: %d", stats.CheckN)
		}
	})

	t.Run("Wide", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x := b.Const(smt.BitVec(128), "x")
		one := MustValue(b, smt.BitVec(128), 1)
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
		maxV, err := b.Value(smt.BitVec(128), max)
		if err != nil {
			t.Fatal(err)
		}

		// x + 1 == 0 has the single solution x == 2^128-1.
		b.Assume(MustTerm(b, smt.Equal, []smt.Term{MustTerm(b, smt.BVAdd, []smt.Term{x, one}), MustValue(b, smt.BitVec(128), 0)}))
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("unexpected result: %s", result)
		} else if v, err := b.Eval(x); err != nil {
			t.Fatal(err)
		} else if v.Cmp(max) != 0 {
			t.Fatalf("unexpected value: %s", v)
		}

		b.Assume(MustTerm(b, smt.Equal, []smt.Term{MustTerm(b, smt.BVAdd, []smt.Term{x, one}), MustValue(b, smt.BitVec(128), 0)}))
		b.Assume(MustTerm(b, smt.Distinct, []smt.Term{x, maxV}))
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Unsat {
			t.Fatalf("unexpected result: %s", result)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		b := sat.New(sat.Config{Timeout: time.Minute})
		x := b.Const(smt.BitVec(8), "x")
		b.Assume(MustTerm(b, smt.BVUlt, []smt.Term{x, MustValue(b, smt.BitVec(8), 3)}))
		if result, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if result != smt.Sat {
			t.Fatalf("unexpected result: %s", result)
		}
	})
}

func TestBackend_Eval(t *testing.T) {
	t.Run("ErrNoModel", func(t *testing.T) {
		b := sat.New(sat.Config{})
		if _, err := b.Eval(b.Const(smt.BitVec(8), "x")); !errors.Is(err, smt.ErrNoModel) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrNoModelAfterUnsat", func(t *testing.T) {
		b := sat.New(sat.Config{})
		b.Assume(MustValue(b, smt.Bool, 0))
		if _, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if _, err := b.Eval(MustValue(b, smt.Bool, 0)); !errors.Is(err, smt.ErrNoModel) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Unconstrained", func(t *testing.T) {
		b := sat.New(sat.Config{})
		x := b.Const(smt.BitVec(8), "x")
		if _, err := b.Check(); err != nil {
			t.Fatal(err)
		} else if v, err := b.Eval(x); err != nil {
			t.Fatal(err)
		} else if v.Sign() != 0 {
			t.Fatalf("unexpected value: %s", v)
		}
	})
}

// MustValue returns a literal or fails.
func MustValue(b *sat.Backend, sort smt.Sort, v int64) smt.Term {
	t, err := b.Value(sort, big.NewInt(v))
	if err != nil {
		panic(err)
	}
	return t
}

// MustTerm returns a derived term or fails.
func MustTerm(b *sat.Backend, op smt.Op, args []smt.Term, params ...uint) smt.Term {
	t, err := b.Term(op, args, params...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustCheckCircuit verifies that got can equal want under the given
// assumptions and that it cannot differ from it.
func MustCheckCircuit(tb testing.TB, b *sat.Backend, name string, got, want smt.Term, assumptions ...smt.Term) {
	tb.Helper()

	for _, a := range assumptions {
		b.Assume(a)
	}
	b.Assume(MustTerm(b, smt.Equal, []smt.Term{got, want}))
	if result, err := b.Check(); err != nil {
		tb.Fatal(err)
	} else if result != smt.Sat {
		tb.Fatalf("%s: expected %s to be satisfiable", name, b.Dump(want))
	}

	for _, a := range assumptions {
		b.Assume(a)
	}
	b.Assume(MustTerm(b, smt.Distinct, []smt.Term{got, want}))
	if result, err := b.Check(); err != nil {
		tb.Fatal(err)
	} else if result != smt.Unsat {
		tb.Fatalf("%s: expected only %s", name, b.Dump(want))
	}
}
