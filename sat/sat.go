// Package sat implements an smt.Backend in pure Go by bit-blasting terms into
// an and-inverter circuit and solving it with the gini SAT solver.
//
// The backend keeps a single incremental solver for its whole lifetime.
// Circuit nodes are exported to the solver the first time an assumption
// reaches them and are never re-sent.
package sat

import (
	"fmt"
	"math/big"
	"time"

	"github.com/benbjohnson/zbitvector/smt"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Ensure backend implements interface.
var (
	_ smt.Backend   = (*Backend)(nil)
	_ smt.Evaluator = (*Backend)(nil)
)

// Config holds backend options.
type Config struct {
	// Timeout bounds a single check. Zero means no limit.
	Timeout time.Duration
}

// Stats holds check statistics.
type Stats struct {
	CheckN    int
	CheckTime time.Duration
}

// Backend is a bit-blasting SMT backend. It is not safe for concurrent use.
type Backend struct {
	config Config

	c     *logic.C
	g     *gini.Gini
	marks []int8

	terms  map[string]*term
	nextID int

	inputs   []z.Lit // circuit inputs in creation order
	declared int     // number of inputs known to the solver

	assumptions []*term
	model       bool
	stats       Stats
}

// New returns a new instance of Backend.
func New(config Config) *Backend {
	b := &Backend{
		config: config,
		c:      logic.NewC(),
		g:      gini.New(),
		terms:  make(map[string]*term),
	}
	b.g.Add(b.c.T)
	b.g.Add(z.LitNull)
	return b
}

// Stats returns statistics for the backend.
func (b *Backend) Stats() Stats {
	return b.stats
}

// BoolSort returns the boolean sort.
func (b *Backend) BoolSort() smt.Sort { return smt.Bool }

// BitVecSort returns the bit-vector sort of the given width.
func (b *Backend) BitVecSort(width uint) smt.Sort { return smt.BitVec(width) }

// Const mints a fresh named constant. Calling Const twice with the same name
// returns two independent terms.
func (b *Backend) Const(sort smt.Sort, name string) smt.Term {
	return b.add(&term{kind: constTerm, sort: sort, name: name})
}

// Value returns the literal v of the given sort.
func (b *Backend) Value(sort smt.Sort, v *big.Int) (smt.Term, error) {
	if err := smt.CheckValue(sort, v); err != nil {
		return nil, err
	}
	w := sort.Width()
	if sort.IsBool() {
		w = 1
	}
	return b.value(sort, value{v: new(big.Int).Set(v), w: w}), nil
}

func (b *Backend) value(sort smt.Sort, v value) *term {
	k := valueKey(sort, v)
	if t := b.terms[k]; t != nil {
		return t
	}
	t := b.add(&term{kind: valueTerm, sort: sort, value: v})
	b.terms[k] = t
	return t
}

// Term builds a derived term, folding it to a literal when every operand is
// a literal.
func (b *Backend) Term(op smt.Op, args []smt.Term, params ...uint) (smt.Term, error) {
	ts := make([]*term, len(args))
	sorts := make([]smt.Sort, len(args))
	for i, arg := range args {
		t, ok := arg.(*term)
		if !ok || t.owner != b {
			return nil, &smt.OpError{Op: op, Err: smt.ErrForeignTerm}
		}
		ts[i], sorts[i] = t, t.sort
	}

	sort, err := smt.ResultSort(op, sorts, params)
	if err != nil {
		return nil, err
	}

	if t := b.fold(op, ts, params, sort); t != nil {
		return t, nil
	}

	k := key(op, ts, params)
	if t := b.terms[k]; t != nil {
		return t, nil
	}
	t := b.add(&term{op: op, sort: sort, args: ts, params: append([]uint(nil), params...)})
	b.terms[k] = t
	return t, nil
}

// fold returns the simplified form of op over ts, or nil if it cannot be simplified.
func (b *Backend) fold(op smt.Op, ts []*term, params []uint, sort smt.Sort) *term {
	// A literal condition selects its branch.
	if op == smt.Ite && ts[0].kind == valueTerm {
		if ts[0].value.IsTrue() {
			return ts[1]
		}
		return ts[2]
	}

	args := make([]value, len(ts))
	for i, t := range ts {
		if t.kind != valueTerm {
			return nil
		}
		args[i] = t.value
	}
	return b.value(sort, apply(op, args, params))
}

func (b *Backend) add(t *term) *term {
	b.nextID++
	t.owner, t.id, t.inputAt = b, b.nextID, -1
	return t
}

// Assume registers t as an assumption for the next check. Panic if t is not
// a boolean term created by b.
func (b *Backend) Assume(t smt.Term) {
	tt, ok := t.(*term)
	if !ok || tt.owner != b || !tt.sort.IsBool() {
		panic(fmt.Sprintf("sat.Backend.Assume: invalid assumption: %v", t))
	}
	b.model = false
	b.assumptions = append(b.assumptions, tt)
}

// Check solves the circuit under the pending assumptions and clears them.
func (b *Backend) Check() (result smt.Result, err error) {
	t := time.Now()
	defer func() {
		b.stats.CheckN++
		b.stats.CheckTime += time.Since(t)
	}()

	roots := make([]z.Lit, len(b.assumptions))
	for i, a := range b.assumptions {
		roots[i] = b.blast(a)[0]
	}
	b.assumptions = b.assumptions[:0]
	b.model = false

	// Export new circuit nodes and make every input known to the solver.
	b.marks, _ = b.c.CnfSince(b.g, b.marks, roots...)
	for _, m := range b.inputs[b.declared:] {
		b.g.Add(m)
		b.g.Add(m.Not())
		b.g.Add(z.LitNull)
	}
	b.declared = len(b.inputs)

	b.g.Assume(roots...)

	var ret int
	if b.config.Timeout > 0 {
		ret = b.g.GoSolve().Try(b.config.Timeout)
	} else {
		ret = b.g.Solve()
	}

	switch ret {
	case 1:
		b.model = true
		return smt.Sat, nil
	case -1:
		return smt.Unsat, nil
	default:
		return smt.Unknown, smt.ErrTimeout
	}
}

// Eval returns the value of t in the model of the most recent check. Named
// constants that did not take part in that check evaluate to zero.
func (b *Backend) Eval(t smt.Term) (*big.Int, error) {
	tt, ok := t.(*term)
	if !ok || tt.owner != b {
		return nil, smt.ErrForeignTerm
	} else if !b.model {
		return nil, smt.ErrNoModel
	}
	return b.eval(tt, make(map[*term]value)).v, nil
}

func (b *Backend) eval(t *term, memo map[*term]value) value {
	if v, ok := memo[t]; ok {
		return v
	}

	var v value
	switch t.kind {
	case valueTerm:
		v = t.value
	case constTerm:
		v = value{v: new(big.Int), w: t.width()}
		if t.inputAt >= 0 && t.inputAt < b.declared {
			for i, m := range t.bits {
				if b.g.Value(m) {
					v.v.SetBit(v.v, i, 1)
				}
			}
		}
	default:
		args := make([]value, len(t.args))
		for i, arg := range t.args {
			args[i] = b.eval(arg, memo)
		}
		v = apply(t.op, args, t.params)
	}
	memo[t] = v
	return v
}

// Dump returns the SMT-LIB rendering of t.
func (b *Backend) Dump(t smt.Term) string {
	if tt, ok := t.(*term); ok {
		return tt.String()
	}
	return fmt.Sprint(t)
}

// Symbol returns the name of t if t is a named constant.
func (b *Backend) Symbol(t smt.Term) (string, bool) {
	if tt, ok := t.(*term); ok && tt.kind == constTerm {
		return tt.name, true
	}
	return "", false
}

