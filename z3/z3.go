//go:build z3

// Package z3 implements an smt.Backend over the Z3 C API. Building it
// requires libz3 and the z3 build tag.
package z3

import (
	"fmt"
	"math/big"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/zbitvector/smt"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
*/
import "C"

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

// Backend represents a Z3 context with a single incremental solver.
type Backend struct {
	ctx    *Context
	solver C.Z3_solver

	terms   map[uint]*term // by Z3 AST id
	proxies map[uint]C.Z3_ast

	assumptions []*term
	model       C.Z3_model
	stats       Stats
}

// term wraps a Z3 AST. Z3 shares structurally equal ASTs, so terms are
// cached by AST id.
type term struct {
	owner *Backend
	ast   C.Z3_ast
	sort  smt.Sort
	name  string
}

// Sort returns the sort of the term.
func (t *term) Sort() smt.Sort { return t.sort }

// NewBackend returns a new instance of Backend.
func NewBackend(config Config) (*Backend, error) {
	b := &Backend{
		ctx:     NewContext(),
		terms:   make(map[uint]*term),
		proxies: make(map[uint]C.Z3_ast),
	}

	b.solver = C.Z3_mk_solver(b.ctx.raw)
	if err := b.ctx.err("Z3_mk_solver"); err != nil {
		b.ctx.Close()
		return nil, err
	}
	C.Z3_solver_inc_ref(b.ctx.raw, b.solver)

	if config.Timeout > 0 {
		if err := b.setTimeout(config.Timeout); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// Close releases the solver and the underlying Z3 context.
func (b *Backend) Close() error {
	C.Z3_solver_dec_ref(b.ctx.raw, b.solver)
	return b.ctx.Close()
}

// Stats returns statistics for the backend.
func (b *Backend) Stats() Stats {
	return b.stats
}

func (b *Backend) setTimeout(d time.Duration) error {
	params := C.Z3_mk_params(b.ctx.raw)
	if err := b.ctx.err("Z3_mk_params"); err != nil {
		return err
	}
	C.Z3_params_inc_ref(b.ctx.raw, params)
	defer C.Z3_params_dec_ref(b.ctx.raw, params)

	cname := C.CString("timeout")
	defer C.free(unsafe.Pointer(cname))
	C.Z3_params_set_uint(b.ctx.raw, params, C.Z3_mk_string_symbol(b.ctx.raw, cname), C.uint(d.Milliseconds()))
	if err := b.ctx.err("Z3_params_set_uint"); err != nil {
		return err
	}
	C.Z3_solver_set_params(b.ctx.raw, b.solver, params)
	return b.ctx.err("Z3_solver_set_params")
}

// BoolSort returns the boolean sort.
func (b *Backend) BoolSort() smt.Sort { return smt.Bool }

// BitVecSort returns the bit-vector sort of the given width.
func (b *Backend) BitVecSort(width uint) smt.Sort { return smt.BitVec(width) }

// Const returns the constant with the given name. Z3 identifies constants by
// name and sort, so repeated calls return the same term.
func (b *Backend) Const(sort smt.Sort, name string) smt.Term {
	zsort, err := b.ctx.makeSort(sort)
	if err != nil {
		panic(err)
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.Z3_mk_string_symbol(b.ctx.raw, cname)

	ast := C.Z3_mk_const(b.ctx.raw, sym, zsort)
	if err := b.ctx.err("Z3_mk_const"); err != nil {
		panic(err)
	}
	t := b.term(ast, sort)
	t.name = name
	return t
}

// Value returns the literal v of the given sort.
func (b *Backend) Value(sort smt.Sort, v *big.Int) (smt.Term, error) {
	if err := smt.CheckValue(sort, v); err != nil {
		return nil, err
	}

	if sort.IsBool() {
		if v.Sign() != 0 {
			return b.wrap(C.Z3_mk_true(b.ctx.raw), sort, "Z3_mk_true")
		}
		return b.wrap(C.Z3_mk_false(b.ctx.raw), sort, "Z3_mk_false")
	}

	zsort, err := b.ctx.makeSort(sort)
	if err != nil {
		return nil, err
	}
	cstr := C.CString(v.String())
	defer C.free(unsafe.Pointer(cstr))
	return b.wrap(C.Z3_mk_numeral(b.ctx.raw, cstr, zsort), sort, "Z3_mk_numeral")
}

// Term builds a derived term.
func (b *Backend) Term(op smt.Op, args []smt.Term, params ...uint) (smt.Term, error) {
	asts := make([]C.Z3_ast, len(args))
	sorts := make([]smt.Sort, len(args))
	for i, arg := range args {
		t, ok := arg.(*term)
		if !ok || t.owner != b {
			return nil, &smt.OpError{Op: op, Err: smt.ErrForeignTerm}
		}
		asts[i], sorts[i] = t.ast, t.sort
	}

	sort, err := smt.ResultSort(op, sorts, params)
	if err != nil {
		return nil, err
	}

	ctx := b.ctx.raw
	switch op {
	case smt.Not:
		return b.wrap(C.Z3_mk_not(ctx, asts[0]), sort, "Z3_mk_not")
	case smt.And:
		return b.wrap(C.Z3_mk_and(ctx, 2, &asts[0]), sort, "Z3_mk_and")
	case smt.Or:
		return b.wrap(C.Z3_mk_or(ctx, 2, &asts[0]), sort, "Z3_mk_or")
	case smt.Xor:
		return b.wrap(C.Z3_mk_xor(ctx, asts[0], asts[1]), sort, "Z3_mk_xor")
	case smt.Implies:
		return b.wrap(C.Z3_mk_implies(ctx, asts[0], asts[1]), sort, "Z3_mk_implies")
	case smt.Equal:
		return b.wrap(C.Z3_mk_eq(ctx, asts[0], asts[1]), sort, "Z3_mk_eq")
	case smt.Distinct:
		return b.wrap(C.Z3_mk_distinct(ctx, 2, &asts[0]), sort, "Z3_mk_distinct")
	case smt.Ite:
		return b.wrap(C.Z3_mk_ite(ctx, asts[0], asts[1], asts[2]), sort, "Z3_mk_ite")
	case smt.BVNot:
		return b.wrap(C.Z3_mk_bvnot(ctx, asts[0]), sort, "Z3_mk_bvnot")
	case smt.BVNeg:
		return b.wrap(C.Z3_mk_bvneg(ctx, asts[0]), sort, "Z3_mk_bvneg")
	case smt.BVAnd:
		return b.wrap(C.Z3_mk_bvand(ctx, asts[0], asts[1]), sort, "Z3_mk_bvand")
	case smt.BVOr:
		return b.wrap(C.Z3_mk_bvor(ctx, asts[0], asts[1]), sort, "Z3_mk_bvor")
	case smt.BVXor:
		return b.wrap(C.Z3_mk_bvxor(ctx, asts[0], asts[1]), sort, "Z3_mk_bvxor")
	case smt.BVAdd:
		return b.wrap(C.Z3_mk_bvadd(ctx, asts[0], asts[1]), sort, "Z3_mk_bvadd")
	case smt.BVSub:
		return b.wrap(C.Z3_mk_bvsub(ctx, asts[0], asts[1]), sort, "Z3_mk_bvsub")
	case smt.BVMul:
		return b.wrap(C.Z3_mk_bvmul(ctx, asts[0], asts[1]), sort, "Z3_mk_bvmul")
	case smt.BVUDiv:
		return b.wrap(C.Z3_mk_bvudiv(ctx, asts[0], asts[1]), sort, "Z3_mk_bvudiv")
	case smt.BVSDiv:
		return b.wrap(C.Z3_mk_bvsdiv(ctx, asts[0], asts[1]), sort, "Z3_mk_bvsdiv")
	case smt.BVURem:
		return b.wrap(C.Z3_mk_bvurem(ctx, asts[0], asts[1]), sort, "Z3_mk_bvurem")
	case smt.BVSRem:
		return b.wrap(C.Z3_mk_bvsrem(ctx, asts[0], asts[1]), sort, "Z3_mk_bvsrem")
	case smt.BVShl:
		return b.wrap(C.Z3_mk_bvshl(ctx, asts[0], asts[1]), sort, "Z3_mk_bvshl")
	case smt.BVLShr:
		return b.wrap(C.Z3_mk_bvlshr(ctx, asts[0], asts[1]), sort, "Z3_mk_bvlshr")
	case smt.BVAShr:
		return b.wrap(C.Z3_mk_bvashr(ctx, asts[0], asts[1]), sort, "Z3_mk_bvashr")
	case smt.BVUlt:
		return b.wrap(C.Z3_mk_bvult(ctx, asts[0], asts[1]), sort, "Z3_mk_bvult")
	case smt.BVUle:
		return b.wrap(C.Z3_mk_bvule(ctx, asts[0], asts[1]), sort, "Z3_mk_bvule")
	case smt.BVSlt:
		return b.wrap(C.Z3_mk_bvslt(ctx, asts[0], asts[1]), sort, "Z3_mk_bvslt")
	case smt.BVSle:
		return b.wrap(C.Z3_mk_bvsle(ctx, asts[0], asts[1]), sort, "Z3_mk_bvsle")
	case smt.Extract:
		return b.wrap(C.Z3_mk_extract(ctx, C.uint(params[0]), C.uint(params[1]), asts[0]), sort, "Z3_mk_extract")
	case smt.ZeroExtend:
		return b.wrap(C.Z3_mk_zero_ext(ctx, C.uint(params[0]), asts[0]), sort, "Z3_mk_zero_ext")
	case smt.SignExtend:
		return b.wrap(C.Z3_mk_sign_ext(ctx, C.uint(params[0]), asts[0]), sort, "Z3_mk_sign_ext")
	case smt.Concat:
		return b.wrap(C.Z3_mk_concat(ctx, asts[0], asts[1]), sort, "Z3_mk_concat")
	default:
		return nil, fmt.Errorf("z3.Backend.Term: unexpected operator: %s", op)
	}
}

// wrap returns the term for ast after checking the result of the call that produced it.
func (b *Backend) wrap(ast C.Z3_ast, sort smt.Sort, op string) (smt.Term, error) {
	if err := b.ctx.err(op); err != nil {
		return nil, err
	}
	return b.term(ast, sort), nil
}

func (b *Backend) term(ast C.Z3_ast, sort smt.Sort) *term {
	id := uint(C.Z3_get_ast_id(b.ctx.raw, ast))
	if t := b.terms[id]; t != nil {
		return t
	}
	t := &term{owner: b, ast: ast, sort: sort}
	b.terms[id] = t
	return t
}

// Assume registers t as an assumption for the next check. Panic if t is not
// a boolean term created by b.
func (b *Backend) Assume(t smt.Term) {
	tt, ok := t.(*term)
	if !ok || tt.owner != b || !tt.sort.IsBool() {
		panic(fmt.Sprintf("z3.Backend.Assume: invalid assumption: %v", t))
	}
	b.model = nil
	b.assumptions = append(b.assumptions, tt)
}

// Check solves the pending assumptions and clears them. Each assumed formula
// is guarded by a proxy constant asserted once in the solver.
func (b *Backend) Check() (smt.Result, error) {
	t := time.Now()
	defer func() {
		b.stats.CheckN++
		b.stats.CheckTime += time.Since(t)
	}()

	assumptions := b.assumptions
	b.assumptions, b.model = nil, nil

	proxies := make([]C.Z3_ast, 0, len(assumptions)+1)
	for _, a := range assumptions {
		p, err := b.proxy(a)
		if err != nil {
			return smt.Unknown, err
		}
		proxies = append(proxies, p)
	}

	var ptr *C.Z3_ast
	if len(proxies) > 0 {
		ptr = &proxies[0]
	}
	ret := C.Z3_solver_check_assumptions(b.ctx.raw, b.solver, C.uint(len(proxies)), ptr)
	if err := b.ctx.err("Z3_solver_check_assumptions"); err != nil {
		return smt.Unknown, err
	}

	switch ret {
	case C.Z3_L_TRUE:
		b.model = C.Z3_solver_get_model(b.ctx.raw, b.solver)
		if err := b.ctx.err("Z3_solver_get_model"); err != nil {
			b.model = nil
			return smt.Sat, err
		}
		return smt.Sat, nil
	case C.Z3_L_FALSE:
		return smt.Unsat, nil
	default:
		reason := C.GoString(C.Z3_solver_get_reason_unknown(b.ctx.raw, b.solver))
		if strings.Contains(reason, "timeout") || strings.Contains(reason, "canceled") {
			return smt.Unknown, smt.ErrTimeout
		}
		return smt.Unknown, fmt.Errorf("z3: %s", reason)
	}
}

// proxy returns the fresh boolean constant p for which (=> p a) is asserted.
func (b *Backend) proxy(a *term) (C.Z3_ast, error) {
	id := uint(C.Z3_get_ast_id(b.ctx.raw, a.ast))
	if p, ok := b.proxies[id]; ok {
		return p, nil
	}

	// Fresh constants cannot collide with user names.
	cprefix := C.CString("assume")
	defer C.free(unsafe.Pointer(cprefix))
	p := C.Z3_mk_fresh_const(b.ctx.raw, cprefix, C.Z3_mk_bool_sort(b.ctx.raw))
	if err := b.ctx.err("Z3_mk_fresh_const"); err != nil {
		return nil, err
	}

	C.Z3_solver_assert(b.ctx.raw, b.solver, C.Z3_mk_implies(b.ctx.raw, p, a.ast))
	if err := b.ctx.err("Z3_solver_assert"); err != nil {
		return nil, err
	}
	b.proxies[id] = p
	return p, nil
}

// Eval returns the value of t in the model of the most recent check.
func (b *Backend) Eval(t smt.Term) (*big.Int, error) {
	tt, ok := t.(*term)
	if !ok || tt.owner != b {
		return nil, smt.ErrForeignTerm
	} else if b.model == nil {
		return nil, smt.ErrNoModel
	}

	var out C.Z3_ast
	C.Z3_model_eval(b.ctx.raw, b.model, tt.ast, C.bool(true), &out)
	if err := b.ctx.err("Z3_model_eval"); err != nil {
		return nil, err
	}

	if tt.sort.IsBool() {
		if C.Z3_get_bool_value(b.ctx.raw, out) == C.Z3_L_TRUE {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	}

	s := C.GoString(C.Z3_get_numeral_string(b.ctx.raw, out))
	if err := b.ctx.err("Z3_get_numeral_string"); err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("z3: invalid numeral: %q", s)
	}
	return v, nil
}

// Dump returns the SMT-LIB rendering of t.
func (b *Backend) Dump(t smt.Term) string {
	if tt, ok := t.(*term); ok && tt.owner == b {
		return b.ctx.astToString(tt.ast)
	}
	return fmt.Sprint(t)
}

// Symbol returns the name of t if t is a named constant.
func (b *Backend) Symbol(t smt.Term) (string, bool) {
	if tt, ok := t.(*term); ok && tt.name != "" {
		return tt.name, true
	}
	return "", false
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw C.Z3_context
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

func (ctx *Context) makeSort(sort smt.Sort) (C.Z3_sort, error) {
	if sort.IsBool() {
		return C.Z3_mk_bool_sort(ctx.raw), ctx.err("Z3_mk_bool_sort")
	}
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(sort.Width())), ctx.err("Z3_mk_bv_sort")
}

func (ctx *Context) astToString(ast C.Z3_ast) string {
	return C.GoString(C.Z3_ast_to_string(ctx.raw, ast))
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)
