package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"

	"github.com/benbjohnson/zbitvector"
	"golang.org/x/tools/go/ast/astutil"
)

// Evaluator builds symbolic values from Go expression syntax.
type Evaluator struct {
	session *zbitvector.Session
	vars    map[string]value
}

// NewEvaluator returns an evaluator that declares vars in s.
func NewEvaluator(s *zbitvector.Session, vars map[string]string) (*Evaluator, error) {
	e := &Evaluator{session: s, vars: make(map[string]value)}
	for name, typ := range vars {
		k, ok := kinds[typ]
		if !ok {
			return nil, fmt.Errorf("var %q: unknown type %q", name, typ)
		}
		v, err := k.named(s, name)
		if err != nil {
			return nil, err
		}
		e.vars[name] = v
	}
	return e, nil
}

// Var returns the symbolic value declared as name.
func (e *Evaluator) Var(name string) (zbitvector.Symbolic, bool) {
	switch v := e.vars[name].(type) {
	case boolValue:
		return v.x, true
	case bitvec:
		return v.symbolic(), true
	default:
		return nil, false
	}
}

// Constraint parses src and evaluates it to a constraint.
func (e *Evaluator) Constraint(src string) (zbitvector.Constraint, error) {
	expr, err := ParseExpr(src)
	if err != nil {
		return zbitvector.Constraint{}, err
	}
	v, err := e.eval(expr)
	if err != nil {
		return zbitvector.Constraint{}, fmt.Errorf("%q: %w", src, err)
	}
	b, ok := v.(boolValue)
	if !ok {
		return zbitvector.Constraint{}, fmt.Errorf("%q: expression of type %s is not a constraint", src, v.typeName())
	}
	return b.x, nil
}

// ParseExpr parses src as a Go expression and strips parentheses.
// Syntax outside identifiers, integer literals, operators and conversion
// calls is rejected.
func ParseExpr(src string) (ast.Expr, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", src, err)
	}

	var unsupported ast.Node
	root := astutil.Apply(expr, func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case nil, *ast.Ident, *ast.UnaryExpr, *ast.BinaryExpr, *ast.CallExpr, *ast.ParenExpr:
			return unsupported == nil
		case *ast.BasicLit:
			if n.Kind == token.INT {
				return true
			}
		}
		if unsupported == nil {
			unsupported = c.Node()
		}
		return false
	}, func(c *astutil.Cursor) bool {
		if p, ok := c.Node().(*ast.ParenExpr); ok {
			c.Replace(p.X)
		}
		return true
	})
	if unsupported != nil {
		return nil, fmt.Errorf("%q: col %d: unsupported syntax", src, unsupported.Pos())
	}
	return root.(ast.Expr), nil
}

func (e *Evaluator) eval(expr ast.Expr) (value, error) {
	switch expr := expr.(type) {
	case *ast.Ident:
		return e.evalIdent(expr)
	case *ast.BasicLit:
		v, ok := new(big.Int).SetString(expr.Value, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %s", expr.Value)
		}
		return untypedInt{v}, nil
	case *ast.UnaryExpr:
		return e.evalUnary(expr)
	case *ast.BinaryExpr:
		return e.evalBinary(expr)
	case *ast.CallExpr:
		return e.evalCall(expr)
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (e *Evaluator) evalIdent(ident *ast.Ident) (value, error) {
	switch ident.Name {
	case "true":
		return boolValue{zbitvector.BoolIn(e.session, true)}, nil
	case "false":
		return boolValue{zbitvector.BoolIn(e.session, false)}, nil
	}
	if v, ok := e.vars[ident.Name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("undefined: %s", ident.Name)
}

func (e *Evaluator) evalUnary(expr *ast.UnaryExpr) (value, error) {
	x, err := e.eval(expr.X)
	if err != nil {
		return nil, err
	}

	switch x := x.(type) {
	case untypedInt:
		switch expr.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return untypedInt{new(big.Int).Neg(x.v)}, nil
		case token.XOR:
			return untypedInt{new(big.Int).Not(x.v)}, nil
		}
	case boolValue:
		if expr.Op == token.NOT {
			return boolValue{x.x.Not()}, nil
		}
	case bitvec:
		return x.unary(expr.Op)
	}
	return nil, fmt.Errorf("invalid operator %s on %s", expr.Op, x.typeName())
}

func (e *Evaluator) evalBinary(expr *ast.BinaryExpr) (value, error) {
	x, err := e.eval(expr.X)
	if err != nil {
		return nil, err
	}
	y, err := e.eval(expr.Y)
	if err != nil {
		return nil, err
	}

	if p, ok := x.(boolValue); ok {
		q, ok := y.(boolValue)
		if !ok {
			return nil, mismatch(expr.Op, x, y)
		}
		switch expr.Op {
		case token.LAND:
			return boolValue{p.x.And(q.x)}, nil
		case token.LOR:
			return boolValue{p.x.Or(q.x)}, nil
		case token.EQL:
			return boolValue{p.x.Eq(q.x)}, nil
		case token.NEQ:
			return boolValue{p.x.Ne(q.x)}, nil
		default:
			return nil, fmt.Errorf("invalid operator %s on bool", expr.Op)
		}
	} else if _, ok := y.(boolValue); ok {
		return nil, mismatch(expr.Op, x, y)
	}

	// Constant expressions are folded as in Go.
	if nx, ok := x.(untypedInt); ok {
		if ny, ok := y.(untypedInt); ok {
			return e.fold(expr.Op, nx.v, ny.v)
		}
	}

	// A constant shift count is unsigned and has the width of the operand.
	if expr.Op == token.SHL || expr.Op == token.SHR {
		if bx, ok := x.(bitvec); ok {
			if n, ok := y.(untypedInt); ok {
				by, err := e.shiftCount(bx, n.v)
				if err != nil {
					return nil, err
				}
				return bx.binary(expr.Op, by)
			}
		}
	}

	// Untyped literals take the kind of the other operand.
	bx, by, err := e.typed(x, y)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		c, err := bx.compare(expr.Op, by)
		if err != nil {
			return nil, err
		}
		return boolValue{c}, nil
	default:
		return bx.binary(expr.Op, by)
	}
}

// typed returns x and y as bit-vectors, converting an untyped literal to the
// kind of the other operand.
func (e *Evaluator) typed(x, y value) (bitvec, bitvec, error) {
	bx, xok := x.(bitvec)
	by, yok := y.(bitvec)
	switch {
	case xok && yok:
		return bx, by, nil
	case xok:
		v, err := e.literal(bx.typeName(), y)
		return bx, v, err
	case yok:
		v, err := e.literal(by.typeName(), x)
		return v, by, err
	default:
		return nil, nil, fmt.Errorf("cannot infer type of %s and %s", x.typeName(), y.typeName())
	}
}

// fold evaluates op over two untyped integer constants.
func (e *Evaluator) fold(op token.Token, x, y *big.Int) (value, error) {
	switch op {
	case token.EQL:
		return e.boolConst(x.Cmp(y) == 0), nil
	case token.NEQ:
		return e.boolConst(x.Cmp(y) != 0), nil
	case token.LSS:
		return e.boolConst(x.Cmp(y) < 0), nil
	case token.LEQ:
		return e.boolConst(x.Cmp(y) <= 0), nil
	case token.GTR:
		return e.boolConst(x.Cmp(y) > 0), nil
	case token.GEQ:
		return e.boolConst(x.Cmp(y) >= 0), nil
	case token.ADD:
		return untypedInt{new(big.Int).Add(x, y)}, nil
	case token.SUB:
		return untypedInt{new(big.Int).Sub(x, y)}, nil
	case token.MUL:
		return untypedInt{new(big.Int).Mul(x, y)}, nil
	case token.QUO, token.REM:
		if y.Sign() == 0 {
			return nil, fmt.Errorf("invalid operation: division by zero")
		} else if op == token.QUO {
			return untypedInt{new(big.Int).Quo(x, y)}, nil
		}
		return untypedInt{new(big.Int).Rem(x, y)}, nil
	case token.AND:
		return untypedInt{new(big.Int).And(x, y)}, nil
	case token.OR:
		return untypedInt{new(big.Int).Or(x, y)}, nil
	case token.XOR:
		return untypedInt{new(big.Int).Xor(x, y)}, nil
	case token.AND_NOT:
		return untypedInt{new(big.Int).AndNot(x, y)}, nil
	case token.SHL, token.SHR:
		if y.Sign() < 0 {
			return nil, fmt.Errorf("invalid negative shift count %s", y)
		} else if y.Cmp(big.NewInt(maxConstShift)) > 0 {
			return nil, fmt.Errorf("shift count %s too large", y)
		} else if op == token.SHL {
			return untypedInt{new(big.Int).Lsh(x, uint(y.Uint64()))}, nil
		}
		return untypedInt{new(big.Int).Rsh(x, uint(y.Uint64()))}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s on untyped int", op)
	}
}

// maxConstShift bounds shifts of untyped constants.
const maxConstShift = 1024

func (e *Evaluator) boolConst(b bool) boolValue {
	return boolValue{zbitvector.BoolIn(e.session, b)}
}

// shiftCount converts the constant n to an unsigned shift count of x's width.
// Counts past the width shift out every bit, so they are clamped to it.
func (e *Evaluator) shiftCount(x bitvec, n *big.Int) (bitvec, error) {
	if n.Sign() < 0 {
		return nil, fmt.Errorf("invalid negative shift count %s", n)
	}
	w := x.symbolic().Kind().Width
	if max := new(big.Int).SetUint64(uint64(w)); n.Cmp(max) > 0 {
		n = max
	}
	k, ok := kinds[fmt.Sprintf("uint%d", w)]
	if !ok {
		return nil, fmt.Errorf("no shift count type for width %d", w)
	}
	return k.literal(e.session, n), nil
}

// literal converts an untyped integer to the named kind.
func (e *Evaluator) literal(typ string, v value) (bitvec, error) {
	n, ok := v.(untypedInt)
	if !ok {
		return nil, fmt.Errorf("mismatched types %s and %s", typ, v.typeName())
	}
	k := kinds[typ]
	if !k.fits(n.v) {
		return nil, fmt.Errorf("constant %s overflows %s", n.v, typ)
	}
	return k.literal(e.session, n.v), nil
}

// evalCall evaluates a conversion such as uint16(x).
func (e *Evaluator) evalCall(expr *ast.CallExpr) (value, error) {
	ident, ok := expr.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported call")
	}
	k, ok := kinds[ident.Name]
	if !ok || k.width == 0 {
		return nil, fmt.Errorf("%s is not a bit-vector type", ident.Name)
	} else if len(expr.Args) != 1 {
		return nil, fmt.Errorf("conversion to %s takes one argument", ident.Name)
	}

	x, err := e.eval(expr.Args[0])
	if err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case untypedInt:
		return e.literal(ident.Name, x)
	case bitvec:
		return k.convert(x.symbolic()), nil
	default:
		return nil, fmt.Errorf("cannot convert %s to %s", x.typeName(), ident.Name)
	}
}
