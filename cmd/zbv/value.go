package main

import (
	"fmt"
	"go/token"
	"math/big"
	"strings"

	"github.com/benbjohnson/zbitvector"
)

// value is the result of evaluating an expression.
type value interface {
	typeName() string
}

// untypedInt is an integer literal whose kind is taken from context.
type untypedInt struct {
	v *big.Int
}

func (untypedInt) typeName() string { return "untyped int" }

type boolValue struct {
	x zbitvector.Constraint
}

func (boolValue) typeName() string { return "bool" }

// bitvec is a typed bit-vector value.
type bitvec interface {
	value
	symbolic() zbitvector.BitVector
	unary(op token.Token) (bitvec, error)
	binary(op token.Token, y bitvec) (bitvec, error)
	compare(op token.Token, y bitvec) (zbitvector.Constraint, error)
}

// kind describes a variable type usable in problem files.
type kind struct {
	width  uint // zero for bool
	signed bool

	named   func(s *zbitvector.Session, name string) (value, error)
	literal func(s *zbitvector.Session, v *big.Int) bitvec
	convert func(x zbitvector.BitVector) bitvec
}

// kinds maps Go type names to kinds.
var kinds = map[string]*kind{
	"bool": {
		named: func(s *zbitvector.Session, name string) (value, error) {
			x, err := zbitvector.NamedIn[zbitvector.Constraint](s, name)
			if err != nil {
				return nil, err
			}
			return boolValue{x}, nil
		},
	},
	"uint8":   uintKind[zbitvector.W8](),
	"uint16":  uintKind[zbitvector.W16](),
	"uint32":  uintKind[zbitvector.W32](),
	"uint64":  uintKind[zbitvector.W64](),
	"uint128": uintKind[zbitvector.W128](),
	"uint256": uintKind[zbitvector.W256](),
	"int8":    intKind[zbitvector.W8](),
	"int16":   intKind[zbitvector.W16](),
	"int32":   intKind[zbitvector.W32](),
	"int64":   intKind[zbitvector.W64](),
	"int128":  intKind[zbitvector.W128](),
	"int256":  intKind[zbitvector.W256](),
}

// fits returns true if v is representable by k.
func (k *kind) fits(v *big.Int) bool {
	if k.signed {
		lim := new(big.Int).Lsh(big.NewInt(1), k.width-1)
		return v.Cmp(new(big.Int).Neg(lim)) >= 0 && v.Cmp(lim) < 0
	}
	return v.Sign() >= 0 && uint(v.BitLen()) <= k.width
}

func uintKind[W zbitvector.Width]() *kind {
	var w W
	return &kind{
		width: w.Bits(),
		named: func(s *zbitvector.Session, name string) (value, error) {
			x, err := zbitvector.NamedIn[zbitvector.Uint[W]](s, name)
			if err != nil {
				return nil, err
			}
			return uintValue[W]{x}, nil
		},
		literal: func(s *zbitvector.Session, v *big.Int) bitvec {
			return uintValue[W]{zbitvector.BigUintIn[W](s, v)}
		},
		convert: func(x zbitvector.BitVector) bitvec {
			return uintValue[W]{zbitvector.Into[zbitvector.Uint[W]](x)}
		},
	}
}

func intKind[W zbitvector.Width]() *kind {
	var w W
	return &kind{
		width:  w.Bits(),
		signed: true,
		named: func(s *zbitvector.Session, name string) (value, error) {
			x, err := zbitvector.NamedIn[zbitvector.Int[W]](s, name)
			if err != nil {
				return nil, err
			}
			return intValue[W]{x}, nil
		},
		literal: func(s *zbitvector.Session, v *big.Int) bitvec {
			return intValue[W]{zbitvector.BigIntIn[W](s, v)}
		},
		convert: func(x zbitvector.BitVector) bitvec {
			return intValue[W]{zbitvector.Into[zbitvector.Int[W]](x)}
		},
	}
}

type uintValue[W zbitvector.Width] struct {
	x zbitvector.Uint[W]
}

func (v uintValue[W]) typeName() string               { return strings.ToLower(v.x.Kind().String()) }
func (v uintValue[W]) symbolic() zbitvector.BitVector { return v.x }

func (v uintValue[W]) unary(op token.Token) (bitvec, error) {
	switch op {
	case token.ADD:
		return v, nil
	case token.SUB:
		return uintValue[W]{v.x.Neg()}, nil
	case token.XOR:
		return uintValue[W]{v.x.Not()}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s on %s", op, v.typeName())
	}
}

func (v uintValue[W]) binary(op token.Token, y bitvec) (bitvec, error) {
	if op == token.SHL || op == token.SHR {
		n, err := shiftCount[W](y)
		if err != nil {
			return nil, err
		} else if op == token.SHL {
			return uintValue[W]{v.x.Shl(n)}, nil
		}
		return uintValue[W]{v.x.Shr(n)}, nil
	}

	other, ok := y.(uintValue[W])
	if !ok {
		return nil, mismatch(op, v, y)
	}
	switch op {
	case token.ADD:
		return uintValue[W]{v.x.Add(other.x)}, nil
	case token.SUB:
		return uintValue[W]{v.x.Sub(other.x)}, nil
	case token.MUL:
		return uintValue[W]{v.x.Mul(other.x)}, nil
	case token.QUO:
		return uintValue[W]{v.x.Div(other.x)}, nil
	case token.REM:
		return uintValue[W]{v.x.Rem(other.x)}, nil
	case token.AND:
		return uintValue[W]{v.x.And(other.x)}, nil
	case token.OR:
		return uintValue[W]{v.x.Or(other.x)}, nil
	case token.XOR:
		return uintValue[W]{v.x.Xor(other.x)}, nil
	case token.AND_NOT:
		return uintValue[W]{v.x.And(other.x.Not())}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s on %s", op, v.typeName())
	}
}

func (v uintValue[W]) compare(op token.Token, y bitvec) (zbitvector.Constraint, error) {
	other, ok := y.(uintValue[W])
	if !ok {
		return zbitvector.Constraint{}, mismatch(op, v, y)
	}
	switch op {
	case token.EQL:
		return v.x.Eq(other.x), nil
	case token.NEQ:
		return v.x.Ne(other.x), nil
	case token.LSS:
		return v.x.Lt(other.x), nil
	case token.LEQ:
		return v.x.Le(other.x), nil
	case token.GTR:
		return v.x.Gt(other.x), nil
	case token.GEQ:
		return v.x.Ge(other.x), nil
	default:
		return zbitvector.Constraint{}, fmt.Errorf("invalid comparison %s on %s", op, v.typeName())
	}
}

type intValue[W zbitvector.Width] struct {
	x zbitvector.Int[W]
}

func (v intValue[W]) typeName() string               { return strings.ToLower(v.x.Kind().String()) }
func (v intValue[W]) symbolic() zbitvector.BitVector { return v.x }

func (v intValue[W]) unary(op token.Token) (bitvec, error) {
	switch op {
	case token.ADD:
		return v, nil
	case token.SUB:
		return intValue[W]{v.x.Neg()}, nil
	case token.XOR:
		return intValue[W]{v.x.Not()}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s on %s", op, v.typeName())
	}
}

func (v intValue[W]) binary(op token.Token, y bitvec) (bitvec, error) {
	if op == token.SHL || op == token.SHR {
		n, err := shiftCount[W](y)
		if err != nil {
			return nil, err
		} else if op == token.SHL {
			return intValue[W]{v.x.Shl(n)}, nil
		}
		return intValue[W]{v.x.Shr(n)}, nil
	}

	other, ok := y.(intValue[W])
	if !ok {
		return nil, mismatch(op, v, y)
	}
	switch op {
	case token.ADD:
		return intValue[W]{v.x.Add(other.x)}, nil
	case token.SUB:
		return intValue[W]{v.x.Sub(other.x)}, nil
	case token.MUL:
		return intValue[W]{v.x.Mul(other.x)}, nil
	case token.QUO:
		return intValue[W]{v.x.Div(other.x)}, nil
	case token.REM:
		return intValue[W]{v.x.Rem(other.x)}, nil
	case token.AND:
		return intValue[W]{v.x.And(other.x)}, nil
	case token.OR:
		return intValue[W]{v.x.Or(other.x)}, nil
	case token.XOR:
		return intValue[W]{v.x.Xor(other.x)}, nil
	case token.AND_NOT:
		return intValue[W]{v.x.And(other.x.Not())}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s on %s", op, v.typeName())
	}
}

func (v intValue[W]) compare(op token.Token, y bitvec) (zbitvector.Constraint, error) {
	other, ok := y.(intValue[W])
	if !ok {
		return zbitvector.Constraint{}, mismatch(op, v, y)
	}
	switch op {
	case token.EQL:
		return v.x.Eq(other.x), nil
	case token.NEQ:
		return v.x.Ne(other.x), nil
	case token.LSS:
		return v.x.Lt(other.x), nil
	case token.LEQ:
		return v.x.Le(other.x), nil
	case token.GTR:
		return v.x.Gt(other.x), nil
	case token.GEQ:
		return v.x.Ge(other.x), nil
	default:
		return zbitvector.Constraint{}, fmt.Errorf("invalid comparison %s on %s", op, v.typeName())
	}
}

// shiftCount returns y as an unsigned shift amount of width W. Signed counts
// of the same width are reinterpreted.
func shiftCount[W zbitvector.Width](y bitvec) (zbitvector.Uint[W], error) {
	switch y := y.(type) {
	case uintValue[W]:
		return y.x, nil
	case intValue[W]:
		return zbitvector.Into[zbitvector.Uint[W]](y.x), nil
	default:
		var zero zbitvector.Uint[W]
		return zero, fmt.Errorf("invalid shift count type %s for %s", y.typeName(), strings.ToLower(zero.Kind().String()))
	}
}

func mismatch(op token.Token, x, y value) error {
	return fmt.Errorf("invalid operation %s (mismatched types %s and %s)", op, x.typeName(), y.typeName())
}
