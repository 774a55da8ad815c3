package smt

import "fmt"

// Op represents the operator kind of a derived term.
type Op int

// Term operators.
const (
	bool_op_begin = Op(iota)
	Not
	And
	Or
	Xor
	Implies
	bool_op_end

	Equal
	Distinct
	Ite

	arithmetic_op_begin
	BVNot
	BVNeg
	BVAnd
	BVOr
	BVXor
	BVAdd
	BVSub
	BVMul
	BVUDiv
	BVSDiv
	BVURem
	BVSRem
	BVShl
	BVLShr
	BVAShr
	arithmetic_op_end

	compare_op_begin
	BVUlt
	BVUle
	BVSlt
	BVSle
	compare_op_end

	Extract
	ZeroExtend
	SignExtend
	Concat
)

var ops = [...]string{
	Not:        "not",
	And:        "and",
	Or:         "or",
	Xor:        "xor",
	Implies:    "=>",
	Equal:      "=",
	Distinct:   "distinct",
	Ite:        "ite",
	BVNot:      "bvnot",
	BVNeg:      "bvneg",
	BVAnd:      "bvand",
	BVOr:       "bvor",
	BVXor:      "bvxor",
	BVAdd:      "bvadd",
	BVSub:      "bvsub",
	BVMul:      "bvmul",
	BVUDiv:     "bvudiv",
	BVSDiv:     "bvsdiv",
	BVURem:     "bvurem",
	BVSRem:     "bvsrem",
	BVShl:      "bvshl",
	BVLShr:     "bvlshr",
	BVAShr:     "bvashr",
	BVUlt:      "bvult",
	BVUle:      "bvule",
	BVSlt:      "bvslt",
	BVSle:      "bvsle",
	Extract:    "extract",
	ZeroExtend: "zero_extend",
	SignExtend: "sign_extend",
	Concat:     "concat",
}

// String returns the SMT-LIB name of the operator.
func (op Op) String() string {
	if op >= 0 && op < Op(len(ops)) && ops[op] != "" {
		return ops[op]
	}
	return fmt.Sprintf("Op<%d>", op)
}

// IsBoolean returns true if op is a connective over boolean operands.
func (op Op) IsBoolean() bool {
	return op > bool_op_begin && op < bool_op_end
}

// IsArithmetic returns true if op maps bit-vectors to a bit-vector of the same width.
func (op Op) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsCompare returns true if op is an ordered bit-vector comparison.
func (op Op) IsCompare() bool {
	return op > compare_op_begin && op < compare_op_end
}

// IsIndexed returns true if op takes integer parameters in addition to operands.
func (op Op) IsIndexed() bool {
	return op == Extract || op == ZeroExtend || op == SignExtend
}

// arity returns the number of operands op requires.
func (op Op) arity() int {
	switch op {
	case Not, BVNot, BVNeg, Extract, ZeroExtend, SignExtend:
		return 1
	case Ite:
		return 3
	default:
		return 2
	}
}
