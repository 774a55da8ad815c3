package smt_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/benbjohnson/zbitvector/smt"
	"github.com/google/go-cmp/cmp"
)

func TestSort_String(t *testing.T) {
	if s := smt.Bool.String(); s != "Bool" {
		t.Fatalf("unexpected string: %s", s)
	}
	if s := smt.BitVec(8).String(); s != "(_ BitVec 8)" {
		t.Fatalf("unexpected string: %s", s)
	}
}

func TestOp_String(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		if s := smt.BVAdd.String(); s != "bvadd" {
			t.Fatalf("unexpected string: %s", s)
		}
	})
	t.Run("Unknown", func(t *testing.T) {
		if s := smt.Op(1000).String(); s != "Op<1000>" {
			t.Fatalf("unexpected string: %s", s)
		}
	})
}

func TestResultSort(t *testing.T) {
	bv8, bv16 := smt.BitVec(8), smt.BitVec(16)

	for _, tt := range []struct {
		name   string
		op     smt.Op
		sorts  []smt.Sort
		params []uint
		want   smt.Sort
		err    error
	}{
		{name: "Add", op: smt.BVAdd, sorts: []smt.Sort{bv8, bv8}, want: bv8},
		{name: "AddWidthMismatch", op: smt.BVAdd, sorts: []smt.Sort{bv8, bv16}, err: smt.ErrWidthMismatch},
		{name: "AddBool", op: smt.BVAdd, sorts: []smt.Sort{smt.Bool, smt.Bool}, err: smt.ErrSortMismatch},
		{name: "Ult", op: smt.BVUlt, sorts: []smt.Sort{bv16, bv16}, want: smt.Bool},
		{name: "Not", op: smt.Not, sorts: []smt.Sort{smt.Bool}, want: smt.Bool},
		{name: "NotArity", op: smt.Not, sorts: []smt.Sort{smt.Bool, smt.Bool}, err: smt.ErrArity},
		{name: "AndBitVec", op: smt.And, sorts: []smt.Sort{bv8, bv8}, err: smt.ErrSortMismatch},
		{name: "Equal", op: smt.Equal, sorts: []smt.Sort{bv8, bv8}, want: smt.Bool},
		{name: "EqualWidthMismatch", op: smt.Equal, sorts: []smt.Sort{bv8, bv16}, err: smt.ErrWidthMismatch},
		{name: "EqualSortMismatch", op: smt.Equal, sorts: []smt.Sort{bv8, smt.Bool}, err: smt.ErrSortMismatch},
		{name: "Ite", op: smt.Ite, sorts: []smt.Sort{smt.Bool, bv16, bv16}, want: bv16},
		{name: "IteCondition", op: smt.Ite, sorts: []smt.Sort{bv8, bv16, bv16}, err: smt.ErrSortMismatch},
		{name: "IteWidthMismatch", op: smt.Ite, sorts: []smt.Sort{smt.Bool, bv8, bv16}, err: smt.ErrWidthMismatch},
		{name: "Extract", op: smt.Extract, sorts: []smt.Sort{bv16}, params: []uint{7, 0}, want: bv8},
		{name: "ExtractOutOfRange", op: smt.Extract, sorts: []smt.Sort{bv8}, params: []uint{8, 0}, err: smt.ErrParams},
		{name: "ExtractMissingParams", op: smt.Extract, sorts: []smt.Sort{bv8}, err: smt.ErrParams},
		{name: "ZeroExtend", op: smt.ZeroExtend, sorts: []smt.Sort{bv8}, params: []uint{8}, want: bv16},
		{name: "SignExtend", op: smt.SignExtend, sorts: []smt.Sort{bv8}, params: []uint{24}, want: smt.BitVec(32)},
		{name: "Concat", op: smt.Concat, sorts: []smt.Sort{bv8, bv8}, want: bv16},
		{name: "UnexpectedParams", op: smt.BVAdd, sorts: []smt.Sort{bv8, bv8}, params: []uint{1}, err: smt.ErrParams},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := smt.ResultSort(tt.op, tt.sorts, tt.params)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("unexpected error: %v", err)
				}
				var opErr *smt.OpError
				if !errors.As(err, &opErr) || opErr.Op != tt.op {
					t.Fatalf("expected *OpError for %s, got %#v", tt.op, err)
				}
				return
			} else if err != nil {
				t.Fatal(err)
			} else if got != tt.want {
				t.Fatalf("unexpected sort: %s", got)
			}
		})
	}
}

func TestOpError_Error(t *testing.T) {
	_, err := smt.ResultSort(smt.BVAdd, []smt.Sort{smt.BitVec(8), smt.BitVec(16)}, nil)
	if diff := cmp.Diff(err.Error(), "bvadd((_ BitVec 8), (_ BitVec 16)): bit-vector width mismatch"); diff != "" {
		t.Fatal(diff)
	}
}

func TestCheckValue(t *testing.T) {
	for _, tt := range []struct {
		sort smt.Sort
		v    int64
		ok   bool
	}{
		{smt.BitVec(8), 0, true},
		{smt.BitVec(8), 255, true},
		{smt.BitVec(8), 256, false},
		{smt.BitVec(8), -1, false},
		{smt.Bool, 1, true},
		{smt.Bool, 2, false},
	} {
		if err := smt.CheckValue(tt.sort, big.NewInt(tt.v)); (err == nil) != tt.ok {
			t.Fatalf("CheckValue(%s, %d): unexpected result: %v", tt.sort, tt.v, err)
		} else if err != nil && !errors.Is(err, smt.ErrValueRange) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestResult_String(t *testing.T) {
	if diff := cmp.Diff(
		[]string{smt.Sat.String(), smt.Unsat.String(), smt.Unknown.String()},
		[]string{"sat", "unsat", "unknown"},
	); diff != "" {
		t.Fatal(diff)
	}
}
