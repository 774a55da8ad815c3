package smt

import "fmt"

// Sort represents a backend type descriptor: either boolean or a bit-vector
// of a fixed width. The zero value is the boolean sort.
type Sort struct {
	width uint
}

// Bool is the boolean sort.
var Bool = Sort{}

// BitVec returns the bit-vector sort of the given width. Panic if width is zero.
func BitVec(width uint) Sort {
	if width == 0 {
		panic("smt.BitVec: width must be positive")
	}
	return Sort{width: width}
}

// IsBool returns true if s is the boolean sort.
func (s Sort) IsBool() bool { return s.width == 0 }

// IsBitVec returns true if s is a bit-vector sort.
func (s Sort) IsBitVec() bool { return s.width != 0 }

// Width returns the bit-vector width of s, or zero for the boolean sort.
func (s Sort) Width() uint { return s.width }

// String returns the SMT-LIB name of the sort.
func (s Sort) String() string {
	if s.IsBool() {
		return "Bool"
	}
	return fmt.Sprintf("(_ BitVec %d)", s.width)
}
