package zbitvector

// Width is a type-level bit-vector width. Callers may declare their own:
//
//	type W24 struct{}
//
//	func (W24) Bits() uint { return 24 }
type Width interface {
	Bits() uint
}

// Standard widths.
type (
	W1   struct{}
	W8   struct{}
	W16  struct{}
	W32  struct{}
	W64  struct{}
	W128 struct{}
	W256 struct{}
)

func (W1) Bits() uint   { return 1 }
func (W8) Bits() uint   { return 8 }
func (W16) Bits() uint  { return 16 }
func (W32) Bits() uint  { return 32 }
func (W64) Bits() uint  { return 64 }
func (W128) Bits() uint { return 128 }
func (W256) Bits() uint { return 256 }

// Standard kinds.
type (
	Uint1   = Uint[W1]
	Uint8   = Uint[W8]
	Uint16  = Uint[W16]
	Uint32  = Uint[W32]
	Uint64  = Uint[W64]
	Uint128 = Uint[W128]
	Uint256 = Uint[W256]

	Int1   = Int[W1]
	Int8   = Int[W8]
	Int16  = Int[W16]
	Int32  = Int[W32]
	Int64  = Int[W64]
	Int128 = Int[W128]
	Int256 = Int[W256]
)

// bits returns the width of W.
func bits[W Width]() uint {
	var w W
	n := w.Bits()
	assert(n > 0, "zero bit-vector width: %T", w)
	return n
}
