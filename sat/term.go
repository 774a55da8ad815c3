package sat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benbjohnson/zbitvector/smt"
	"github.com/go-air/gini/z"
)

// termKind distinguishes leaves from derived terms.
type termKind int

const (
	derivedTerm termKind = iota
	constTerm
	valueTerm
)

// term represents a node in the backend's expression DAG. Derived terms and
// literals are hash-consed, so two structurally equal terms are the same pointer.
type term struct {
	owner  *Backend
	id     int
	kind   termKind
	op     smt.Op
	sort   smt.Sort
	args   []*term
	params []uint
	name   string // constTerm only
	value  value  // valueTerm only

	bits    []z.Lit // bit-blasted encoding, LSB first; nil until needed
	inputAt int     // index of the first input literal for constTerm, -1 until blasted
}

// Sort returns the sort of the term.
func (t *term) Sort() smt.Sort { return t.sort }

// width returns the number of bits in the term's encoding.
func (t *term) width() uint {
	if t.sort.IsBool() {
		return 1
	}
	return t.sort.Width()
}

// String returns the SMT-LIB rendering of the term.
func (t *term) String() string {
	var buf strings.Builder
	t.dump(&buf)
	return buf.String()
}

func (t *term) dump(buf *strings.Builder) {
	switch t.kind {
	case constTerm:
		buf.WriteString(t.name)
	case valueTerm:
		buf.WriteString(formatValue(t.sort, t.value))
	default:
		buf.WriteByte('(')
		if t.op.IsIndexed() {
			fmt.Fprintf(buf, "(_ %s", t.op)
			for _, p := range t.params {
				buf.WriteByte(' ')
				buf.WriteString(strconv.FormatUint(uint64(p), 10))
			}
			buf.WriteByte(')')
		} else {
			buf.WriteString(t.op.String())
		}
		for _, arg := range t.args {
			buf.WriteByte(' ')
			arg.dump(buf)
		}
		buf.WriteByte(')')
	}
}

// formatValue renders a literal the way SMT-LIB prints it.
func formatValue(sort smt.Sort, v value) string {
	if sort.IsBool() {
		if v.IsTrue() {
			return "true"
		}
		return "false"
	}
	w := int(sort.Width())
	if w%4 == 0 {
		s := v.v.Text(16)
		return "#x" + strings.Repeat("0", w/4-len(s)) + s
	}
	s := v.v.Text(2)
	return "#b" + strings.Repeat("0", w-len(s)) + s
}

// key returns the hash-consing key of a derived term.
func key(op smt.Op, args []*term, params []uint) string {
	var buf strings.Builder
	buf.WriteString(strconv.Itoa(int(op)))
	for _, arg := range args {
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(arg.id))
	}
	for _, p := range params {
		buf.WriteString(" _")
		buf.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	return buf.String()
}

// valueKey returns the hash-consing key of a literal.
func valueKey(sort smt.Sort, v value) string {
	return "#" + sort.String() + ":" + v.v.Text(16)
}
