package zbitvector

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/benbjohnson/zbitvector/smt"
)

// Class identifies the family of a symbolic kind.
type Class int

const (
	BoolClass Class = iota
	UintClass
	IntClass
)

// Kind identifies a concrete symbolic kind, such as Constraint or Uint8.
type Kind struct {
	Class Class
	Width uint // bit-vector width; zero for BoolClass
}

// String returns the Go name of the kind.
func (k Kind) String() string {
	switch k.Class {
	case BoolClass:
		return "Constraint"
	case UintClass:
		return fmt.Sprintf("Uint%d", k.Width)
	case IntClass:
		return fmt.Sprintf("Int%d", k.Width)
	default:
		return fmt.Sprintf("Kind<%d>", k.Class)
	}
}

// Sort returns the backend sort shared by every value of the kind.
func (k Kind) Sort() smt.Sort {
	if k.Class == BoolClass {
		return smt.Bool
	}
	return smt.BitVec(k.Width)
}

// Registry maps names to the named constants created for them. A name is
// bound to one kind and one backend term until the registry is cleared.
//
// Registry is not safe for concurrent use.
type Registry struct {
	backend smt.Backend
	entries *immutable.SortedMap // name -> *registryEntry
}

type registryEntry struct {
	kind Kind
	term smt.Term
}

// NewRegistry returns a new registry that mints constants from b.
func NewRegistry(b smt.Backend) *Registry {
	return &Registry{
		backend: b,
		entries: immutable.NewSortedMap(&stringComparer{}),
	}
}

// Intern returns the constant registered under name. The first request for a
// name mints a fresh backend constant of k's sort. Later requests must use the
// same kind or a *NameConflictError is returned.
func (r *Registry) Intern(name string, k Kind) (smt.Term, error) {
	if v, ok := r.entries.Get(name); ok {
		e := v.(*registryEntry)
		if e.kind != k {
			return nil, &NameConflictError{Name: name, Existing: e.kind, Requested: k}
		}
		return e.term, nil
	}

	e := &registryEntry{kind: k, term: r.backend.Const(k.Sort(), name)}
	r.entries = r.entries.Set(name, e)
	return e.term, nil
}

// Lookup returns the kind and term registered under name.
func (r *Registry) Lookup(name string) (Kind, smt.Term, bool) {
	v, ok := r.entries.Get(name)
	if !ok {
		return Kind{}, nil, false
	}
	e := v.(*registryEntry)
	return e.kind, e.term, true
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	a := make([]string, 0, r.entries.Len())
	itr := r.entries.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(string))
	}
	return a
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return r.entries.Len()
}

// Clear removes every registration. Values created before the call remain
// valid, but requesting a cleared name again mints a new constant.
func (r *Registry) Clear() {
	r.entries = immutable.NewSortedMap(&stringComparer{})
}

// stringComparer compares two strings. Implements immutable.Comparer.
type stringComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a string.
func (c *stringComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}
