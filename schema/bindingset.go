package schema

import (
	"errors"
	"slices"
)

// ErrInstantiate is returned when a registered record factory fails to
// produce a decode target. It is fatal for the decode call that hit it.
var ErrInstantiate = errors.New("schema: cannot instantiate record type")

// BindingSet is the ordered set of column bindings for one record type.
// The order is the declaration order and defines column order in header mode
// output; it is the only join key in positional mode.
//
// A set is immutable once handed to Register or a codec and is safe for
// concurrent read-only use.
type BindingSet[T any] struct {
	bindings []Binding[T]
	factory  func() *T
}

// New creates a binding set preserving the declaration order of bindings.
// A set with zero bindings is valid and produces empty rows.
func New[T any](bindings ...Binding[T]) *BindingSet[T] {
	return &BindingSet[T]{bindings: slices.Clone(bindings)}
}

// WithFactory sets the constructor used to create decode targets and returns
// the set. Without a factory the type's zero value is used.
func (s *BindingSet[T]) WithFactory(factory func() *T) *BindingSet[T] {
	s.factory = factory
	return s
}

// Len returns the number of bindings in the set.
func (s *BindingSet[T]) Len() int {
	return len(s.bindings)
}

// Bindings returns the bindings in declaration order.
// The returned slice must not be modified.
func (s *BindingSet[T]) Bindings() []Binding[T] {
	return s.bindings
}

// Columns returns the header cells in declaration order. A binding without a
// column name contributes its field name so header cells stay aligned with
// the encoded row cells.
func (s *BindingSet[T]) Columns() []string {
	columns := make([]string, len(s.bindings))
	for i := range s.bindings {
		columns[i] = s.bindings[i].column
		if columns[i] == "" {
			columns[i] = s.bindings[i].field
		}
	}
	return columns
}

// NewRecord creates a fresh decode target.
// ErrInstantiate is returned if the set's factory produces nil.
func (s *BindingSet[T]) NewRecord() (*T, error) {
	if s.factory == nil {
		return new(T), nil
	}
	rec := s.factory()
	if rec == nil {
		return nil, ErrInstantiate
	}
	return rec, nil
}
