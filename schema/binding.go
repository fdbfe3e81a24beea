// Package schema provides declarative field-to-column bindings for record
// types and resolves them into ordered binding sets consumed by the row codec.
//
// Bindings are declared either explicitly through the typed constructors
// (String, Int, Float64, ...) registered with Register, or derived from `csv`
// struct tags on first Resolve. A binding associates one record field with a
// CSV column by name (header mode), by index (positional mode), or both.
package schema

import (
	"encoding"
	"fmt"
	"strconv"
	"time"

	"github.com/holmberd/go-csvbind/numfmt"
)

// UnboundIndex marks a binding that has no positional column index.
const UnboundIndex = -1

// FormatError reports a raw cell value that could not be converted to its
// field's type. The row codec recovers it: the field keeps its default value
// and decoding continues with the next field.
type FormatError struct {
	Field string // Record field name.
	Value string // Raw cell text.
	Err   error  // Underlying conversion error.
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("schema: field '%s': cannot convert %q: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type bindingConfig struct {
	column     string
	index      int
	encodeOnly bool
}

// Option configures a binding constructor.
type Option func(*bindingConfig)

// Column sets the column name used in header mode.
func Column(name string) Option {
	return func(cfg *bindingConfig) {
		cfg.column = name
	}
}

// Index sets the zero-based column index used in positional mode.
// Negative indexes leave the binding without a positional index.
func Index(i int) Option {
	return func(cfg *bindingConfig) {
		if i < 0 {
			i = UnboundIndex
		}
		cfg.index = i
	}
}

// EncodeOnly marks the binding as not writable: it is serialized but never
// attempted when decoding.
func EncodeOnly() Option {
	return func(cfg *bindingConfig) {
		cfg.encodeOnly = true
	}
}

// Binding associates one record field with a CSV column.
//
// A binding should carry a column name, a column index, or both; a binding
// with neither is never matched in any mode. Bindings are immutable after
// construction and safe for concurrent read-only use.
type Binding[T any] struct {
	field      string
	column     string
	index      int
	encodeOnly bool
	encode     func(rec *T, conv numfmt.Convention) string
	decode     func(rec *T, cell string, conv numfmt.Convention) error
}

func newBinding[T any](
	field string,
	encode func(rec *T, conv numfmt.Convention) string,
	decode func(rec *T, cell string, conv numfmt.Convention) error,
	opts []Option,
) Binding[T] {
	cfg := bindingConfig{index: UnboundIndex}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Binding[T]{
		field:      field,
		column:     cfg.column,
		index:      cfg.index,
		encodeOnly: cfg.encodeOnly,
		encode:     encode,
		decode:     decode,
	}
}

// Field returns the record field name the binding maps.
func (b *Binding[T]) Field() string {
	return b.field
}

// Column returns the bound column name, or "" when the binding has none.
func (b *Binding[T]) Column() string {
	return b.column
}

// Index returns the bound column index, or UnboundIndex when the binding has none.
func (b *Binding[T]) Index() int {
	return b.index
}

// IsEncodeOnly reports whether the binding is skipped when decoding.
func (b *Binding[T]) IsEncodeOnly() bool {
	return b.encodeOnly
}

// Encode returns the field's text cell for the record.
func (b *Binding[T]) Encode(rec *T, conv numfmt.Convention) string {
	return b.encode(rec, conv)
}

// Decode converts the raw cell and assigns it to the record's field.
// On conversion failure a *FormatError is returned and the field is left
// unmodified.
func (b *Binding[T]) Decode(rec *T, cell string, conv numfmt.Convention) error {
	if b.encodeOnly || b.decode == nil {
		return nil // No-op for non-writable bindings.
	}
	return b.decode(rec, cell, conv)
}

// String binds a string field.
func String[T any](field string, access func(*T) *string, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return *access(rec)
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			*access(rec) = cell
			return nil
		},
		opts,
	)
}

// Bool binds a bool field using the canonical "true"/"false" literals.
func Bool[T any](field string, access func(*T) *bool, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return strconv.FormatBool(*access(rec))
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			v, err := strconv.ParseBool(cell)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Int binds an int field using base-10 digits.
func Int[T any](field string, access func(*T) *int, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return strconv.Itoa(*access(rec))
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Int64 binds an int64 field using base-10 digits.
func Int64[T any](field string, access func(*T) *int64, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return strconv.FormatInt(*access(rec), 10)
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			v, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Uint64 binds a uint64 field using base-10 digits.
func Uint64[T any](field string, access func(*T) *uint64, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return strconv.FormatUint(*access(rec), 10)
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			v, err := strconv.ParseUint(cell, 10, 64)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Float64 binds a float64 field formatted with the active numeric convention.
func Float64[T any](field string, access func(*T) *float64, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, conv numfmt.Convention) string {
			return conv.FormatFloat(*access(rec), 64)
		},
		func(rec *T, cell string, conv numfmt.Convention) error {
			v, err := conv.ParseFloat(cell, 64)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Float32 binds a float32 field formatted with the active numeric convention.
func Float32[T any](field string, access func(*T) *float32, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, conv numfmt.Convention) string {
			return conv.FormatFloat(float64(*access(rec)), 32)
		},
		func(rec *T, cell string, conv numfmt.Convention) error {
			v, err := conv.ParseFloat(cell, 32)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = float32(v)
			return nil
		},
		opts,
	)
}

// Time binds a time.Time field using the provided layout.
// An empty layout defaults to time.RFC3339.
func Time[T any](field string, layout string, access func(*T) *time.Time, opts ...Option) Binding[T] {
	if layout == "" {
		layout = time.RFC3339
	}
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			return access(rec).Format(layout)
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			v, err := time.Parse(layout, cell)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}

// Text binds a field whose type implements encoding.TextMarshaler and, via
// its pointer, encoding.TextUnmarshaler.
func Text[T any, V encoding.TextMarshaler, PV interface {
	*V
	encoding.TextUnmarshaler
}](field string, access func(*T) *V, opts ...Option) Binding[T] {
	return newBinding(field,
		func(rec *T, _ numfmt.Convention) string {
			data, err := (*access(rec)).MarshalText()
			if err != nil {
				return ""
			}
			return string(data)
		},
		func(rec *T, cell string, _ numfmt.Convention) error {
			var v V
			if err := PV(&v).UnmarshalText([]byte(cell)); err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			*access(rec) = v
			return nil
		},
		opts,
	)
}
