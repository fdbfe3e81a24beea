// Package codec converts record lists to and from delimited-text documents
// using the column bindings resolved by the schema package.
//
// The wire format is deliberately plain: cells are joined by a single
// separator character with no quoting or escaping, so a separator or line
// break inside a value is indistinguishable from a delimiter. Marshal writes
// one header line (unless positional mode is selected) followed by one line
// per record, each terminated with '\n' and nothing after the final row.
// Unmarshal decodes every data line, including the last one; blank lines are
// ignored.
package codec

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/holmberd/go-csvbind/numfmt"
	"github.com/holmberd/go-csvbind/schema"
)

// DefaultSeparator is the cell delimiter used when Options.Separator is unset.
const DefaultSeparator = ';'

// Options configures a codec. The zero value selects header mode, the ';'
// separator, the invariant numeric convention, and a logger that discards
// all records.
type Options struct {
	// NoHeader selects positional mode: no header line is written, and column
	// indexes alone resolve cell positions when decoding.
	NoHeader bool

	// Separator is the cell delimiter. Default is ';'.
	Separator rune

	// Convention is the numeric formatting convention applied to floating
	// point cells. The zero value is the invariant convention.
	Convention numfmt.Convention

	// Logger receives recovered per-field conversion failures at Warn level.
	Logger *slog.Logger
}

// Codec converts records of type T to and from rows of delimited text.
// A codec is immutable after construction and safe for concurrent use.
type Codec[T any] struct {
	set      *schema.BindingSet[T]
	noHeader bool
	sep      string
	conv     numfmt.Convention
	logger   *slog.Logger
}

// New creates a codec for T using the binding set from schema.Resolve.
func New[T any](opts Options) *Codec[T] {
	return NewWithBindings(schema.Resolve[T](), opts)
}

// NewWithBindings creates a codec for T using an explicit binding set.
func NewWithBindings[T any](set *schema.BindingSet[T], opts Options) *Codec[T] {
	sep := opts.Separator
	if sep == 0 {
		sep = DefaultSeparator
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Codec[T]{
		set:      set,
		noHeader: opts.NoHeader,
		sep:      string(sep),
		conv:     opts.Convention,
		logger:   logger,
	}
}

// Bindings returns the codec's binding set.
func (c *Codec[T]) Bindings() *schema.BindingSet[T] {
	return c.set
}

// Header returns the header line: column names in binding declaration order
// joined by the separator. A binding without a column name contributes its
// field name, keeping header cells aligned with row cells.
func (c *Codec[T]) Header() string {
	return strings.Join(c.set.Columns(), c.sep)
}

// EncodeRow converts one record to a single line of delimited text with no
// trailing line terminator. A nil or absent value encodes as an empty cell.
func (c *Codec[T]) EncodeRow(rec *T) string {
	bindings := c.set.Bindings()
	cells := make([]string, len(bindings))
	for i := range bindings {
		cells[i] = bindings[i].Encode(rec, c.conv)
	}
	return strings.Join(cells, c.sep)
}

// Marshal composes the document for the record list: the header line in
// header mode, then one line per record in input order, each terminated
// with '\n'.
func (c *Codec[T]) Marshal(records []T) string {
	var sb strings.Builder
	if !c.noHeader {
		sb.WriteString(c.Header())
		sb.WriteByte('\n')
	}
	for i := range records {
		sb.WriteString(c.EncodeRow(&records[i]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Encode composes the document for the record list and hands it to w.
func (c *Codec[T]) Encode(w io.Writer, records []T) error {
	if _, err := io.WriteString(w, c.Marshal(records)); err != nil {
		return fmt.Errorf("codec: failed to write document: %w", err)
	}
	return nil
}
