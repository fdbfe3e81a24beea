package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/holmberd/go-csvbind/schema"
)

// HeaderIndex maps column names to their positions in the header line.
// It is built once per decode call and not persisted.
type HeaderIndex map[string]int

// NewHeaderIndex builds a header index from the header line's cells.
// The first occurrence of a duplicated name wins.
func NewHeaderIndex(cells []string) HeaderIndex {
	idx := make(HeaderIndex, len(cells))
	for i, name := range cells {
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

// Unmarshal decodes a whole document into a record list.
//
// In header mode the first non-blank line supplies the column names; every
// remaining line is decoded as a data row, including the final one. Rows
// where no bound column could be matched are dropped from the result without
// an error. Per-field conversion failures are logged and recovered; only a
// failed record instantiation aborts the call.
func (c *Codec[T]) Unmarshal(doc string) ([]T, error) {
	return c.decodeLines(splitLines(doc))
}

// Decode reads the document from r and decodes it like Unmarshal.
func (c *Codec[T]) Decode(r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("codec: failed to read document: %w", err)
	}
	return c.decodeLines(lines)
}

// DecodeRow decodes one split row into a fresh record. It reports whether at
// least one field was set; callers should discard records where ok is false.
// hdr must be nil in positional mode.
func (c *Codec[T]) DecodeRow(cells []string, hdr HeaderIndex) (rec *T, ok bool, err error) {
	return c.decodeRow(cells, hdr)
}

func splitLines(doc string) []string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func (c *Codec[T]) splitRow(line string) []string {
	return strings.Split(line, c.sep)
}

func (c *Codec[T]) decodeLines(lines []string) ([]T, error) {
	var hdr HeaderIndex
	if !c.noHeader {
		for len(lines) > 0 && lines[0] == "" {
			lines = lines[1:]
		}
		if len(lines) == 0 {
			return nil, nil
		}
		hdr = NewHeaderIndex(c.splitRow(lines[0]))
		lines = lines[1:]
	}

	var out []T
	for _, line := range lines {
		if line == "" {
			continue
		}
		rec, ok, err := c.decodeRow(c.splitRow(line), hdr)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (c *Codec[T]) decodeRow(cells []string, hdr HeaderIndex) (*T, bool, error) {
	rec, err := c.set.NewRecord()
	if err != nil {
		return nil, false, err
	}

	fieldsSet := 0
	bindings := c.set.Bindings()
	for i := range bindings {
		b := &bindings[i]
		if b.IsEncodeOnly() {
			continue // Not writable in the target type.
		}
		cell, ok := c.lookup(b, cells, hdr)
		if !ok || cell == "" {
			continue // Absent cell is a silent miss.
		}
		if err := b.Decode(rec, cell, c.conv); err != nil {
			// Best-effort policy: leave the field at its default value and
			// continue with the next field.
			c.logger.Warn("failed to convert cell",
				"field", b.Field(),
				"value", cell,
				"err", err,
			)
			continue
		}
		fieldsSet++
	}
	return rec, fieldsSet > 0, nil
}

// lookup resolves the raw cell for a binding: by header name in header mode,
// by column index in positional mode. Structural mismatches (missing header
// name, row shorter than the bound position) report ok=false.
func (c *Codec[T]) lookup(b *schema.Binding[T], cells []string, hdr HeaderIndex) (string, bool) {
	if hdr != nil {
		name := b.Column()
		if name == "" {
			return "", false
		}
		pos, ok := hdr[name]
		if !ok || pos >= len(cells) {
			return "", false
		}
		return cells[pos], true
	}
	idx := b.Index()
	if idx < 0 || idx >= len(cells) {
		return "", false
	}
	return cells[idx], true
}
