// Package numfmt provides locale numeric conventions for round-trip-safe
// numeric text.
//
// A Convention fixes the decimal separator used when formatting and parsing
// floating-point values, independent of the host locale. Thousands grouping
// is never applied. The invariant convention ('.') is the default and is the
// safe choice when files are exchanged across locales where ',' and '.' swap
// roles.
package numfmt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// InvariantDecimalSeparator is the decimal separator of the invariant convention.
const InvariantDecimalSeparator = '.'

// Convention represents a fixed numeric formatting convention.
// The zero value behaves as the invariant convention.
type Convention struct {
	decimal rune
}

// Invariant returns the invariant convention ('.' decimal separator).
func Invariant() Convention {
	return Convention{decimal: InvariantDecimalSeparator}
}

// WithDecimalSeparator returns a convention with an explicit decimal separator.
func WithDecimalSeparator(sep rune) Convention {
	return Convention{decimal: sep}
}

// ForTag derives the convention for the given language tag.
//
// The decimal separator is obtained by formatting a fractional probe value
// with the tag's number formatting rules and extracting the separator rune.
func ForTag(tag language.Tag) Convention {
	probe := message.NewPrinter(tag).Sprint(number.Decimal(1.5))
	for _, r := range probe {
		if !unicode.IsDigit(r) {
			return Convention{decimal: r}
		}
	}
	return Invariant()
}

// DecimalSeparator returns the convention's decimal separator.
func (c Convention) DecimalSeparator() rune {
	if c.decimal == 0 {
		return InvariantDecimalSeparator
	}
	return c.decimal
}

// FormatFloat formats f in the shortest round-trippable form using the
// convention's decimal separator. No thousands grouping is applied.
// bitSize must be 32 or 64 and describes the origin of f.
func (c Convention) FormatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	sep := c.DecimalSeparator()
	if sep == InvariantDecimalSeparator {
		return s
	}
	return strings.Replace(s, string(InvariantDecimalSeparator), string(sep), 1)
}

// ParseFloat parses s according to the convention's decimal separator.
//
// When the separator is not '.', a '.' in the input is rejected: grouping
// characters are not supported, so a stray '.' indicates text written under a
// different convention.
func (c Convention) ParseFloat(s string, bitSize int) (float64, error) {
	sep := c.DecimalSeparator()
	if sep != InvariantDecimalSeparator {
		if strings.ContainsRune(s, InvariantDecimalSeparator) {
			return 0, fmt.Errorf("numfmt: %q is not a valid number with separator %q", s, sep)
		}
		s = strings.Replace(s, string(sep), string(InvariantDecimalSeparator), 1)
	}
	f, err := strconv.ParseFloat(s, bitSize)
	if err != nil {
		return 0, fmt.Errorf("numfmt: %q is not a valid number with separator %q", s, sep)
	}
	return f, nil
}
