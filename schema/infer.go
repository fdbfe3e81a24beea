package schema

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/holmberd/go-csvbind/numfmt"
)

// TagKey is the struct tag consulted when inferring bindings.
//
// Tag format: `csv:"<column>[,index=<n>][,layout=<time layout>]"`.
// The column name may be empty for positional-only bindings. A field without
// a csv tag, or tagged "-", is ignored entirely: it is neither serialized
// nor populated.
const TagKey = "csv"

var (
	timeType            = reflect.TypeOf(time.Time{})
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

type tagConfig struct {
	column string
	index  int
	layout string
}

func parseTag(tag string) tagConfig {
	cfg := tagConfig{index: UnboundIndex, layout: time.RFC3339}
	parts := strings.Split(tag, ",")
	cfg.column = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "index="):
			if n, err := strconv.Atoi(strings.TrimPrefix(part, "index=")); err == nil && n >= 0 {
				cfg.index = n
			}
		case strings.HasPrefix(part, "layout="):
			cfg.layout = strings.TrimPrefix(part, "layout=")
		}
	}
	return cfg
}

// inferBindings derives a binding set for T from its csv struct tags.
// Field enumeration follows the type's declaration order.
func inferBindings[T any]() *BindingSet[T] {
	t := typeOf[T]()
	if t.Kind() != reflect.Struct {
		return New[T]()
	}
	var bindings []Binding[T]
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(TagKey)
		if !ok || tag == "-" {
			continue
		}
		b, ok := reflectBinding[T](f, i, parseTag(tag))
		if !ok {
			continue // No usable conversion for this field's kind.
		}
		bindings = append(bindings, b)
	}
	return New(bindings...)
}

// reflectBinding builds a binding whose accessors go through reflection.
// Pointer fields are dereferenced on encode (nil encodes as an empty cell)
// and allocated on decode.
func reflectBinding[T any](f reflect.StructField, fieldIdx int, cfg tagConfig) (Binding[T], bool) {
	ft := f.Type
	isPtr := ft.Kind() == reflect.Pointer
	if isPtr {
		ft = ft.Elem()
	}
	enc, dec, ok := reflectConverters(ft, f.Name, cfg.layout)
	if !ok {
		return Binding[T]{}, false
	}

	encode := func(rec *T, conv numfmt.Convention) string {
		v := reflect.ValueOf(rec).Elem().Field(fieldIdx)
		if isPtr {
			if v.IsNil() {
				return "" // Absent value.
			}
			v = v.Elem()
		}
		return enc(v, conv)
	}
	decode := func(rec *T, cell string, conv numfmt.Convention) error {
		v := reflect.ValueOf(rec).Elem().Field(fieldIdx)
		if isPtr {
			target := reflect.New(ft)
			if err := dec(target.Elem(), cell, conv); err != nil {
				return err
			}
			v.Set(target)
			return nil
		}
		return dec(v, cell, conv)
	}

	b := Binding[T]{
		field:  f.Name,
		column: cfg.column,
		index:  cfg.index,
		encode: encode,
		decode: decode,
	}
	return b, true
}

// reflectConverters returns encode/decode conversions for the field type, or
// ok=false when the kind has no usable text conversion.
func reflectConverters(ft reflect.Type, field, layout string) (
	enc func(v reflect.Value, conv numfmt.Convention) string,
	dec func(v reflect.Value, cell string, conv numfmt.Convention) error,
	ok bool,
) {
	switch {
	case ft == timeType:
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			return v.Interface().(time.Time).Format(layout)
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			tm, err := time.Parse(layout, cell)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			v.Set(reflect.ValueOf(tm))
			return nil
		}
		return enc, dec, true

	case ft.Implements(textMarshalerType) && reflect.PointerTo(ft).Implements(textUnmarshalerType):
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			data, err := v.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return ""
			}
			return string(data)
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(cell)); err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			return nil
		}
		return enc, dec, true
	}

	switch ft.Kind() {
	case reflect.String:
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			return v.String()
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			v.SetString(cell)
			return nil
		}
	case reflect.Bool:
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			return strconv.FormatBool(v.Bool())
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			b, err := strconv.ParseBool(cell)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			v.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := ft.Bits()
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			return strconv.FormatInt(v.Int(), 10)
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			n, err := strconv.ParseInt(cell, 10, bits)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			v.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := ft.Bits()
		enc = func(v reflect.Value, _ numfmt.Convention) string {
			return strconv.FormatUint(v.Uint(), 10)
		}
		dec = func(v reflect.Value, cell string, _ numfmt.Convention) error {
			n, err := strconv.ParseUint(cell, 10, bits)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			v.SetUint(n)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		bits := ft.Bits()
		enc = func(v reflect.Value, conv numfmt.Convention) string {
			return conv.FormatFloat(v.Float(), bits)
		}
		dec = func(v reflect.Value, cell string, conv numfmt.Convention) error {
			f, err := conv.ParseFloat(cell, bits)
			if err != nil {
				return &FormatError{Field: field, Value: cell, Err: err}
			}
			v.SetFloat(f)
			return nil
		}
	default:
		return nil, nil, false
	}
	return enc, dec, true
}
