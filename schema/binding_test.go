package schema

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holmberd/go-csvbind/numfmt"
)

type order struct {
	ID       int
	Customer string
	Total    float64
	Express  bool
	Placed   time.Time
	Addr     net.IP
}

func orderBindings() *BindingSet[order] {
	return New(
		Int("ID", func(o *order) *int { return &o.ID }, Column("id"), Index(0)),
		String("Customer", func(o *order) *string { return &o.Customer }, Column("customer"), Index(1)),
		Float64("Total", func(o *order) *float64 { return &o.Total }, Column("total"), Index(2)),
		Bool("Express", func(o *order) *bool { return &o.Express }, Column("express"), Index(3)),
	)
}

func TestBindingConstructors(t *testing.T) {
	conv := numfmt.Invariant()

	t.Run("Encode and decode scalar fields", func(t *testing.T) {
		set := orderBindings()
		src := order{ID: 7, Customer: "acme", Total: 1234.5, Express: true}
		var dst order

		for _, b := range set.Bindings() {
			cell := b.Encode(&src, conv)
			require.NoError(t, b.Decode(&dst, cell, conv))
		}
		assert.Equal(t, src.ID, dst.ID)
		assert.Equal(t, src.Customer, dst.Customer)
		assert.Equal(t, src.Total, dst.Total)
		assert.Equal(t, src.Express, dst.Express)
	})

	t.Run("Conversion failure returns FormatError and leaves field default", func(t *testing.T) {
		b := Int("ID", func(o *order) *int { return &o.ID }, Column("id"))
		var rec order
		err := b.Decode(&rec, "abc", conv)
		require.Error(t, err)
		var formatErr *FormatError
		assert.ErrorAs(t, err, &formatErr)
		assert.Equal(t, "ID", formatErr.Field)
		assert.Equal(t, "abc", formatErr.Value)
		assert.Zero(t, rec.ID, "failed conversion must not modify the field")
	})

	t.Run("Float uses the numeric convention", func(t *testing.T) {
		b := Float64("Total", func(o *order) *float64 { return &o.Total }, Column("total"))
		german := numfmt.WithDecimalSeparator(',')
		rec := order{Total: 1234.5}
		assert.Equal(t, "1234,5", b.Encode(&rec, german))

		var dst order
		require.NoError(t, b.Decode(&dst, "1234,5", german))
		assert.Equal(t, 1234.5, dst.Total)
	})

	t.Run("Time binding uses layout", func(t *testing.T) {
		b := Time("Placed", time.DateOnly, func(o *order) *time.Time { return &o.Placed })
		rec := order{Placed: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, "2024-03-09", b.Encode(&rec, conv))

		var dst order
		require.NoError(t, b.Decode(&dst, "2024-03-09", conv))
		assert.Equal(t, rec.Placed, dst.Placed)
	})

	t.Run("Text binding uses text marshaling", func(t *testing.T) {
		b := Text[order]("Addr", func(o *order) *net.IP { return &o.Addr }, Column("addr"))
		rec := order{Addr: net.ParseIP("10.0.0.1")}
		assert.Equal(t, "10.0.0.1", b.Encode(&rec, conv))

		var dst order
		require.NoError(t, b.Decode(&dst, "10.0.0.1", conv))
		assert.True(t, rec.Addr.Equal(dst.Addr))
	})

	t.Run("EncodeOnly binding skips decode", func(t *testing.T) {
		b := String("Customer", func(o *order) *string { return &o.Customer }, Column("customer"), EncodeOnly())
		assert.True(t, b.IsEncodeOnly())

		var rec order
		require.NoError(t, b.Decode(&rec, "acme", conv))
		assert.Empty(t, rec.Customer, "encode-only binding must not write the field")
	})

	t.Run("Negative index stays unbound", func(t *testing.T) {
		b := Int("ID", func(o *order) *int { return &o.ID }, Index(-5))
		assert.Equal(t, UnboundIndex, b.Index())
	})
}

func TestBindingSet(t *testing.T) {
	t.Run("Declaration order preserved", func(t *testing.T) {
		set := orderBindings()
		assert.Equal(t, 4, set.Len())
		assert.Equal(t, []string{"id", "customer", "total", "express"}, set.Columns())
	})

	t.Run("Column falls back to field name", func(t *testing.T) {
		set := New(
			Int("ID", func(o *order) *int { return &o.ID }, Index(0)),
		)
		assert.Equal(t, []string{"ID"}, set.Columns())
	})

	t.Run("Empty set is valid", func(t *testing.T) {
		set := New[order]()
		assert.Zero(t, set.Len())
		assert.Empty(t, set.Columns())
	})

	t.Run("NewRecord without factory", func(t *testing.T) {
		set := orderBindings()
		rec, err := set.NewRecord()
		require.NoError(t, err)
		assert.Equal(t, &order{}, rec)
	})

	t.Run("NewRecord with factory", func(t *testing.T) {
		set := orderBindings().WithFactory(func() *order {
			return &order{Customer: "default"}
		})
		rec, err := set.NewRecord()
		require.NoError(t, err)
		assert.Equal(t, "default", rec.Customer)
	})

	t.Run("Nil factory result surfaces ErrInstantiate", func(t *testing.T) {
		set := orderBindings().WithFactory(func() *order { return nil })
		_, err := set.NewRecord()
		assert.ErrorIs(t, err, ErrInstantiate)
	})
}
