package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapColumnsExample(t *testing.T) {
	dateHeader, data := SplitDateHeader([]string{"Fecha", "Total Ventas", "Costo"})
	assert.Equal(t, "Fecha", dateHeader)

	got := MapColumns(data, []string{"fecha", "total_ventas", "costo_unitario"})
	assert.Equal(t, []Binding{
		{Header: "Total Ventas", Key: "total_ventas"},
		{Header: "Costo", Key: "costo_unitario"},
	}, got)
}

func TestMapColumnsPrecedence(t *testing.T) {
	keys := []string{"Venta Neta Total", "venta-neta", "VENTA  NETA", "Región"}
	got := MapColumns([]string{"venta neta", "Venta_Neta_Total", "neta", "region", "Margen", ""}, keys)

	assert.Equal(t, "VENTA  NETA", got[0].Key, "exact match beats earlier substring candidates")
	assert.Equal(t, "Venta Neta Total", got[1].Key, "alphanumeric match")
	assert.Equal(t, "Venta Neta Total", got[2].Key, "substring match takes the first candidate")
	assert.Equal(t, "Región", got[3].Key, "accents fold in the alphanumeric pass")
	assert.False(t, got[4].Bound())
	assert.False(t, got[5].Bound(), "empty headers never match")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "total ventas", Normalize("  Total \t  Ventas\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestSplitDateHeader(t *testing.T) {
	h, data := SplitDateHeader([]string{"Producto", "Unidades"})
	assert.Equal(t, DefaultDateHeader, h)
	assert.Equal(t, []string{"Producto", "Unidades"}, data)

	h, data = SplitDateHeader([]string{"Update Date", "Unidades"})
	assert.Equal(t, "Update Date", h)
	assert.Equal(t, []string{"Unidades"}, data)

	h, data = SplitDateHeader(nil)
	assert.Equal(t, DefaultDateHeader, h)
	assert.Empty(t, data)
}

func TestDateKey(t *testing.T) {
	tests := []struct {
		keys []string
		want string
		ok   bool
	}{
		{[]string{"Producto", "Fecha de corte", "Date"}, "Fecha de corte", true},
		{[]string{"Producto", "Día"}, "Día", true},
		{[]string{"Producto", "Unidades"}, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := DateKey(tt.keys)
		assert.Equal(t, tt.ok, ok, "keys %v", tt.keys)
		assert.Equal(t, tt.want, got, "keys %v", tt.keys)
	}
}
