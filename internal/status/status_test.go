package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKnownCodes(t *testing.T) {
	tests := []struct {
		code      string
		wantTitle string
	}{
		{"pending", "Comandă În Așteptare"},
		{"confirmed", "Comandă Confirmată"},
		{"processing", "Comandă În Procesare"},
		{"shipped", "Comandă Expediată"},
		{"in_transit", "Colet În Tranzit"},
		{"out_for_delivery", "Colet În Curs de Livrare"},
		{"delivered", "Comandă Livrată"},
		{"cancelled", "Comandă Anulată"},
		{"refunded", "Comandă Rambursată"},
		{"returned", "Comandă Returnată"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info := Lookup(tt.code)
			assert.Equal(t, tt.wantTitle, info.Title)
			assert.NotEmpty(t, info.Emoji)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestLookupNormalizesSeparatorsAndCase(t *testing.T) {
	assert.Equal(t, Lookup("out_for_delivery"), Lookup("Out For Delivery"))
	assert.Equal(t, Lookup("in_transit"), Lookup("IN-TRANSIT"))
	assert.Equal(t, Lookup("delivered"), Lookup("  delivered  "))
}

func TestLookupUnknownCodeFallsBack(t *testing.T) {
	info := Lookup("awaiting_customs")

	assert.Equal(t, "Actualizare Comandă", info.Title)
	assert.Contains(t, info.Message, "awaiting_customs")
	assert.NotEmpty(t, info.Emoji)
}

func TestLookupNeverReturnsEmpty(t *testing.T) {
	for _, code := range []string{"", "???", "DELIVERED", "x y z"} {
		info := Lookup(code)
		assert.NotEmpty(t, info.Title, "code %q", code)
		assert.NotEmpty(t, info.Message, "code %q", code)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("delivered"))
	assert.True(t, Known("Out For Delivery"))
	assert.False(t, Known("awaiting_customs"))
	assert.False(t, Known(""))
}
