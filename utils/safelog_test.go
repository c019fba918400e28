package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func withProduction(t *testing.T, on bool) {
	t.Helper()
	prev := IsProduction
	IsProduction = on
	t.Cleanup(func() { IsProduction = prev })
}

func TestMaskString_Production(t *testing.T) {
	withProduction(t, true)

	in := "user ana@example.com phone +5511987654321 paid R$ 1500.00 ticket 6f1c2d3e-1111-2222-3333-444455556666"
	out := MaskString(in)

	assert.NotContains(t, out, "ana@example.com")
	assert.NotContains(t, out, "+5511987654321")
	assert.NotContains(t, out, "1500.00")
	assert.NotContains(t, out, "444455556666")
	assert.Contains(t, out, "6f1c2d3e...")
}

func TestMaskString_Development(t *testing.T) {
	withProduction(t, false)

	in := "user ana@example.com phone +5511987654321"
	assert.Equal(t, in, MaskString(in))
	assert.Equal(t, "12.50", MaskAmount(decimal.RequireFromString("12.5")))
}

func TestMaskHelpers(t *testing.T) {
	withProduction(t, true)

	assert.Equal(t, "+55*********21", MaskPhone("+5511987654321"))
	assert.Equal(t, "***", MaskPhone("+55"))
	assert.Equal(t, "***@***.***", MaskEmail("ana@example.com"))
	assert.Equal(t, "***", MaskAmount(decimal.NewFromInt(10)))
	assert.Equal(t, "***", MaskID("short"))
}
