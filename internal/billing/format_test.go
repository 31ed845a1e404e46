package billing_test

import (
	"testing"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1234", "1,234"},
		{"-1234", "(1,234)"},
		{"1234.5", "1,234.5"},
		{"1000000", "1,000,000"},
		{"1234.5678", "1,234.568"},
		{"2.000", "2"},
		{"-0.25", "(0.25)"},
		{"90071992547409.93", "90,071,992,547,409.93"},
		{"12345678901234567890.5", "12,345,678,901,234,567,890.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.FormatAmount(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestFormatArrears(t *testing.T) {
	assert.Equal(t, "-", billing.FormatArrears(decimal.Zero))
	assert.Equal(t, "2,500", billing.FormatArrears(decimal.NewFromInt(2500)))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "42.50", billing.FormatRate(decimal.RequireFromString("42.5")))
}
