package billing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	amountPrinter = message.NewPrinter(language.English)
	maxExactInt   = decimal.NewFromInt(math.MaxInt64)
)

// FormatAmount renders a magnitude with thousands separators and up to three
// fraction digits. Negative values are wrapped in parentheses: -1234 -> (1,234).
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(3)
	abs := d.Abs()
	whole := abs.Truncate(0)

	s := groupWhole(whole)
	if frac := abs.Sub(whole); !frac.IsZero() {
		// frac is 0.xyz with trailing zeros already dropped.
		s += strings.TrimPrefix(frac.String(), "0")
	}
	if d.IsNegative() {
		return "(" + s + ")"
	}
	return s
}

// groupWhole formats a non-negative integral decimal with thousands
// separators, exactly and without going through float64.
func groupWhole(whole decimal.Decimal) string {
	if whole.LessThan(maxExactInt) {
		return amountPrinter.Sprint(number.Decimal(whole.IntPart()))
	}
	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatArrears renders zero arrears as "-" the way rent and CAM documents
// print them.
func FormatArrears(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	return FormatAmount(d)
}

// FormatRate renders a tariff rate with exactly two decimals.
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(2)
}
