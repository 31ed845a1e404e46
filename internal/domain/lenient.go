package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Lenient decoding of backend records
// ============================================================
//
// Backend documents are loosely typed: amounts arrive as numbers, numeric
// strings, empty strings or null, and dates as full timestamps or bare days.
// Amounts that do not parse decode as 0. Dates that do not parse decode as
// absent.

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// rawScalar returns the JSON value as text, unquoting strings. ok is false for
// null.
func rawScalar(b []byte) (s string, ok bool) {
	s = strings.TrimSpace(string(b))
	if s == "null" {
		return "", false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return "", true
		}
		s = str
	}
	return strings.TrimSpace(s), true
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDate reads a backend date. Bare days are midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type lenientAmount struct{ decimal.Decimal }

func (a *lenientAmount) UnmarshalJSON(b []byte) error {
	s, _ := rawScalar(b)
	a.Decimal = parseAmount(s)
	return nil
}

// lenientOptionalAmount keeps null and absent apart from a present value.
// A present value that does not parse counts as 0.
type lenientOptionalAmount struct{ decimal.NullDecimal }

func (a *lenientOptionalAmount) UnmarshalJSON(b []byte) error {
	s, ok := rawScalar(b)
	if !ok {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	a.NullDecimal = decimal.NewNullDecimal(parseAmount(s))
	return nil
}

type lenientDate struct{ t *time.Time }

func (d *lenientDate) UnmarshalJSON(b []byte) error {
	d.t = nil
	s, ok := rawScalar(b)
	if !ok {
		return nil
	}
	if t, ok := ParseDate(s); ok {
		d.t = &t
	}
	return nil
}

// UnmarshalJSON decodes a charge line, coercing the amounts.
func (c *Charge) UnmarshalJSON(b []byte) error {
	type plain Charge
	aux := struct {
		*plain
		Amount  lenientAmount         `json:"amount"`
		Arrears lenientOptionalAmount `json:"arrears"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Amount = aux.Amount.Decimal
	c.Arrears = aux.Arrears.NullDecimal
	return nil
}

// UnmarshalJSON decodes a backend invoice, coercing amounts and dates.
func (inv *Invoice) UnmarshalJSON(b []byte) error {
	type plain Invoice
	aux := struct {
		*plain
		InvoiceDate  lenientDate           `json:"invoiceDate"`
		CreatedAt    lenientDate           `json:"createdAt"`
		PeriodFrom   lenientDate           `json:"periodFrom"`
		PeriodTo     lenientDate           `json:"periodTo"`
		DueDate      lenientDate           `json:"dueDate"`
		Subtotal     lenientAmount         `json:"subtotal"`
		TotalArrears lenientAmount         `json:"totalArrears"`
		GrandTotal   lenientAmount         `json:"grandTotal"`
		TotalPaid    lenientAmount         `json:"totalPaid"`
		Balance      lenientOptionalAmount `json:"balance"`
	}{plain: (*plain)(inv)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	inv.InvoiceDate = aux.InvoiceDate.t
	inv.CreatedAt = aux.CreatedAt.t
	inv.PeriodFrom = aux.PeriodFrom.t
	inv.PeriodTo = aux.PeriodTo.t
	inv.DueDate = aux.DueDate.t
	inv.Subtotal = aux.Subtotal.Decimal
	inv.TotalArrears = aux.TotalArrears.Decimal
	inv.GrandTotal = aux.GrandTotal.Decimal
	inv.TotalPaid = aux.TotalPaid.Decimal
	inv.Balance = aux.Balance.NullDecimal
	return nil
}

// UnmarshalJSON decodes meter readings, coercing the numbers.
func (cd *CalculationData) UnmarshalJSON(b []byte) error {
	type plain CalculationData
	aux := struct {
		*plain
		PreviousReading lenientAmount `json:"previousReading"`
		CurrentReading  lenientAmount `json:"currentReading"`
		UnitsConsumed   lenientAmount `json:"unitsConsumed"`
	}{plain: (*plain)(cd)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	cd.PreviousReading = aux.PreviousReading.Decimal
	cd.CurrentReading = aux.CurrentReading.Decimal
	cd.UnitsConsumed = aux.UnitsConsumed.Decimal
	return nil
}

func (s *TariffSlab) UnmarshalJSON(b []byte) error {
	type plain TariffSlab
	aux := struct {
		*plain
		UnitRate lenientAmount `json:"unitRate"`
		FixRate  lenientAmount `json:"fixRate"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.UnitRate = aux.UnitRate.Decimal
	s.FixRate = aux.FixRate.Decimal
	return nil
}

func (tb *TariffBreakdown) UnmarshalJSON(b []byte) error {
	type plain TariffBreakdown
	aux := struct {
		*plain
		ElectricityCost lenientAmount `json:"electricityCost"`
		FCSurcharge     lenientAmount `json:"fcSurcharge"`
		GST             lenientAmount `json:"gst"`
		ElectricityDuty lenientAmount `json:"electricityDuty"`
		FixedCharges    lenientAmount `json:"fixedCharges"`
	}{plain: (*plain)(tb)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	tb.ElectricityCost = aux.ElectricityCost.Decimal
	tb.FCSurcharge = aux.FCSurcharge.Decimal
	tb.GST = aux.GST.Decimal
	tb.ElectricityDuty = aux.ElectricityDuty.Decimal
	tb.FixedCharges = aux.FixedCharges.Decimal
	return nil
}
