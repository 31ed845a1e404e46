package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Invoices (Taj Utilities backend records)
// ============================================================

// ChargeType identifies the billing line a charge belongs to.
type ChargeType string

const (
	ChargeRent        ChargeType = "RENT"
	ChargeElectricity ChargeType = "ELECTRICITY"
	ChargeCAM         ChargeType = "CAM"

	// ChargeAll selects every charge on the invoice (general / open invoices).
	ChargeAll ChargeType = ""
)

// ParseChargeType normalizes a charge-type filter from a query string or CLI flag.
// Empty, "all" and "general" select every charge.
func ParseChargeType(s string) ChargeType {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "", "ALL", "GENERAL":
		return ChargeAll
	}
	return ChargeType(v)
}

// String returns the filter label used in logs and metrics.
func (c ChargeType) String() string {
	if c == ChargeAll {
		return "ALL"
	}
	return string(c)
}

// PaymentStatus is derived by the backend from payments applied to the invoice.
type PaymentStatus string

const (
	PaymentUnpaid      PaymentStatus = "unpaid"
	PaymentPartialPaid PaymentStatus = "partial_paid"
	PaymentPaid        PaymentStatus = "paid"
)

// Charge is one line item of an invoice.
// Amount is the current period charge; Arrears is the carried-forward unpaid
// balance attributed to this charge type and may be absent.
type Charge struct {
	Type        ChargeType          `json:"type"`
	Amount      decimal.Decimal     `json:"amount"`
	Arrears     decimal.NullDecimal `json:"arrears"`
	Description string              `json:"description,omitempty"`
}

// Invoice is the invoice snapshot supplied by the backend.
type Invoice struct {
	ID            string              `json:"_id"`
	InvoiceNumber string              `json:"invoiceNumber,omitempty"`
	InvoiceDate   *time.Time          `json:"invoiceDate,omitempty"`
	CreatedAt     *time.Time          `json:"createdAt,omitempty"`
	PeriodFrom    *time.Time          `json:"periodFrom,omitempty"`
	PeriodTo      *time.Time          `json:"periodTo,omitempty"`
	DueDate       *time.Time          `json:"dueDate,omitempty"`
	ChargeTypes   []ChargeType        `json:"chargeTypes,omitempty"`
	Charges       []Charge            `json:"charges"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	TotalArrears  decimal.Decimal     `json:"totalArrears"`
	GrandTotal    decimal.Decimal     `json:"grandTotal"`
	TotalPaid     decimal.Decimal     `json:"totalPaid"`
	Balance       decimal.NullDecimal `json:"balance"`
	PaymentStatus PaymentStatus       `json:"paymentStatus,omitempty"`
	Status        string              `json:"status,omitempty"`

	Property        *Property        `json:"property,omitempty"`
	CalculationData *CalculationData `json:"calculationData,omitempty"`
}

// ChargesOf returns the charges matching the filter, in invoice order.
func (inv *Invoice) ChargesOf(filter ChargeType) []Charge {
	if filter == ChargeAll {
		return inv.Charges
	}
	out := make([]Charge, 0, 1)
	for _, c := range inv.Charges {
		if c.Type == filter {
			out = append(out, c)
		}
	}
	return out
}

// HasChargeType reports whether the invoice bills the given charge type, either
// through its chargeTypes list or a charge line.
func (inv *Invoice) HasChargeType(t ChargeType) bool {
	if t == ChargeAll {
		return true
	}
	for _, ct := range inv.ChargeTypes {
		if ct == t {
			return true
		}
	}
	for _, c := range inv.Charges {
		if c.Type == t {
			return true
		}
	}
	return false
}

// CalculationData carries the electricity meter readings and tariff breakdown
// the backend stored when the bill was computed.
type CalculationData struct {
	MeterNo         FlexString       `json:"meterNo,omitempty"`
	PreviousReading decimal.Decimal  `json:"previousReading"`
	CurrentReading  decimal.Decimal  `json:"currentReading"`
	UnitsConsumed   decimal.Decimal  `json:"unitsConsumed"`
	Slab            *TariffSlab      `json:"slab,omitempty"`
	Charges         *TariffBreakdown `json:"charges,omitempty"`
}

// TariffSlab is the IESCO slab applied to the consumed units.
type TariffSlab struct {
	UnitsSlab string          `json:"unitsSlab,omitempty"`
	UnitRate  decimal.Decimal `json:"unitRate"`
	FixRate   decimal.Decimal `json:"fixRate"`
}

// TariffBreakdown splits an electricity charge into its components.
type TariffBreakdown struct {
	ElectricityCost decimal.Decimal `json:"electricityCost"`
	FCSurcharge     decimal.Decimal `json:"fcSurcharge"`
	GST             decimal.Decimal `json:"gst"`
	ElectricityDuty decimal.Decimal `json:"electricityDuty"`
	FixedCharges    decimal.Decimal `json:"fixedCharges"`
}

// FlexString accepts either a JSON string or a JSON number.
// Backend records store serial numbers, meter numbers and areas as either.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(str))
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return err
	}
	*f = FlexString(s)
	return nil
}

func (f FlexString) String() string { return string(f) }
