package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Derived billing amounts
// ============================================================

// Figures are the monetary values printed on an invoice document.
// Signs are preserved: a negative RemainingBalance is a credit.
type Figures struct {
	ChargeType           ChargeType      `json:"chargeType"`
	ChargesForMonth      decimal.Decimal `json:"chargesForMonth"`
	Arrears              decimal.Decimal `json:"arrears"`
	PayableWithinDueDate decimal.Decimal `json:"payableWithinDueDate"`
	LatePaymentSurcharge decimal.Decimal `json:"latePaymentSurcharge"`
	PayableAfterDueDate  decimal.Decimal `json:"payableAfterDueDate"`
	PayableAmount        decimal.Decimal `json:"payableAmount"`
	Paid                 decimal.Decimal `json:"paid"`
	RemainingBalance     decimal.Decimal `json:"remainingBalance"`
	IsOverdue            bool            `json:"isOverdue"`
	IsUnpaid             bool            `json:"isUnpaid"`

	// GrandTotalDrift is grandTotal - (chargesForMonth + arrears) when the
	// backend total disagrees with the charge breakdown. Only set for ChargeAll.
	GrandTotalDrift decimal.NullDecimal `json:"grandTotalDrift,omitempty"`

	AsOf time.Time `json:"asOf"`
}

// CalculateRequest is the body for POST /v1/invoices/calculate.
type CalculateRequest struct {
	Invoice    *Invoice `json:"invoice"`
	ChargeType string   `json:"chargeType"`
}

// CarryForward is returned by GET /v1/properties/{propertyId}/carry-forward.
type CarryForward struct {
	PropertyID     string          `json:"propertyId"`
	ChargeType     ChargeType      `json:"chargeType"`
	Arrears        decimal.Decimal `json:"arrears"`
	SourceInvoice  string          `json:"sourceInvoice,omitempty"`
	InvoicesLooked int             `json:"invoicesLooked"`
}

// InvoiceNumberRequest is the body for POST /v1/invoice-numbers.
type InvoiceNumberRequest struct {
	SrNo   int    `json:"srNo"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Type   string `json:"type"`
	Suffix string `json:"suffix,omitempty"`
}

// InvoiceNumberResponse wraps a generated invoice number.
type InvoiceNumberResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
}
