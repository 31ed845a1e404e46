// Package billing derives the amounts printed on utility, rent and CAM invoices.
//
// Every document generator goes through Calculator.Compute, parameterized only
// by the charge-type filter, so surcharge and balance always agree with the
// charge/arrears breakdown shown next to them.
package billing

import (
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultSurchargeRate is the late payment surcharge applied to the current
// period charge.
var DefaultSurchargeRate = decimal.NewFromFloat(0.10)

// Options tunes the calculator. The zero value is the standard policy: 10%
// surcharge, no grace period, local calendar dates. An unset SurchargeRate
// means the default; a set zero disables the surcharge.
type Options struct {
	SurchargeRate decimal.NullDecimal
	GraceDays     int
	Location      *time.Location
}

// Calculator computes invoice figures. It holds no mutable state and is safe
// for concurrent use.
type Calculator struct {
	rate  decimal.Decimal
	grace int
	loc   *time.Location
}

// NewCalculator creates a calculator with the given options.
func NewCalculator(opts Options) *Calculator {
	c := &Calculator{
		rate:  DefaultSurchargeRate,
		grace: opts.GraceDays,
		loc:   opts.Location,
	}
	if opts.SurchargeRate.Valid {
		c.rate = opts.SurchargeRate.Decimal
	}
	if c.grace < 0 {
		c.grace = 0
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	return c
}

// Compute derives the figures for the charges selected by filter, as of the
// given instant. A nil invoice yields all-zero figures.
func (c *Calculator) Compute(inv *domain.Invoice, filter domain.ChargeType, asOf time.Time) domain.Figures {
	f := domain.Figures{ChargeType: filter, AsOf: asOf}
	if inv == nil {
		return f
	}

	selected := inv.ChargesOf(filter)

	chargesForMonth := decimal.Zero
	arrears := decimal.Zero
	hasArrearsField := false
	for _, ch := range selected {
		chargesForMonth = chargesForMonth.Add(ch.Amount)
		if ch.Arrears.Valid {
			hasArrearsField = true
			arrears = arrears.Add(ch.Arrears.Decimal)
		}
	}
	if !hasArrearsField {
		arrears = inv.TotalArrears
	}

	paid := inv.TotalPaid
	surcharge := c.Surcharge(chargesForMonth)

	f.ChargesForMonth = chargesForMonth
	f.Arrears = arrears
	f.Paid = paid
	f.LatePaymentSurcharge = surcharge
	f.PayableWithinDueDate = chargesForMonth.Add(arrears).Sub(paid)
	f.PayableAfterDueDate = chargesForMonth.Add(arrears).Add(surcharge).Sub(paid)
	f.PayableAmount = f.PayableWithinDueDate

	f.IsOverdue = c.IsOverdue(inv.DueDate, asOf)
	f.IsUnpaid = IsUnpaid(inv)

	if f.IsOverdue && f.IsUnpaid {
		f.RemainingBalance = f.PayableAfterDueDate
	} else {
		f.RemainingBalance = f.PayableWithinDueDate
	}

	if filter == domain.ChargeAll && !inv.GrandTotal.IsZero() {
		if drift := inv.GrandTotal.Sub(chargesForMonth.Add(arrears)); !drift.IsZero() {
			f.GrandTotalDrift = decimal.NewNullDecimal(drift)
		}
	}

	return f
}

// Surcharge returns round(base * rate), floored at zero.
func (c *Calculator) Surcharge(base decimal.Decimal) decimal.Decimal {
	s := base.Mul(c.rate).Round(0)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// IsOverdue reports whether the calendar day of asOf is after the due date's
// calendar day (plus grace days). A nil due date is never overdue.
func (c *Calculator) IsOverdue(due *time.Time, asOf time.Time) bool {
	if due == nil || due.IsZero() {
		return false
	}
	today := calendarDay(asOf, c.loc)
	deadline := calendarDay(*due, c.loc).AddDate(0, 0, c.grace)
	return today.After(deadline)
}

// Location returns the zone calendar days are compared in.
func (c *Calculator) Location() *time.Location { return c.loc }

// Rate returns the configured surcharge rate.
func (c *Calculator) Rate() decimal.Decimal { return c.rate }

// IsUnpaid reports whether the invoice is still owed: status unpaid or
// partial_paid, or a positive backend balance.
func IsUnpaid(inv *domain.Invoice) bool {
	switch inv.PaymentStatus {
	case domain.PaymentUnpaid, domain.PaymentPartialPaid:
		return true
	}
	return inv.Balance.Valid && inv.Balance.Decimal.IsPositive()
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

var std = NewCalculator(Options{})

// Compute runs the standard calculator.
func Compute(inv *domain.Invoice, filter domain.ChargeType, asOf time.Time) domain.Figures {
	return std.Compute(inv, filter, asOf)
}
