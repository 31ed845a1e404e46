package billing_test

import (
	"testing"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func newCalc() *billing.Calculator {
	return billing.NewCalculator(billing.Options{Location: time.UTC})
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func arrears(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(d(v)) }

func day(offset int) *time.Time {
	t := asOf.AddDate(0, 0, offset)
	return &t
}

func rentInvoice(amount, arr, paid int64, due *time.Time, status domain.PaymentStatus) *domain.Invoice {
	return &domain.Invoice{
		ID:            "inv-1",
		Charges:       []domain.Charge{{Type: domain.ChargeRent, Amount: d(amount), Arrears: arrears(arr)}},
		TotalPaid:     d(paid),
		DueDate:       due,
		PaymentStatus: status,
	}
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "%s: want %d, got %s", field, want, got)
}

func TestCompute_OverdueUnpaid(t *testing.T) {
	inv := rentInvoice(10000, 0, 0, day(-1), domain.PaymentUnpaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assertDecimal(t, 10000, f.ChargesForMonth, "chargesForMonth")
	assertDecimal(t, 1000, f.LatePaymentSurcharge, "surcharge")
	assertDecimal(t, 10000, f.PayableWithinDueDate, "payableWithinDueDate")
	assertDecimal(t, 11000, f.PayableAfterDueDate, "payableAfterDueDate")
	assertDecimal(t, 10000, f.PayableAmount, "payableAmount")
	assertDecimal(t, 11000, f.RemainingBalance, "remainingBalance")
	assert.True(t, f.IsOverdue)
	assert.True(t, f.IsUnpaid)
}

func TestCompute_OverduePaid(t *testing.T) {
	inv := rentInvoice(10000, 0, 10000, day(-1), domain.PaymentPaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assert.True(t, f.IsOverdue)
	assert.False(t, f.IsUnpaid)
	assertDecimal(t, 0, f.PayableWithinDueDate, "payableWithinDueDate")
	assertDecimal(t, 0, f.RemainingBalance, "remainingBalance")
}

func TestCompute_NotYetDue(t *testing.T) {
	inv := rentInvoice(5000, 2000, 0, day(1), domain.PaymentUnpaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assertDecimal(t, 7000, f.PayableWithinDueDate, "payableWithinDueDate")
	assertDecimal(t, 500, f.LatePaymentSurcharge, "surcharge")
	assertDecimal(t, 7500, f.PayableAfterDueDate, "payableAfterDueDate")
	assertDecimal(t, 7000, f.RemainingBalance, "remainingBalance")
	assert.False(t, f.IsOverdue)
}

func TestCompute_DueTodayIsNotOverdue(t *testing.T) {
	due := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	inv := rentInvoice(5000, 0, 0, &due, domain.PaymentUnpaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assert.False(t, f.IsOverdue)
	assertDecimal(t, 5000, f.RemainingBalance, "remainingBalance")
}

func TestCompute_NoDueDate(t *testing.T) {
	for _, status := range []domain.PaymentStatus{domain.PaymentUnpaid, domain.PaymentPartialPaid, domain.PaymentPaid, ""} {
		inv := rentInvoice(8000, 1500, 300, nil, status)

		f := newCalc().Compute(inv, domain.ChargeRent, asOf)

		assert.False(t, f.IsOverdue, "status %q", status)
		assert.True(t, f.RemainingBalance.Equal(f.PayableWithinDueDate), "status %q", status)
	}
}

func TestCompute_ZeroInvoice(t *testing.T) {
	f := newCalc().Compute(&domain.Invoice{}, domain.ChargeAll, asOf)

	for name, v := range map[string]decimal.Decimal{
		"chargesForMonth":      f.ChargesForMonth,
		"arrears":              f.Arrears,
		"payableWithinDueDate": f.PayableWithinDueDate,
		"latePaymentSurcharge": f.LatePaymentSurcharge,
		"payableAfterDueDate":  f.PayableAfterDueDate,
		"remainingBalance":     f.RemainingBalance,
	} {
		assert.Truef(t, v.IsZero(), "%s should be zero, got %s", name, v)
	}
}

func TestCompute_NilInvoice(t *testing.T) {
	f := newCalc().Compute(nil, domain.ChargeRent, asOf)
	assert.True(t, f.RemainingBalance.IsZero())
	assert.False(t, f.IsOverdue)
}

func TestCompute_OverpaymentIsPreserved(t *testing.T) {
	inv := rentInvoice(4000, 0, 6000, day(-10), domain.PaymentPaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assertDecimal(t, -2000, f.PayableWithinDueDate, "payableWithinDueDate")
	assertDecimal(t, -2000, f.RemainingBalance, "remainingBalance")
}

func TestCompute_SurchargeExcludesArrears(t *testing.T) {
	inv := rentInvoice(1000, 50000, 0, day(-3), domain.PaymentPartialPaid)

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)

	assertDecimal(t, 100, f.LatePaymentSurcharge, "surcharge")
	assertDecimal(t, 51100, f.RemainingBalance, "remainingBalance")
}

func TestCompute_SurchargeRounding(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"1234", 123},
		{"1235", 124}, // 123.5 rounds half up
		{"1244.9", 124},
		{"4", 0},
		{"5", 1},
		{"0", 0},
	}
	calc := newCalc()
	for _, tc := range cases {
		got := calc.Surcharge(decimal.RequireFromString(tc.amount))
		assertDecimal(t, tc.want, got, "surcharge of "+tc.amount)
	}
}

func TestCompute_SurchargeNeverNegative(t *testing.T) {
	got := newCalc().Surcharge(d(-5000))
	assert.True(t, got.IsZero())
}

func TestCompute_ArrearsFallbackToTotalArrears(t *testing.T) {
	inv := &domain.Invoice{
		Charges:      []domain.Charge{{Type: domain.ChargeCAM, Amount: d(3000)}},
		TotalArrears: d(1200),
	}

	f := newCalc().Compute(inv, domain.ChargeCAM, asOf)
	assertDecimal(t, 1200, f.Arrears, "arrears from totalArrears")

	f = newCalc().Compute(inv, domain.ChargeRent, asOf)
	assertDecimal(t, 0, f.ChargesForMonth, "no rent lines")
	assertDecimal(t, 1200, f.Arrears, "empty selection falls back")
}

func TestCompute_ExplicitZeroArrearsDoesNotFallBack(t *testing.T) {
	inv := &domain.Invoice{
		Charges:      []domain.Charge{{Type: domain.ChargeRent, Amount: d(3000), Arrears: arrears(0)}},
		TotalArrears: d(999),
	}

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)
	assertDecimal(t, 0, f.Arrears, "arrears")
}

func TestCompute_FilterSelectsChargeType(t *testing.T) {
	inv := &domain.Invoice{
		Charges: []domain.Charge{
			{Type: domain.ChargeRent, Amount: d(20000), Arrears: arrears(5000)},
			{Type: domain.ChargeCAM, Amount: d(3000), Arrears: arrears(0)},
			{Type: domain.ChargeElectricity, Amount: d(7000), Arrears: arrears(1000)},
		},
		GrandTotal: d(36000),
	}
	calc := newCalc()

	rent := calc.Compute(inv, domain.ChargeRent, asOf)
	assertDecimal(t, 20000, rent.ChargesForMonth, "rent charges")
	assertDecimal(t, 5000, rent.Arrears, "rent arrears")
	assert.False(t, rent.GrandTotalDrift.Valid, "drift only reported for all charges")

	all := calc.Compute(inv, domain.ChargeAll, asOf)
	assertDecimal(t, 30000, all.ChargesForMonth, "all charges")
	assertDecimal(t, 6000, all.Arrears, "all arrears")
	assertDecimal(t, 3000, all.LatePaymentSurcharge, "all surcharge")
	assert.False(t, all.GrandTotalDrift.Valid)
}

func TestCompute_GrandTotalIsNotTrusted(t *testing.T) {
	inv := &domain.Invoice{
		Charges:    []domain.Charge{{Type: domain.ChargeRent, Amount: d(10000), Arrears: arrears(0)}},
		GrandTotal: d(12500),
		TotalPaid:  d(1000),
	}

	f := newCalc().Compute(inv, domain.ChargeAll, asOf)

	assertDecimal(t, 9000, f.PayableWithinDueDate, "payable uses explicit sum")
	require.True(t, f.GrandTotalDrift.Valid)
	assertDecimal(t, 2500, f.GrandTotalDrift.Decimal, "drift")
}

func TestCompute_BalanceSignalsUnpaid(t *testing.T) {
	inv := rentInvoice(10000, 0, 0, day(-2), "")
	inv.Balance = decimal.NewNullDecimal(d(10000))

	f := newCalc().Compute(inv, domain.ChargeRent, asOf)
	assert.True(t, f.IsUnpaid)
	assertDecimal(t, 11000, f.RemainingBalance, "remainingBalance")

	inv.Balance = decimal.NewNullDecimal(d(0))
	f = newCalc().Compute(inv, domain.ChargeRent, asOf)
	assert.False(t, f.IsUnpaid)
	assertDecimal(t, 10000, f.RemainingBalance, "remainingBalance")
}

func TestCompute_GraceDays(t *testing.T) {
	calc := billing.NewCalculator(billing.Options{GraceDays: 4, Location: time.UTC})

	inv := rentInvoice(10000, 0, 0, day(-4), domain.PaymentUnpaid)
	assert.False(t, calc.Compute(inv, domain.ChargeRent, asOf).IsOverdue, "still inside grace period")

	inv.DueDate = day(-5)
	assert.True(t, calc.Compute(inv, domain.ChargeRent, asOf).IsOverdue)
}

func TestCompute_CalendarDayUsesLocation(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*60*60)
	calc := billing.NewCalculator(billing.Options{Location: karachi})

	// 2026-10-13 20:00 UTC is already 2026-10-14 01:00 in Karachi.
	due := time.Date(2026, 10, 13, 12, 0, 0, 0, karachi)
	now := time.Date(2026, 10, 13, 20, 0, 0, 0, time.UTC)

	assert.True(t, calc.IsOverdue(&due, now))
	assert.False(t, newCalc().IsOverdue(&due, now))
}

func TestCompute_CustomRate(t *testing.T) {
	calc := billing.NewCalculator(billing.Options{SurchargeRate: decimal.NewNullDecimal(decimal.RequireFromString("0.05")), Location: time.UTC})
	assertDecimal(t, 500, calc.Surcharge(d(10000)), "5% surcharge")
}

func TestCompute_ZeroRateDisablesSurcharge(t *testing.T) {
	calc := billing.NewCalculator(billing.Options{SurchargeRate: decimal.NewNullDecimal(decimal.Zero), Location: time.UTC})
	assert.True(t, calc.Rate().IsZero())
	assertDecimal(t, 0, calc.Surcharge(d(10000)), "zero rate")

	f := calc.Compute(rentInvoice(10000, 0, 0, day(-5), domain.PaymentUnpaid), domain.ChargeRent, asOf)
	assert.True(t, f.IsOverdue)
	assertDecimal(t, 0, f.LatePaymentSurcharge, "surcharge")
	assertDecimal(t, 10000, f.RemainingBalance, "remaining")
}

func TestNewCalculator_UnsetRateUsesDefault(t *testing.T) {
	calc := billing.NewCalculator(billing.Options{})
	assert.True(t, calc.Rate().Equal(billing.DefaultSurchargeRate))
}

func TestCompute_Identities(t *testing.T) {
	calc := newCalc()
	amounts := []int64{0, 1, 7, 995, 1234, 10000, 99999}
	arrearsList := []int64{0, 3, 2000, 45678}
	paidList := []int64{0, 500, 12000, 200000}
	dues := []*time.Time{nil, day(-30), day(-1), day(0), day(1)}
	statuses := []domain.PaymentStatus{domain.PaymentUnpaid, domain.PaymentPartialPaid, domain.PaymentPaid}

	for _, amt := range amounts {
		for _, arr := range arrearsList {
			for _, paid := range paidList {
				for _, due := range dues {
					for _, st := range statuses {
						inv := rentInvoice(amt, arr, paid, due, st)
						f := calc.Compute(inv, domain.ChargeRent, asOf)

						require.True(t, f.LatePaymentSurcharge.Equal(d(amt).Mul(decimal.RequireFromString("0.1")).Round(0)))
						require.False(t, f.LatePaymentSurcharge.IsNegative())
						require.True(t, f.PayableWithinDueDate.Add(f.Paid).Equal(f.ChargesForMonth.Add(f.Arrears)))
						require.True(t, f.PayableAfterDueDate.Equal(f.PayableWithinDueDate.Add(f.LatePaymentSurcharge)))
						require.True(t, f.PayableAmount.Equal(f.PayableWithinDueDate))
						if due == nil || due.After(asOf) {
							require.True(t, f.RemainingBalance.Equal(f.PayableWithinDueDate))
						}
					}
				}
			}
		}
	}
}

func TestCompute_SettlementRoundTrip(t *testing.T) {
	calc := newCalc()
	first := calc.Compute(rentInvoice(10000, 2500, 0, day(-1), domain.PaymentUnpaid), domain.ChargeRent, asOf)
	require.True(t, first.RemainingBalance.Equal(d(13500)))

	// Next cycle: nothing new billed, the outstanding balance is carried as
	// arrears and paid in full.
	next := &domain.Invoice{
		Charges:       []domain.Charge{{Type: domain.ChargeRent, Amount: decimal.Zero, Arrears: decimal.NewNullDecimal(first.RemainingBalance)}},
		TotalPaid:     first.RemainingBalance,
		DueDate:       day(-1),
		PaymentStatus: domain.PaymentPaid,
	}
	settled := calc.Compute(next, domain.ChargeRent, asOf)

	assert.True(t, settled.RemainingBalance.IsZero(), "got %s", settled.RemainingBalance)
}

func TestPackageCompute(t *testing.T) {
	inv := rentInvoice(100, 0, 0, nil, domain.PaymentUnpaid)
	f := billing.Compute(inv, domain.ChargeRent, time.Now())
	assertDecimal(t, 10, f.LatePaymentSurcharge, "surcharge")
}
