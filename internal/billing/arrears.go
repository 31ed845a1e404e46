package billing

import (
	"sort"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"

	"github.com/shopspring/decimal"
)

const statusCancelled = "Cancelled"

// CarryForwardResult is the arrears a new invoice inherits from the history of
// its property.
type CarryForwardResult struct {
	Arrears decimal.Decimal
	// Source is the id of the invoice the arrears were taken from, empty when
	// nothing is outstanding.
	Source string
}

// CarryForwardArrears computes the arrears to carry into a new invoice of the
// given charge type.
//
// Only the most recent outstanding invoice is used, since its balance already
// includes the arrears of the ones before it. Its overdue amount is the
// backend balance plus the late surcharge on its period charges, apportioned to
// the charge type by that type's share of the period charges.
func (c *Calculator) CarryForwardArrears(history []domain.Invoice, filter domain.ChargeType, asOf time.Time, excludeID string) CarryForwardResult {
	candidates := make([]*domain.Invoice, 0, len(history))
	for i := range history {
		inv := &history[i]
		if excludeID != "" && inv.ID == excludeID {
			continue
		}
		if inv.Status == statusCancelled {
			continue
		}
		if inv.PaymentStatus != domain.PaymentUnpaid && inv.PaymentStatus != domain.PaymentPartialPaid {
			continue
		}
		if !inv.Balance.Valid || !inv.Balance.Decimal.IsPositive() {
			continue
		}
		if !c.IsOverdue(inv.DueDate, asOf) {
			continue
		}
		if !inv.HasChargeType(filter) {
			continue
		}
		candidates = append(candidates, inv)
	}
	if len(candidates) == 0 {
		return CarryForwardResult{Arrears: decimal.Zero}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return dueUnix(candidates[i]) > dueUnix(candidates[j])
	})
	last := candidates[0]

	base := sumAmounts(last.Charges)
	if base.IsZero() {
		base = last.Subtotal
	}
	overdue := last.Balance.Decimal.Add(c.Surcharge(base))

	share := decimal.NewFromInt(1)
	if filter != domain.ChargeAll {
		if base.IsPositive() {
			share = sumAmounts(last.ChargesOf(filter)).Div(base)
		} else {
			share = decimal.Zero
		}
	}

	return CarryForwardResult{
		Arrears: overdue.Mul(share).Round(2),
		Source:  last.ID,
	}
}

func sumAmounts(charges []domain.Charge) decimal.Decimal {
	total := decimal.Zero
	for _, ch := range charges {
		total = total.Add(ch.Amount)
	}
	return total
}

func dueUnix(inv *domain.Invoice) int64 {
	if inv.DueDate == nil {
		return 0
	}
	return inv.DueDate.Unix()
}
