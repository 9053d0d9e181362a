package billing

import (
	"math"

	"tailorpos-backend/internal/domain"
)

// PaymentSummary is the derived financial state of an order. AmountDueCents
// is never clamped: a negative value is a credit balance owed back to the
// customer.
type PaymentSummary struct {
	TotalPaidCents     int64
	TotalRefundedCents int64
	NetPaidCents       int64
	AmountDueCents     int64
	Percentage         float64
	Status             domain.BalanceStatus
}

// LineTotal returns the billable amount of a single service line.
// The stored line total wins when present; otherwise it is derived from
// quantity and unit price, rounded to the nearest cent.
func LineTotal(line domain.ServiceLine) int64 {
	if line.LineTotalCents != nil {
		return *line.LineTotalCents
	}
	return int64(math.Round(line.Quantity * float64(line.UnitPriceCents)))
}

// ActiveTotal computes the currently-billable order total: the sum of all
// non-removed service lines, minus discount, plus tax. The result may be
// negative when the discount exceeds the subtotal; callers treat negative
// totals as zero for amount-owed purposes but keep the raw value for display.
func ActiveTotal(lines []domain.ServiceLine, discountCents, taxCents int64) int64 {
	var subtotal int64
	for _, line := range lines {
		if line.IsRemoved {
			continue
		}
		subtotal += LineTotal(line)
	}
	return subtotal - discountCents + taxCents
}

// Subtotal sums active line totals before discount and tax.
func Subtotal(lines []domain.ServiceLine) int64 {
	var sum int64
	for _, line := range lines {
		if line.IsRemoved {
			continue
		}
		sum += LineTotal(line)
	}
	return sum
}

// contributes reports whether a payment record counts toward the balance.
// Pending, failed and cancelled records are absent from the sums entirely.
func contributes(status domain.PaymentRecordStatus) bool {
	switch status {
	case domain.PaymentCompleted, domain.PaymentPartiallyRefunded, domain.PaymentRefunded:
		return true
	}
	return false
}

// Summary computes the canonical payment summary for an order. It is pure
// and never fails: malformed records are normalized rather than rejected
// (a refund larger than its payment is clamped to the payment amount).
func Summary(activeTotalCents int64, payments []domain.Payment) PaymentSummary {
	var paid, refunded int64
	for _, p := range payments {
		if !contributes(p.Status) {
			continue
		}
		paid += p.Amount.Amount
		r := p.RefundedCents
		if r < 0 {
			r = 0
		}
		if r > p.Amount.Amount {
			r = p.Amount.Amount
		}
		refunded += r
	}

	netPaid := paid - refunded
	amountDue := activeTotalCents - netPaid

	s := PaymentSummary{
		TotalPaidCents:     paid,
		TotalRefundedCents: refunded,
		NetPaidCents:       netPaid,
		AmountDueCents:     amountDue,
		Percentage:         percentage(activeTotalCents, netPaid),
	}

	switch {
	case amountDue < 0:
		s.Status = domain.BalanceOverpaid
	case activeTotalCents == 0 && netPaid == 0:
		// Zero-charge orders read as unpaid; presentation may relabel.
		s.Status = domain.BalanceUnpaid
	case amountDue <= 0:
		s.Status = domain.BalancePaid
	case netPaid > 0:
		s.Status = domain.BalancePartial
	default:
		s.Status = domain.BalanceUnpaid
	}
	return s
}

func percentage(totalCents, netPaidCents int64) float64 {
	if totalCents <= 0 {
		if netPaidCents <= 0 {
			return 0
		}
		return 100
	}
	pct := float64(netPaidCents) / float64(totalCents) * 100
	if pct < 0 {
		return 0
	}
	return pct
}
