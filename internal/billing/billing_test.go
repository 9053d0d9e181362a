package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpos-backend/internal/domain"
)

func line(totalCents int64, removed bool) domain.ServiceLine {
	t := totalCents
	return domain.ServiceLine{Quantity: 1, LineTotalCents: &t, IsRemoved: removed}
}

func completed(amount, refunded int64) domain.Payment {
	return domain.Payment{
		Amount:        domain.Money{Amount: amount},
		RefundedCents: refunded,
		Status:        domain.PaymentCompleted,
	}
}

func TestActiveTotal_DerivedVsStored(t *testing.T) {
	stored := int64(4200)
	lines := []domain.ServiceLine{
		// stored line total wins over quantity x unit price
		{Quantity: 3, UnitPriceCents: 1000, LineTotalCents: &stored},
		// derived, rounded: 1.5h x $20.01 = 3001.5 -> 3002
		{Quantity: 1.5, UnitPriceCents: 2001, Unit: "hour"},
	}
	assert.Equal(t, int64(4200+3002), ActiveTotal(lines, 0, 0))
}

func TestActiveTotal_DiscountAndTax(t *testing.T) {
	lines := []domain.ServiceLine{line(5000, false), line(2500, false)}
	assert.Equal(t, int64(7500-1000+600), ActiveTotal(lines, 1000, 600))
}

func TestActiveTotal_RemovedLinesExcluded(t *testing.T) {
	// A removed line contributes zero regardless of its amounts.
	lines := []domain.ServiceLine{
		line(5000, false),
		line(999999, true),
		{Quantity: 100, UnitPriceCents: 100000, IsRemoved: true},
	}
	assert.Equal(t, int64(5000), ActiveTotal(lines, 0, 0))
	assert.Equal(t, int64(5000), Subtotal(lines))
}

func TestActiveTotal_NegativeOnLargeDiscount(t *testing.T) {
	lines := []domain.ServiceLine{line(1000, false)}
	assert.Equal(t, int64(-4000), ActiveTotal(lines, 5000, 0))
}

func TestActiveTotal_Deterministic(t *testing.T) {
	// Repeated calls over the same input agree.
	lines := []domain.ServiceLine{line(1250, false), line(3600, true), line(780, false)}
	first := ActiveTotal(lines, 200, 150)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ActiveTotal(lines, 200, 150))
	}
}

func TestSummary_PaidInFull(t *testing.T) {
	s := Summary(10000, []domain.Payment{completed(10000, 0)})
	assert.Equal(t, int64(10000), s.NetPaidCents)
	assert.Equal(t, int64(0), s.AmountDueCents)
	assert.Equal(t, domain.BalancePaid, s.Status)
	assert.InDelta(t, 100, s.Percentage, 1e-9)
}

func TestSummary_PartialAfterRefund(t *testing.T) {
	// A refund can drop a settled order back to partial.
	s := Summary(10000, []domain.Payment{completed(10000, 3000)})
	assert.Equal(t, int64(7000), s.NetPaidCents)
	assert.Equal(t, int64(3000), s.AmountDueCents)
	assert.Equal(t, domain.BalancePartial, s.Status)
	assert.InDelta(t, 70, s.Percentage, 1e-9)
}

func TestSummary_Overpaid(t *testing.T) {
	// Credit of $10.00 shown to the customer.
	s := Summary(5000, []domain.Payment{completed(6000, 0)})
	assert.Equal(t, int64(6000), s.NetPaidCents)
	assert.Equal(t, int64(-1000), s.AmountDueCents)
	assert.Equal(t, domain.BalanceOverpaid, s.Status)
	assert.Equal(t, int64(1000), -s.AmountDueCents)
}

func TestSummary_OverpaidSign(t *testing.T) {
	// netPaid > total always means overpaid with a strictly negative due.
	cases := []struct {
		total int64
		paid  int64
	}{
		{100, 101},
		{0, 1},
		{-500, 0},
		{9999, 20000},
	}
	for _, tc := range cases {
		s := Summary(tc.total, []domain.Payment{completed(tc.paid, 0)})
		if s.NetPaidCents > tc.total {
			assert.Equal(t, domain.BalanceOverpaid, s.Status, "total=%d paid=%d", tc.total, tc.paid)
			assert.Less(t, s.AmountDueCents, int64(0))
		}
	}
}

func TestSummary_NonContributingStatuses(t *testing.T) {
	// Pending/failed/cancelled never touch the balance.
	payments := []domain.Payment{
		{Amount: domain.Money{Amount: 99999}, Status: domain.PaymentPending},
		{Amount: domain.Money{Amount: 99999}, Status: domain.PaymentFailed},
		{Amount: domain.Money{Amount: 99999}, RefundedCents: 500, Status: domain.PaymentCancelled},
	}
	s := Summary(10000, payments)
	assert.Equal(t, int64(0), s.TotalPaidCents)
	assert.Equal(t, int64(0), s.TotalRefundedCents)
	assert.Equal(t, int64(10000), s.AmountDueCents)
	assert.Equal(t, domain.BalanceUnpaid, s.Status)
}

func TestSummary_FullyRefundedCountsAsUnpaid(t *testing.T) {
	s := Summary(10000, []domain.Payment{
		{Amount: domain.Money{Amount: 10000}, RefundedCents: 10000, Status: domain.PaymentRefunded},
	})
	assert.Equal(t, int64(10000), s.TotalPaidCents)
	assert.Equal(t, int64(10000), s.TotalRefundedCents)
	assert.Equal(t, int64(0), s.NetPaidCents)
	assert.Equal(t, domain.BalanceUnpaid, s.Status)
	assert.InDelta(t, 0, s.Percentage, 1e-9)
}

func TestSummary_RefundClampedToPayment(t *testing.T) {
	// A refund recorded above the payment amount must not explode
	// netPaid negative; it is clamped to the payment amount.
	s := Summary(10000, []domain.Payment{completed(5000, 8000)})
	assert.Equal(t, int64(5000), s.TotalRefundedCents)
	assert.Equal(t, int64(0), s.NetPaidCents)
	assert.Equal(t, domain.BalanceUnpaid, s.Status)

	neg := Summary(10000, []domain.Payment{completed(5000, -100)})
	assert.Equal(t, int64(0), neg.TotalRefundedCents)
	assert.Equal(t, int64(5000), neg.NetPaidCents)
}

func TestSummary_ZeroTotal(t *testing.T) {
	// No charges, no payments: unpaid by convention, 0%.
	s := Summary(0, nil)
	assert.Equal(t, domain.BalanceUnpaid, s.Status)
	assert.InDelta(t, 0, s.Percentage, 1e-9)

	// Any net payment against a zero bill is a credit.
	s = Summary(0, []domain.Payment{completed(500, 0)})
	assert.Equal(t, domain.BalanceOverpaid, s.Status)
	assert.InDelta(t, 100, s.Percentage, 1e-9)
}

func TestSummary_NegativeTotal(t *testing.T) {
	// Negative active total (discount larger than subtotal) must not divide
	// by zero or panic.
	s := Summary(-2000, nil)
	assert.Equal(t, int64(-2000), s.AmountDueCents)
	assert.Equal(t, domain.BalanceOverpaid, s.Status)
	assert.InDelta(t, 0, s.Percentage, 1e-9)
}

func TestSummary_EmptyPayments(t *testing.T) {
	s := Summary(10000, nil)
	assert.Equal(t, domain.BalanceUnpaid, s.Status)
	assert.Equal(t, int64(10000), s.AmountDueCents)
}

func TestSummary_MixedLedger(t *testing.T) {
	payments := []domain.Payment{
		completed(4000, 0),
		{Amount: domain.Money{Amount: 3000}, RefundedCents: 1000, Status: domain.PaymentPartiallyRefunded},
		{Amount: domain.Money{Amount: 2000}, Status: domain.PaymentPending},
		{Amount: domain.Money{Amount: 500}, Status: domain.PaymentFailed},
	}
	s := Summary(10000, payments)
	require.Equal(t, int64(7000), s.TotalPaidCents)
	require.Equal(t, int64(1000), s.TotalRefundedCents)
	assert.Equal(t, int64(6000), s.NetPaidCents)
	assert.Equal(t, int64(4000), s.AmountDueCents)
	assert.Equal(t, domain.BalancePartial, s.Status)
	assert.InDelta(t, 60, s.Percentage, 1e-9)
}

func TestSummary_Idempotent(t *testing.T) {
	// The whole summary is a pure function of its input.
	payments := []domain.Payment{completed(1234, 234), completed(5678, 0)}
	first := Summary(9999, payments)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Summary(9999, payments))
	}
}
