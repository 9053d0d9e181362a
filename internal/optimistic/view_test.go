package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpos-backend/internal/domain"
)

func baseView() View {
	return View{
		GarmentID: 7,
		OrderID:   3,
		Stage:     domain.StageNew,
		Services: []domain.ServiceLine{
			{ID: 1, GarmentID: 7, Name: "Hem trousers", Quantity: 1, UnitPriceCents: 2500},
			{ID: 2, GarmentID: 7, Name: "Take in waist", Quantity: 1, UnitPriceCents: 4000},
		},
	}
}

func TestApply_AddServiceUpdatesStage(t *testing.T) {
	v := baseView()
	v.Services[0].IsDone = true
	v.Services[1].IsDone = true
	v.Stage = domain.StageReadyForPickup

	next, err := apply(v, AddService{TempID: -1, Line: domain.ServiceLine{Name: "Press", Quantity: 1, UnitPriceCents: 500}})
	require.NoError(t, err)
	require.Len(t, next.Services, 3)
	assert.Equal(t, int64(-1), next.Services[2].ID)
	assert.Equal(t, int64(7), next.Services[2].GarmentID)
	assert.Equal(t, domain.StageInProgress, next.Stage)
	// input view untouched
	assert.Len(t, v.Services, 2)
}

func TestApply_RemoveDoneLineRejected(t *testing.T) {
	v := baseView()
	v.Services[0].IsDone = true
	_, err := apply(v, RemoveService{ServiceID: 1})
	assert.ErrorIs(t, err, ErrLineDone)

	_, err = apply(v, EditService{ServiceID: 1, Quantity: 2, UnitPriceCents: 2500})
	assert.ErrorIs(t, err, ErrLineDone)
}

func TestApply_RemoveRestoreRoundTrip(t *testing.T) {
	v := baseView()
	removed, err := apply(v, RemoveService{ServiceID: 2})
	require.NoError(t, err)
	assert.True(t, removed.Services[1].IsRemoved)
	assert.Equal(t, int64(2500), removed.ActiveTotal())

	restored, err := apply(removed, RestoreService{ServiceID: 2})
	require.NoError(t, err)
	assert.False(t, restored.Services[1].IsRemoved)
	assert.Nil(t, restored.Services[1].RemovedAt)
	assert.Equal(t, v.ActiveTotal(), restored.ActiveTotal())
}

func TestApply_ToggleDoneDrivesStage(t *testing.T) {
	v := baseView()
	one, err := apply(v, ToggleServiceDone{ServiceID: 1, Done: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, one.Stage)

	both, err := apply(one, ToggleServiceDone{ServiceID: 2, Done: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StageReadyForPickup, both.Stage)

	back, err := apply(both, ToggleServiceDone{ServiceID: 2, Done: false})
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, back.Stage)
}

func TestApply_ServiceEditNeverLeavesDone(t *testing.T) {
	v := baseView()
	v.Stage = domain.StageDone
	next, err := apply(v, ToggleServiceDone{ServiceID: 1, Done: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, next.Stage)
}

func TestApply_RecordPaymentDefaultsToPending(t *testing.T) {
	v := baseView()
	next, err := apply(v, RecordPayment{TempID: -5, AmountCents: 6500, Method: "cash"})
	require.NoError(t, err)
	require.Len(t, next.Payments, 1)
	// A payment with no explicit status is pending, same as the ledger,
	// so it must not count toward the balance yet.
	assert.Equal(t, domain.PaymentPending, next.Payments[0].Status)
	assert.Equal(t, int64(0), next.Summary().NetPaidCents)
	assert.Equal(t, domain.BalanceUnpaid, next.Summary().Status)
}

func TestApply_RecordPaymentAndRefund(t *testing.T) {
	v := baseView()
	paid, err := apply(v, RecordPayment{TempID: -5, AmountCents: 6500, Method: "card", Status: domain.PaymentCompleted})
	require.NoError(t, err)
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, domain.PaymentCompleted, paid.Payments[0].Status)
	assert.Equal(t, domain.BalancePaid, paid.Summary().Status)

	part, err := apply(paid, RecordRefund{PaymentID: -5, AmountCents: 1500, Note: "seam redo"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, part.Payments[0].Status)
	assert.Equal(t, int64(1500), part.Payments[0].RefundedCents)
	assert.Equal(t, domain.BalancePartial, part.Summary().Status)

	full, err := apply(part, RecordRefund{PaymentID: -5, AmountCents: 5000, Note: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, full.Payments[0].Status)

	_, err = apply(full, RecordRefund{PaymentID: -5, AmountCents: 1})
	assert.ErrorIs(t, err, ErrRefundNotApplicable)
}

func TestApply_RefundBounds(t *testing.T) {
	v := baseView()
	paid, _ := apply(v, RecordPayment{TempID: -5, AmountCents: 1000, Method: "cash", Status: domain.PaymentCompleted})

	_, err := apply(paid, RecordRefund{PaymentID: -5, AmountCents: 1001})
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)

	_, err = apply(paid, RecordRefund{PaymentID: -5, AmountCents: 0})
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)

	_, err = apply(paid, RecordRefund{PaymentID: 404, AmountCents: 1})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestApply_PickupPrecondition(t *testing.T) {
	v := baseView()
	v.Stage = domain.StageInProgress
	_, err := apply(v, MarkPickedUp{})
	assert.ErrorIs(t, err, ErrNotReadyForPickup)

	v.Services[0].IsDone = true
	v.Services[1].IsDone = true
	v.Stage = domain.StageReadyForPickup
	next, err := apply(v, MarkPickedUp{})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, next.Stage)
}

func TestApply_UnknownServiceID(t *testing.T) {
	v := baseView()
	for _, a := range []Action{
		RemoveService{ServiceID: 99},
		RestoreService{ServiceID: 99},
		EditService{ServiceID: 99},
		ToggleServiceDone{ServiceID: 99, Done: true},
	} {
		_, err := apply(v, a)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	}
}
