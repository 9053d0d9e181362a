package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpos-backend/internal/domain"
)

// --- Mocks ---

type mockMutator struct {
	mu      sync.Mutex
	calls   []Action
	result  MutationResult
	err     error
	started chan struct{} // receives one signal per Mutate call when set
	release chan struct{} // when set, Mutate blocks until closed
}

func (m *mockMutator) Mutate(ctx context.Context, a Action) (MutationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, a)
	started, release := m.started, m.release
	m.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return m.result, m.err
}

func (m *mockMutator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *mockNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *mockNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

type mockBalanceChecker struct {
	check BalanceCheck
	err   error
	calls int
}

func (b *mockBalanceChecker) Check(ctx context.Context, garmentID int64) (BalanceCheck, error) {
	b.calls++
	return b.check, b.err
}

func setupCoordinator(t *testing.T) (*Coordinator, *mockMutator, *mockNotifier) {
	t.Helper()
	mutator := &mockMutator{result: MutationResult{Success: true}}
	notifier := &mockNotifier{}
	c := NewCoordinator(baseView(), mutator, notifier, nil)
	return c, mutator, notifier
}

// --- Tests ---

func TestDispatch_CommitKeepsOptimisticState(t *testing.T) {
	c, mutator, notifier := setupCoordinator(t)
	mutator.result = MutationResult{Success: true, ServiceID: 42}

	err := c.Dispatch(context.Background(), AddService{
		TempID: -1,
		Line:   domain.ServiceLine{Name: "Replace zipper", Quantity: 1, UnitPriceCents: 3500},
	})
	require.NoError(t, err)

	v := c.View()
	require.Len(t, v.Services, 3)
	// temp id reconciled to the server id, prediction otherwise kept
	assert.Equal(t, int64(42), v.Services[2].ID)
	assert.Equal(t, "Replace zipper", v.Services[2].Name)
	assert.Equal(t, []string{"service added"}, notifier.successes)
}

func TestDispatch_FailureRollsBackExactly(t *testing.T) {
	// A rejected mutation must restore the exact pre-dispatch snapshot.
	c, mutator, notifier := setupCoordinator(t)
	before := c.View()
	mutator.result = MutationResult{Success: false, Error: "X"}

	err := c.Dispatch(context.Background(), RemoveService{ServiceID: 1})
	require.ErrorIs(t, err, ErrMutationFailed)

	assert.Equal(t, before, c.View())
	assert.Equal(t, []string{"X"}, notifier.errors)
}

func TestDispatch_ThrownErrorEqualsFailure(t *testing.T) {
	c, mutator, notifier := setupCoordinator(t)
	before := c.View()
	mutator.result = MutationResult{}
	mutator.err = errors.New("connection reset")

	err := c.Dispatch(context.Background(), ToggleServiceDone{ServiceID: 1, Done: true})
	require.ErrorIs(t, err, ErrMutationFailed)
	assert.Equal(t, before, c.View())
	assert.Equal(t, []string{"connection reset"}, notifier.errors)
}

func TestDispatch_PreconditionFailureSkipsNetwork(t *testing.T) {
	// Pickup from In Progress fails without a call.
	c, mutator, _ := setupCoordinator(t)
	before := c.View()

	err := c.Dispatch(context.Background(), MarkPickedUp{})
	assert.ErrorIs(t, err, ErrNotReadyForPickup)
	assert.Equal(t, before, c.View())
	assert.Zero(t, mutator.callCount())
}

func TestDispatch_RemoveDoneLineSkipsNetwork(t *testing.T) {
	c, mutator, _ := setupCoordinator(t)
	require.NoError(t, c.Dispatch(context.Background(), ToggleServiceDone{ServiceID: 1, Done: true}))
	calls := mutator.callCount()

	err := c.Dispatch(context.Background(), RemoveService{ServiceID: 1})
	assert.ErrorIs(t, err, ErrLineDone)
	assert.Equal(t, calls, mutator.callCount())
}

func TestDispatch_SameEntityMutationRejectedWhileInFlight(t *testing.T) {
	c, mutator, _ := setupCoordinator(t)
	mutator.started = make(chan struct{}, 2)
	mutator.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Dispatch(context.Background(), ToggleServiceDone{ServiceID: 1, Done: true})
	}()

	// Wait until the first mutation reaches the collaborator.
	<-mutator.started

	err := c.Dispatch(context.Background(), RemoveService{ServiceID: 1})
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(mutator.release)
	require.NoError(t, <-done)
}

func TestDispatch_IndependentEntitiesProceed(t *testing.T) {
	c, mutator, _ := setupCoordinator(t)
	mutator.started = make(chan struct{}, 2)
	mutator.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.Dispatch(context.Background(), ToggleServiceDone{ServiceID: 1, Done: true})
	}()
	<-mutator.started

	// A different service is not blocked by the in-flight guard. Its call
	// blocks on the same release channel, so run it in the background too.
	done2 := make(chan error, 1)
	go func() {
		done2 <- c.Dispatch(context.Background(), ToggleServiceDone{ServiceID: 2, Done: true})
	}()
	<-mutator.started

	close(mutator.release)
	require.NoError(t, <-done)
	require.NoError(t, <-done2)
	assert.Equal(t, domain.StageReadyForPickup, c.View().Stage)
}

func TestDispatch_LateResultAfterCloseIsNoOp(t *testing.T) {
	c, mutator, notifier := setupCoordinator(t)
	mutator.started = make(chan struct{}, 1)
	mutator.release = make(chan struct{})
	mutator.result = MutationResult{Success: false, Error: "too late"}

	done := make(chan error, 1)
	go func() {
		done <- c.Dispatch(context.Background(), RemoveService{ServiceID: 2})
	}()
	<-mutator.started

	c.Close()
	close(mutator.release)
	require.NoError(t, <-done)

	// no rollback applied, no notification surfaced after teardown
	assert.Empty(t, notifier.errors)

	err := c.Dispatch(context.Background(), RestoreService{ServiceID: 2})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatch_PickupWithOutstandingBalance(t *testing.T) {
	mutator := &mockMutator{result: MutationResult{Success: true}}
	notifier := &mockNotifier{}
	checker := &mockBalanceChecker{check: BalanceCheck{
		LastGarment:      true,
		OrderTotalCents:  10000,
		PaidCents:        4000,
		OutstandingCents: 6000,
	}}

	v := baseView()
	v.Services[0].IsDone = true
	v.Services[1].IsDone = true
	v.Stage = domain.StageReadyForPickup
	c := NewCoordinator(v, mutator, notifier, checker)

	err := c.Dispatch(context.Background(), MarkPickedUp{})
	var due *BalanceDueError
	require.ErrorAs(t, err, &due)
	assert.ErrorIs(t, err, ErrOutstandingBalance)
	assert.Equal(t, int64(6000), due.BalanceCents)
	assert.Equal(t, int64(10000), due.OrderTotalCents)
	assert.Equal(t, int64(4000), due.PaidCents)
	// no optimistic transition, no mutation attempted
	assert.Equal(t, domain.StageReadyForPickup, c.View().Stage)
	assert.Zero(t, mutator.callCount())

	// Explicit proceed-without-payment confirmation goes through.
	require.NoError(t, c.Dispatch(context.Background(), MarkPickedUp{AcknowledgeBalance: true}))
	assert.Equal(t, domain.StageDone, c.View().Stage)
	assert.Equal(t, 1, checker.calls)
}

func TestDispatch_PickupWithSettledBalance(t *testing.T) {
	mutator := &mockMutator{result: MutationResult{Success: true}}
	checker := &mockBalanceChecker{check: BalanceCheck{LastGarment: true, OutstandingCents: 0}}

	v := baseView()
	v.Services[0].IsDone = true
	v.Services[1].IsDone = true
	v.Stage = domain.StageReadyForPickup
	c := NewCoordinator(v, mutator, &mockNotifier{}, checker)

	require.NoError(t, c.Dispatch(context.Background(), MarkPickedUp{}))
	assert.Equal(t, domain.StageDone, c.View().Stage)
	assert.Equal(t, 1, checker.calls)
}

func TestDispatch_PaymentReconciliation(t *testing.T) {
	c, mutator, _ := setupCoordinator(t)
	mutator.result = MutationResult{Success: true, PaymentID: 501, PaymentStatus: domain.PaymentCompleted}

	require.NoError(t, c.Dispatch(context.Background(), RecordPayment{TempID: -9, AmountCents: 6500, Method: "cash"}))

	// The prediction holds the payment as pending until the server confirms
	// it; reconciliation carries both the id and the confirmed status.
	v := c.View()
	require.Len(t, v.Payments, 1)
	assert.Equal(t, int64(501), v.Payments[0].ID)
	assert.Equal(t, domain.PaymentCompleted, v.Payments[0].Status)
	assert.Equal(t, domain.BalancePaid, v.Summary().Status)
}

func TestDispatch_PaymentPendingUntilReconciled(t *testing.T) {
	c, mutator, _ := setupCoordinator(t)
	mutator.started = make(chan struct{}, 1)
	mutator.release = make(chan struct{})
	mutator.result = MutationResult{Success: true, PaymentID: 502}

	done := make(chan error, 1)
	go func() {
		done <- c.Dispatch(context.Background(), RecordPayment{TempID: -9, AmountCents: 6500, Method: "cash"})
	}()
	<-mutator.started

	// While the call is in flight the optimistic view must not report the
	// order as paid off a payment the server still holds as pending.
	v := c.View()
	require.Len(t, v.Payments, 1)
	assert.Equal(t, domain.PaymentPending, v.Payments[0].Status)
	assert.Equal(t, domain.BalanceUnpaid, v.Summary().Status)

	close(mutator.release)
	require.NoError(t, <-done)
	assert.Equal(t, domain.PaymentPending, c.View().Payments[0].Status)
}
