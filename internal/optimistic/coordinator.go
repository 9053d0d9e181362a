package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tailorpos-backend/internal/domain"
)

var (
	ErrClosed             = errors.New("coordinator closed")
	ErrMutationInFlight   = errors.New("another mutation on this entity is in flight")
	ErrMutationFailed     = errors.New("mutation failed")
	ErrBalanceCheck       = errors.New("balance check failed")
	ErrOutstandingBalance = errors.New("order has an outstanding balance")
)

// MutationResult is the collaborator's reply. Success false with Error set
// is treated exactly like a returned error: full rollback.
type MutationResult struct {
	Success       bool
	Error         string
	ServiceID     int64
	PaymentID     int64
	PaymentStatus domain.PaymentRecordStatus
}

// Mutator performs the server-side mutation for an action.
type Mutator interface {
	Mutate(ctx context.Context, a Action) (MutationResult, error)
}

// Notifier surfaces fire-and-forget user messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// BalanceCheck reports whether the garment is the last unfulfilled item on
// its order and what remains owed, with the amounts needed to render a
// confirmation prompt.
type BalanceCheck struct {
	LastGarment      bool
	OrderTotalCents  int64
	PaidCents        int64
	OutstandingCents int64
}

// BalanceChecker is consulted before the pickup mutation. Optional.
type BalanceChecker interface {
	Check(ctx context.Context, garmentID int64) (BalanceCheck, error)
}

// BalanceDueError defers pickup until the caller resolves the balance or
// re-dispatches with AcknowledgeBalance set.
type BalanceDueError struct {
	OrderTotalCents int64
	PaidCents       int64
	BalanceCents    int64
}

func (e *BalanceDueError) Error() string {
	return fmt.Sprintf("outstanding balance of %d cents on order", e.BalanceCents)
}

func (e *BalanceDueError) Unwrap() error { return ErrOutstandingBalance }

// Coordinator applies predicted mutations to the view immediately, invokes
// the persistence collaborator, and commits or rolls back on the result.
// Overlapping mutations on the same entity are rejected; a late result
// arriving after Close or after the entity's token changed is a no-op.
type Coordinator struct {
	mu       sync.Mutex
	view     View
	inflight map[string]uuid.UUID
	closed   bool

	mutator  Mutator
	notifier Notifier
	balance  BalanceChecker
}

func NewCoordinator(view View, mutator Mutator, notifier Notifier, balance BalanceChecker) *Coordinator {
	return &Coordinator{
		view:     view.clone(),
		inflight: make(map[string]uuid.UUID),
		mutator:  mutator,
		notifier: notifier,
		balance:  balance,
	}
}

// View returns a copy of the current (possibly optimistic) state.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Close marks the coordinator torn down; pending reconciliations and
// rollbacks become no-ops.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Dispatch runs one mutation: predict, apply optimistically, call the
// collaborator, then commit or roll back. Precondition failures return
// before any state change or network call.
func (c *Coordinator) Dispatch(ctx context.Context, a Action) error {
	if pickup, ok := a.(MarkPickedUp); ok {
		if err := c.checkPickup(ctx, pickup); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	key := a.entityKey()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return ErrMutationInFlight
	}
	snapshot := c.view.clone()
	next, err := apply(c.view, a)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	token := uuid.New()
	c.inflight[key] = token
	c.view = next
	c.mu.Unlock()

	res, callErr := c.mutator.Mutate(ctx, a)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.inflight[key] != token {
		return nil
	}
	delete(c.inflight, key)

	if callErr != nil || !res.Success {
		c.view = snapshot
		msg := res.Error
		if callErr != nil {
			msg = callErr.Error()
		}
		if c.notifier != nil {
			c.notifier.Error(msg)
		}
		return fmt.Errorf("%w: %s", ErrMutationFailed, msg)
	}

	c.view = reconcile(c.view, a, res)
	if c.notifier != nil {
		c.notifier.Success(a.message())
	}
	return nil
}

// checkPickup enforces the Ready For Pickup precondition and consults the
// optional balance collaborator before any optimistic transition.
func (c *Coordinator) checkPickup(ctx context.Context, a MarkPickedUp) error {
	c.mu.Lock()
	stage := c.view.Stage
	garmentID := c.view.GarmentID
	c.mu.Unlock()

	if stage != domain.StageReadyForPickup {
		return ErrNotReadyForPickup
	}
	if c.balance == nil || a.AcknowledgeBalance {
		return nil
	}
	chk, err := c.balance.Check(ctx, garmentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBalanceCheck, err)
	}
	if chk.LastGarment && chk.OutstandingCents > 0 {
		return &BalanceDueError{
			OrderTotalCents: chk.OrderTotalCents,
			PaidCents:       chk.PaidCents,
			BalanceCents:    chk.OutstandingCents,
		}
	}
	return nil
}

// reconcile folds server-assigned fields into the committed view without
// discarding the optimistic prediction.
func reconcile(v View, a Action, res MutationResult) View {
	switch act := a.(type) {
	case AddService:
		if res.ServiceID != 0 {
			if i := v.serviceIndex(act.TempID); i >= 0 {
				v.Services[i].ID = res.ServiceID
			}
		}
	case RecordPayment:
		if i := v.paymentIndex(act.TempID); i >= 0 {
			if res.PaymentID != 0 {
				v.Payments[i].ID = res.PaymentID
			}
			if res.PaymentStatus != "" {
				v.Payments[i].Status = res.PaymentStatus
			}
		}
	}
	return v
}
