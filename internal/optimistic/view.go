package optimistic

import (
	"errors"
	"time"

	"tailorpos-backend/internal/billing"
	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/workflow"
)

var (
	ErrServiceNotFound      = errors.New("service line not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrLineDone             = errors.New("completed service line cannot be changed")
	ErrNotReadyForPickup    = errors.New("garment is not ready for pickup")
	ErrRefundExceedsPayment = errors.New("refund exceeds remaining payment amount")
	ErrRefundNotApplicable  = errors.New("payment is not refundable")
)

// View is the in-memory garment/order state the coordinator predicts
// against. It is only ever mutated through the reducer.
type View struct {
	GarmentID     int64
	OrderID       int64
	Stage         domain.GarmentStage
	DiscountCents int64
	TaxCents      int64
	Services      []domain.ServiceLine
	Payments      []domain.Payment
}

// ActiveTotal is the currently-billable total for the view.
func (v View) ActiveTotal() int64 {
	return billing.ActiveTotal(v.Services, v.DiscountCents, v.TaxCents)
}

// Summary derives the canonical payment summary for the view.
func (v View) Summary() billing.PaymentSummary {
	return billing.Summary(v.ActiveTotal(), v.Payments)
}

func (v View) clone() View {
	out := v
	out.Services = append([]domain.ServiceLine(nil), v.Services...)
	out.Payments = append([]domain.Payment(nil), v.Payments...)
	return out
}

func (v View) serviceIndex(id int64) int {
	for i := range v.Services {
		if v.Services[i].ID == id {
			return i
		}
	}
	return -1
}

func (v View) paymentIndex(id int64) int {
	for i := range v.Payments {
		if v.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

// apply is the pure reducer: it returns the predicted view for an action,
// or an error when a precondition fails (in which case the input view is
// unchanged and no mutation should be attempted).
func apply(v View, a Action) (View, error) {
	next := v.clone()
	now := time.Now()

	switch act := a.(type) {
	case AddService:
		line := act.Line
		line.ID = act.TempID
		line.GarmentID = next.GarmentID
		next.Services = append(next.Services, line)

	case RemoveService:
		i := next.serviceIndex(act.ServiceID)
		if i < 0 {
			return v, ErrServiceNotFound
		}
		if next.Services[i].IsDone {
			return v, ErrLineDone
		}
		next.Services[i].IsRemoved = true
		next.Services[i].RemovedAt = &now

	case RestoreService:
		i := next.serviceIndex(act.ServiceID)
		if i < 0 {
			return v, ErrServiceNotFound
		}
		next.Services[i].IsRemoved = false
		next.Services[i].RemovedAt = nil

	case EditService:
		i := next.serviceIndex(act.ServiceID)
		if i < 0 {
			return v, ErrServiceNotFound
		}
		if next.Services[i].IsDone {
			return v, ErrLineDone
		}
		if act.Name != "" {
			next.Services[i].Name = act.Name
		}
		next.Services[i].Quantity = act.Quantity
		next.Services[i].UnitPriceCents = act.UnitPriceCents
		next.Services[i].LineTotalCents = act.LineTotalCents

	case ToggleServiceDone:
		i := next.serviceIndex(act.ServiceID)
		if i < 0 {
			return v, ErrServiceNotFound
		}
		next.Services[i].IsDone = act.Done
		if act.Done {
			next.Services[i].DoneAt = &now
		} else {
			next.Services[i].DoneAt = nil
		}

	case RecordPayment:
		// Payments start out pending, same as the ledger; they only count
		// toward the balance once the processor confirms them.
		status := act.Status
		if status == "" {
			status = domain.PaymentPending
		}
		next.Payments = append(next.Payments, domain.Payment{
			ID:      act.TempID,
			OrderID: next.OrderID,
			Amount:  domain.Money{Amount: act.AmountCents},
			Method:  act.Method,
			Status:  status,
		})

	case RecordRefund:
		i := next.paymentIndex(act.PaymentID)
		if i < 0 {
			return v, ErrPaymentNotFound
		}
		p := &next.Payments[i]
		if p.Status != domain.PaymentCompleted && p.Status != domain.PaymentPartiallyRefunded {
			return v, ErrRefundNotApplicable
		}
		if act.AmountCents <= 0 || p.RefundedCents+act.AmountCents > p.Amount.Amount {
			return v, ErrRefundExceedsPayment
		}
		p.RefundedCents += act.AmountCents
		p.RefundNote = act.Note
		if p.RefundedCents == p.Amount.Amount {
			p.Status = domain.PaymentRefunded
		} else {
			p.Status = domain.PaymentPartiallyRefunded
		}

	case MarkPickedUp:
		if next.Stage != domain.StageReadyForPickup {
			return v, ErrNotReadyForPickup
		}
		next.Stage = domain.StageDone
		return next, nil
	}

	// Service mutations may move the garment between New, In Progress and
	// Ready For Pickup; Done never changes as a side effect.
	predicted := workflow.StageFor(next.Services)
	if workflow.ApplyOptimistically(next.Stage, predicted) {
		next.Stage = predicted
	}
	return next, nil
}
