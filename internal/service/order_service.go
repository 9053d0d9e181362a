package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tailorpos-backend/internal/billing"
	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
	"tailorpos-backend/internal/workflow"
)

var (
	ErrNotReadyForPickup  = errors.New("garment is not ready for pickup")
	ErrOutstandingBalance = errors.New("order has an outstanding balance")
)

// OrderService wraps order, garment and payment mutations so that every
// change to a garment's service lines refreshes the garment's stage and
// pickup is gated on both the stage and the order's balance.
type OrderService struct {
	Orders        repository.OrderRepository
	Payments      repository.PaymentRepository
	Notifications repository.NotificationRepository
	ActivityLogs  repository.ActivityLogRepository
	Logger        *slog.Logger
}

type OrderBilling struct {
	SubtotalCents    int64
	DiscountCents    int64
	TaxCents         int64
	ActiveTotalCents int64
	Summary          billing.PaymentSummary
}

type PickupInput struct {
	GarmentID          int64
	AcknowledgeBalance bool
	Actor              string
}

func (s OrderService) Create(ctx context.Context, in repository.CreateOrderInput, actor string) (*domain.Order, error) {
	order, err := s.Orders.Create(ctx, in, nil)
	if err != nil {
		return nil, err
	}
	customer := in.CustomerName
	if order.Customer != nil {
		customer = order.Customer.Name
	}
	s.log(ctx, domain.LogOrder, actor, "Order created",
		fmt.Sprintf("%s for %s", order.Code, customer))
	return order, nil
}

func (s OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.Orders.Get(ctx, id)
}

func (s OrderService) List(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.Orders.List(ctx, limit)
}

// Billing derives the order's payable total and payment summary from its
// current garments and payment ledger. Nothing is read from stored totals.
func (s OrderService) Billing(ctx context.Context, orderID int64) (*domain.Order, OrderBilling, error) {
	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, OrderBilling{}, err
	}
	b := billingFor(order)
	return order, b, nil
}

func (s OrderService) AddServiceLine(ctx context.Context, garmentID int64, in repository.CreateServiceLineInput, actor string) (*domain.ServiceLine, error) {
	line, err := s.Orders.AddServiceLine(ctx, garmentID, in)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStage(ctx, garmentID); err != nil {
		return nil, err
	}
	s.log(ctx, domain.LogOrder, actor, "Service added", line.Name)
	return line, nil
}

func (s OrderService) UpdateServiceLine(ctx context.Context, garmentID, lineID int64, in repository.UpdateServiceLineInput, actor string) (*domain.ServiceLine, error) {
	line, err := s.Orders.UpdateServiceLine(ctx, lineID, in)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStage(ctx, garmentID); err != nil {
		return nil, err
	}
	s.log(ctx, domain.LogOrder, actor, "Service updated", line.Name)
	return line, nil
}

func (s OrderService) RemoveServiceLine(ctx context.Context, garmentID, lineID int64, actor string) error {
	if err := s.Orders.RemoveServiceLine(ctx, lineID); err != nil {
		return err
	}
	if err := s.refreshStage(ctx, garmentID); err != nil {
		return err
	}
	s.log(ctx, domain.LogOrder, actor, "Service removed", fmt.Sprintf("line #%d", lineID))
	return nil
}

func (s OrderService) RestoreServiceLine(ctx context.Context, garmentID, lineID int64, actor string) error {
	if err := s.Orders.RestoreServiceLine(ctx, lineID); err != nil {
		return err
	}
	if err := s.refreshStage(ctx, garmentID); err != nil {
		return err
	}
	s.log(ctx, domain.LogOrder, actor, "Service restored", fmt.Sprintf("line #%d", lineID))
	return nil
}

func (s OrderService) SetServiceLineDone(ctx context.Context, garmentID, lineID int64, done bool, actor string) (*domain.Garment, error) {
	if err := s.Orders.SetServiceLineDone(ctx, lineID, done); err != nil {
		return nil, err
	}
	if err := s.refreshStage(ctx, garmentID); err != nil {
		return nil, err
	}
	garment, err := s.Orders.GetGarment(ctx, garmentID)
	if err != nil {
		return nil, err
	}
	if garment.Stage == domain.StageReadyForPickup {
		s.notifyReady(ctx, garment)
	}
	return garment, nil
}

// MarkPickedUp completes a garment. The garment must be Ready For Pickup,
// and an unpaid balance on the order blocks pickup unless the caller
// explicitly acknowledges it.
func (s OrderService) MarkPickedUp(ctx context.Context, in PickupInput) (*domain.Garment, error) {
	garment, err := s.Orders.GetGarment(ctx, in.GarmentID)
	if err != nil {
		return nil, err
	}
	if garment.Stage != domain.StageReadyForPickup {
		return nil, ErrNotReadyForPickup
	}

	if !in.AcknowledgeBalance {
		order, err := s.Orders.Get(ctx, garment.OrderID)
		if err != nil {
			return nil, err
		}
		if b := billingFor(order); b.Summary.AmountDueCents > 0 {
			return nil, fmt.Errorf("%w: %d due", ErrOutstandingBalance, b.Summary.AmountDueCents)
		}
	}

	garment, err = s.Orders.MarkGarmentPickedUp(ctx, in.GarmentID)
	if err != nil {
		return nil, err
	}
	s.log(ctx, domain.LogOrder, in.Actor, "Garment picked up", garment.Name)
	s.maybeComplete(ctx, garment.OrderID)
	return garment, nil
}

func (s OrderService) RecordPayment(ctx context.Context, in repository.CreatePaymentInput, actor string) (*domain.Payment, error) {
	if in.IntentID == nil {
		intent := uuid.NewString()
		in.IntentID = &intent
	}
	payment, err := s.Payments.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log(ctx, domain.LogPayment, actor, "Payment recorded",
		fmt.Sprintf("%d via %s", payment.Amount.Amount, payment.Method))
	return payment, nil
}

func (s OrderService) RecordRefund(ctx context.Context, paymentID, amountCents int64, note, actor string) (*domain.Payment, error) {
	payment, err := s.Payments.ApplyRefund(ctx, paymentID, amountCents, note)
	if err != nil {
		return nil, err
	}
	s.log(ctx, domain.LogPayment, actor, "Refund applied",
		fmt.Sprintf("%d on payment #%d", amountCents, paymentID))
	return payment, nil
}

// refreshStage recomputes and persists a garment's stage from its current
// service lines. Done garments are never moved back automatically.
func (s OrderService) refreshStage(ctx context.Context, garmentID int64) error {
	garment, err := s.Orders.GetGarment(ctx, garmentID)
	if err != nil {
		return err
	}
	next := workflow.StageFor(garment.Services)
	if !workflow.ApplyOptimistically(garment.Stage, next) || next == garment.Stage {
		return nil
	}
	return s.Orders.SetGarmentStage(ctx, garmentID, next)
}

// maybeComplete marks the order completed once every garment is picked up.
func (s OrderService) maybeComplete(ctx context.Context, orderID int64) {
	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return
	}
	for _, g := range order.Garments {
		if g.PickedUpAt == nil {
			return
		}
	}
	if err := s.Orders.SetStatus(ctx, orderID, domain.OrderCompleted); err != nil && s.Logger != nil {
		s.Logger.Warn("complete order", "order_id", orderID, "error", err)
	}
}

func (s OrderService) notifyReady(ctx context.Context, garment *domain.Garment) {
	_, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
		Title:   "Garment ready for pickup",
		Message: fmt.Sprintf("%s is ready for pickup", garment.Name),
		Type:    domain.NotifyPickupReady,
		Created: time.Now(),
	})
	if err != nil && s.Logger != nil {
		s.Logger.Warn("notify pickup ready", "garment_id", garment.ID, "error", err)
	}
}

func (s OrderService) log(ctx context.Context, typ domain.ActivityLogType, actor, title, message string) {
	_, err := s.ActivityLogs.Create(ctx, repository.CreateActivityLogInput{
		Title:   title,
		Message: message,
		Actor:   actor,
		Type:    typ,
	})
	if err != nil && s.Logger != nil {
		s.Logger.Warn("activity log", "title", title, "error", err)
	}
}

func billingFor(order *domain.Order) OrderBilling {
	var lines []domain.ServiceLine
	for _, g := range order.Garments {
		lines = append(lines, g.Services...)
	}
	active := billing.ActiveTotal(lines, order.DiscountCents, order.TaxCents)
	return OrderBilling{
		SubtotalCents:    billing.Subtotal(lines),
		DiscountCents:    order.DiscountCents,
		TaxCents:         order.TaxCents,
		ActiveTotalCents: active,
		Summary:          billing.Summary(active, order.Payments),
	}
}
