package optimistic

import (
	"fmt"

	"tailorpos-backend/internal/domain"
)

// Action is one mutation on the garment view. Each kind carries its own
// validated payload and is dispatched through Coordinator.Dispatch.
type Action interface {
	// entityKey identifies the entity the mutation touches; overlapping
	// mutations on the same key are rejected while one is in flight.
	entityKey() string
	// message is the user-facing success notification.
	message() string
}

// AddService appends a new service line. TempID is the client-assigned
// placeholder identifier, replaced by the server id on reconciliation.
type AddService struct {
	TempID int64
	Line   domain.ServiceLine
}

// RemoveService soft-deletes a service line. Done lines are not removable.
type RemoveService struct {
	ServiceID int64
}

// RestoreService clears the soft-delete flag on a removed line.
type RestoreService struct {
	ServiceID int64
}

// EditService updates the billable fields of a line. Done lines are not
// editable. A nil LineTotalCents reverts the line to derived pricing.
type EditService struct {
	ServiceID      int64
	Name           string
	Quantity       float64
	UnitPriceCents int64
	LineTotalCents *int64
}

// ToggleServiceDone flips the completion flag on a line.
type ToggleServiceDone struct {
	ServiceID int64
	Done      bool
}

// RecordPayment appends a payment record to the order ledger. TempID is
// replaced by the server id on reconciliation.
type RecordPayment struct {
	TempID      int64
	AmountCents int64
	Method      string
	Status      domain.PaymentRecordStatus
}

// RecordRefund applies a refund against an existing contributing payment.
type RecordRefund struct {
	PaymentID   int64
	AmountCents int64
	Note        string
}

// MarkPickedUp confirms customer pickup, moving the garment to Done.
// AcknowledgeBalance must be set to proceed when the balance pre-check
// reports an outstanding amount.
type MarkPickedUp struct {
	AcknowledgeBalance bool
}

func (a AddService) entityKey() string        { return fmt.Sprintf("service:%d", a.TempID) }
func (a RemoveService) entityKey() string     { return fmt.Sprintf("service:%d", a.ServiceID) }
func (a RestoreService) entityKey() string    { return fmt.Sprintf("service:%d", a.ServiceID) }
func (a EditService) entityKey() string       { return fmt.Sprintf("service:%d", a.ServiceID) }
func (a ToggleServiceDone) entityKey() string { return fmt.Sprintf("service:%d", a.ServiceID) }
func (a RecordPayment) entityKey() string     { return fmt.Sprintf("payment:%d", a.TempID) }
func (a RecordRefund) entityKey() string      { return fmt.Sprintf("payment:%d", a.PaymentID) }
func (a MarkPickedUp) entityKey() string      { return "garment" }

func (a AddService) message() string        { return "service added" }
func (a RemoveService) message() string     { return "service removed" }
func (a RestoreService) message() string    { return "service restored" }
func (a EditService) message() string       { return "service updated" }
func (a ToggleServiceDone) message() string { return "service updated" }
func (a RecordPayment) message() string     { return "payment recorded" }
func (a RecordRefund) message() string      { return "refund recorded" }
func (a MarkPickedUp) message() string      { return "garment picked up" }
