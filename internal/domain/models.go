package domain

import "time"

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"

	LogInfo    ActivityLogType = "info"
	LogWarning ActivityLogType = "warning"
	LogError   ActivityLogType = "error"
	LogOrder   ActivityLogType = "order"
	LogPayment ActivityLogType = "payment"

	StageNew            GarmentStage = "New"
	StageInProgress     GarmentStage = "In Progress"
	StageReadyForPickup GarmentStage = "Ready For Pickup"
	StageDone           GarmentStage = "Done"

	PaymentPending           PaymentRecordStatus = "pending"
	PaymentCompleted         PaymentRecordStatus = "completed"
	PaymentFailed            PaymentRecordStatus = "failed"
	PaymentRefunded          PaymentRecordStatus = "refunded"
	PaymentPartiallyRefunded PaymentRecordStatus = "partially_refunded"
	PaymentCancelled         PaymentRecordStatus = "cancelled"

	BalanceUnpaid   BalanceStatus = "unpaid"
	BalancePartial  BalanceStatus = "partial"
	BalancePaid     BalanceStatus = "paid"
	BalanceOverpaid BalanceStatus = "overpaid"

	OrderActive    OrderStatus = "active"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"

	InvoiceDraft  InvoiceStatus = "draft"
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"

	AppointmentConsultation AppointmentType = "consultation"
	AppointmentFitting      AppointmentType = "fitting"
	AppointmentPickup       AppointmentType = "pickup"

	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"

	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotifyPickupReady   NotificationType = "pickup_ready"
	NotifyAppointment   NotificationType = "appointment"
)

type UserRole string
type ActivityLogType string
type GarmentStage string
type PaymentRecordStatus string
type BalanceStatus string
type OrderStatus string
type InvoiceStatus string
type AppointmentType string
type AppointmentStatus string
type NotificationType string

type Money struct {
	Amount   int64
	Currency string
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Address      string
	Role         UserRole
	IsGoogle     bool
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Session struct {
	ID           int64
	UserID       *int64
	Token        *string
	RefreshToken *string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

type ActivityLog struct {
	ID        int64
	Title     string
	Message   string
	Actor     string
	Type      ActivityLogType
	LoggedAt  time.Time
	DeletedAt *time.Time
}

type Settings struct {
	BusinessName         string
	BusinessAddress      string
	BusinessPhone        string
	ReceiptFooter        string
	DefaultPaymentMethod string
	TaxRateBasisPoints   int
	InvoicePrefix        string
	AppointmentLeadDays  int
	Notifications        bool
	CurrencyCode         string
	UpdatedAt            time.Time
}

type Customer struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	Address   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// CatalogService is a priced entry in the shop's alteration catalog
// (hemming, taper, zipper replacement, ...). Orders copy its name and
// price into service lines at creation time.
type CatalogService struct {
	ID             int64
	Name           string
	Category       string
	CategoryID     int64
	UnitPriceCents int64
	Unit           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Order struct {
	ID            int64
	Code          string
	CustomerID    *int64
	Customer      *OrderCustomerSnapshot
	Status        OrderStatus
	DiscountCents int64
	TaxCents      int64
	Notes         string
	TailorID      *int64
	Tailor        string
	Garments      []Garment
	Payments      []Payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

type OrderCustomerSnapshot struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

type Garment struct {
	ID         int64
	OrderID    int64
	Name       string
	Stage      GarmentStage
	DueDate    *time.Time
	Notes      string
	ImageKey   string
	PickedUpAt *time.Time
	Services   []ServiceLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// ServiceLine is one billable unit of work on a garment. LineTotalCents is
// authoritative when non-nil; otherwise the total is derived from
// Quantity x UnitPriceCents. Removed lines stay in history but are
// excluded from every active-total and payment computation.
type ServiceLine struct {
	ID             int64
	GarmentID      int64
	CatalogID      *int64
	Name           string
	Quantity       float64
	Unit           string
	UnitPriceCents int64
	LineTotalCents *int64
	IsRemoved      bool
	RemovedAt      *time.Time
	IsDone         bool
	DoneAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Payment is never deleted. Refunds are applied as a monotonically
// increasing RefundedCents against the original record.
type Payment struct {
	ID            int64
	OrderID       int64
	Amount        Money
	RefundedCents int64
	Method        string
	IntentID      *string
	Reference     *string
	Status        PaymentRecordStatus
	FailureReason string
	RefundNote    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Invoice struct {
	ID            int64
	OrderID       int64
	Number        string
	Status        InvoiceStatus
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	DueDate       *time.Time
	IssuedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

type Appointment struct {
	ID          int64
	CustomerID  *int64
	Customer    string
	OrderID     *int64
	Type        AppointmentType
	Status      AppointmentStatus
	ScheduledAt time.Time
	DurationMin int
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type Notification struct {
	ID        int64
	UserID    *int64
	Title     string
	Message   string
	Type      NotificationType
	CreatedAt time.Time
	ReadAt    *time.Time
	DeletedAt *time.Time
}
