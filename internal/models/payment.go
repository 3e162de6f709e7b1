package models

import (
	"encoding/json"
	"time"
)

const (
	PaymentPending           = "pending"
	PaymentCompleted         = "completed"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

const (
	MethodCard         = "card"
	MethodCash         = "cash"
	MethodWallet       = "wallet"
	MethodInsurance    = "insurance"
	MethodBankTransfer = "bank_transfer"
	MethodMercadoPago  = "mercadopago"
)

// PaymentDetails is what the gateway reported. Extra holds processor
// metadata the service stores but never reads.
type PaymentDetails struct {
	Processor     string          `json:"processor"`
	PaidBy        uint            `json:"paid_by"`
	GatewayStatus string          `json:"gateway_status,omitempty"`
	GatewayID     string          `json:"gateway_id,omitempty"`
	Extra         json.RawMessage `json:"extra,omitempty"`
}

type Payment struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	AppointmentID uint        `gorm:"index;not null" json:"appointment_id"`
	Appointment   Appointment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Amount         float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	TaxAmount      float64 `gorm:"type:numeric(10,2);default:0" json:"tax_amount"`
	DiscountAmount float64 `gorm:"type:numeric(10,2);default:0" json:"discount_amount"`
	TotalAmount    float64 `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	Status        string         `gorm:"size:20;default:'pending'" json:"status"`
	Method        string         `gorm:"size:20;not null" json:"payment_method"`
	TransactionID string         `gorm:"size:100" json:"transaction_id"`
	PaymentDate   *time.Time     `json:"payment_date"`
	Details       PaymentDetails `gorm:"type:text;serializer:json" json:"payment_details"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	InvoiceDraft     = "draft"
	InvoiceIssued    = "issued"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
	InvoiceRefunded  = "refunded"
)

type InvoiceItem struct {
	Service     string  `json:"service"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

type Invoice struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	CustomerID    uint  `gorm:"index;not null" json:"customer_id"`
	AppointmentID *uint `gorm:"index" json:"appointment_id"`

	InvoiceNumber string    `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	IssueDate     time.Time `gorm:"type:date;not null" json:"issue_date"`
	DueDate       time.Time `gorm:"type:date;not null" json:"due_date"`

	Items      []InvoiceItem `gorm:"type:text;serializer:json" json:"items"`
	Subtotal   float64       `gorm:"type:numeric(10,2)" json:"subtotal"`
	TaxRate    float64       `gorm:"type:numeric(5,2)" json:"tax_rate"`
	TaxAmount  float64       `gorm:"type:numeric(10,2)" json:"tax_amount"`
	Discount   float64       `gorm:"type:numeric(10,2);default:0" json:"discount"`
	Total      float64       `gorm:"type:numeric(10,2)" json:"total"`
	PaidAmount float64       `gorm:"type:numeric(10,2);default:0" json:"paid_amount"`

	Status string `gorm:"size:20;default:'draft'" json:"status"`
	Notes  string `gorm:"type:text" json:"notes"`
	Terms  string `gorm:"type:text" json:"terms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
