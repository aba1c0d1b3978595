package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one append-only ledger entry. Refunds are separate entries
// with Status refunded and RefundOf pointing at the original payment.
type Payment struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReservationID string          `json:"reservationId" gorm:"index;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Method        PaymentMethod   `json:"method" gorm:"type:varchar(20)"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20)"`
	RefundOf      string          `json:"refundOf,omitempty" gorm:"index;type:varchar(36)"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (p *Payment) IsRefund() bool { return p.RefundOf != "" }
