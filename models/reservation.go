// models/reservation.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Reservation struct {
	ID             string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Number         string            `json:"number" gorm:"uniqueIndex;type:varchar(32)"`
	GuestID        string            `json:"guestId" gorm:"index;not null"`
	GuestName      string            `json:"guestName"`
	RoomID         string            `json:"roomId" gorm:"index;not null"`
	CheckIn        time.Time         `json:"checkIn" gorm:"type:date;not null"`
	CheckOut       time.Time         `json:"checkOut" gorm:"type:date;not null"`
	Guests         int               `json:"guests" gorm:"default:1"`
	Status         ReservationStatus `json:"status" gorm:"type:varchar(20);index"`
	TotalAmount    decimal.Decimal   `json:"totalAmount" gorm:"type:numeric(10,2)"`
	PaidAmount     decimal.Decimal   `json:"paidAmount" gorm:"type:numeric(10,2)"`
	Notes          string            `json:"notes" gorm:"type:text"`
	ActualCheckIn  *time.Time        `json:"actualCheckIn,omitempty"`
	ActualCheckOut *time.Time        `json:"actualCheckOut,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (r *Reservation) Range() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// Balance is what the guest still owes. Negative means overpaid.
func (r *Reservation) Balance() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}

// ReservationQuery selects reservations. Zero values match everything; a
// non-nil Range keeps only reservations overlapping it.
type ReservationQuery struct {
	RoomID  string
	GuestID string
	Status  ReservationStatus
	Range   *DateRange
}

func (q ReservationQuery) Match(r *Reservation) bool {
	if q.RoomID != "" && r.RoomID != q.RoomID {
		return false
	}
	if q.GuestID != "" && r.GuestID != q.GuestID {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Range != nil && !Overlaps(r.Range(), *q.Range) {
		return false
	}
	return true
}
