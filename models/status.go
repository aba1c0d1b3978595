package models

import (
	"fmt"
	"strings"
)

type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomDouble RoomType = "double"
	RoomSuite  RoomType = "suite"
	RoomDeluxe RoomType = "deluxe"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
	RoomReserved    RoomStatus = "reserved"
)

// ReservationStatus is the one canonical spelling shared by transitions,
// storage and the HTTP surface.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked-in"
	StatusCheckedOut ReservationStatus = "checked-out"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusNoShow     ReservationStatus = "no-show"
)

// Blocks reports whether a reservation in this status holds its room.
func (s ReservationStatus) Blocks() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodPaypal       PaymentMethod = "paypal"
	MethodOther        PaymentMethod = "other"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

// normalizeEnum folds "CHECKED_IN", "Checked In" and "checked-in" to one key.
func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(normalizeEnum(s)); st {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return st, nil
	case "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

func ParseRoomStatus(s string) (RoomStatus, error) {
	switch st := RoomStatus(normalizeEnum(s)); st {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance, RoomReserved:
		return st, nil
	}
	return "", fmt.Errorf("unknown room status %q", s)
}

func ParseRoomType(s string) (RoomType, error) {
	switch t := RoomType(normalizeEnum(s)); t {
	case RoomSingle, RoomDouble, RoomSuite, RoomDeluxe:
		return t, nil
	}
	return "", fmt.Errorf("unknown room type %q", s)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := normalizeEnum(s); m {
	case "card", "credit-card", "debit-card":
		return MethodCard, nil
	case "cash":
		return MethodCash, nil
	case "bank-transfer":
		return MethodBankTransfer, nil
	case "paypal":
		return MethodPaypal, nil
	case "other", "mobile-payment", "stripe":
		return MethodOther, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}
