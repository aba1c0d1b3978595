package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Number         string          `json:"number" gorm:"uniqueIndex;type:varchar(20);not null"`
	Type           RoomType        `json:"type" gorm:"type:varchar(20);not null"`
	Floor          int             `json:"floor"`
	MaxOccupancy   int             `json:"maxOccupancy" gorm:"default:2"`
	NightlyPrice   decimal.Decimal `json:"nightlyPrice" gorm:"type:numeric(10,2);not null"`
	PhysicalStatus RoomStatus      `json:"physicalStatus" gorm:"type:varchar(20);default:'available'"`
	Description    string          `json:"description" gorm:"type:text"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// RoomFilter narrows room listings. Zero values match everything.
type RoomFilter struct {
	Type   RoomType
	Floor  *int
	Status RoomStatus
}

func (f RoomFilter) Match(r *Room) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Floor != nil && r.Floor != *f.Floor {
		return false
	}
	if f.Status != "" && r.PhysicalStatus != f.Status {
		return false
	}
	return true
}
