package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Actor        string         `json:"actor" gorm:"size:64;index"`
	Action       string         `json:"action" gorm:"size:64;index"`
	ResourceType string         `json:"resourceType" gorm:"size:64;index"`
	ResourceID   string         `json:"resourceId" gorm:"size:36;index"`
	Reason       string         `json:"reason,omitempty" gorm:"type:text"`
	Before       datatypes.JSON `json:"before,omitempty"`
	After        datatypes.JSON `json:"after,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}
