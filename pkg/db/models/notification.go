package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-sync/pkg/enums"
)

// Notification stores in-app notification payloads for the session inbox.
// CorrelationID links a synthesized notification back to the order or shipment
// that caused it so duplicates can be collapsed upstream.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:text;primaryKey" json:"id"`
	Type          enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title         string                 `gorm:"type:text;not null" json:"title"`
	Body          string                 `gorm:"type:text;not null" json:"body"`
	CorrelationID *string                `gorm:"type:text;index" json:"correlationId,omitempty"`
	ReadAt        *time.Time             `json:"readAt,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Read reports whether the notification has been marked read.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}
