package models

import "time"

// AuditLog is append-only. Listing filters by action, entity and time, so
// each of those is indexed.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ActorID *uint  `gorm:"index" json:"actor_id"`
	Action  string `gorm:"size:50;not null;index" json:"action"`

	Entity   string `gorm:"size:50;index:idx_audit_entity" json:"entity"`
	EntityID *uint  `gorm:"index:idx_audit_entity" json:"entity_id"`
	Metadata string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
