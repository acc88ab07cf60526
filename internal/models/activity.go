package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one audit trail row. Rows are append-only.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       uint              `gorm:"index:idx_activity_actor_created,priority:1" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID      *uint             `gorm:"index:idx_activity_entity,priority:2" json:"entity_id"`
	CorrelationID string            `gorm:"size:128" json:"correlation_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index:idx_activity_actor_created,priority:2" json:"created_at"`
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&UserSession{},
		&Course{},
		&CourseModule{},
		&CourseLesson{},
		&Payment{},
		&PaymentItem{},
		&Enrollment{},
		&LessonProgress{},
		&LessonNote{},
		&Certificate{},
		&Review{},
		&ReviewHelpful{},
		&Notification{},
		&ActivityLog{},
	}
}
