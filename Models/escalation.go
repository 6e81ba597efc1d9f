package Models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ResolvedCompleted        = "completed"
	ResolvedParentIntervened = "parent_intervened"
	ResolvedExempted         = "exempted"
)

// Escalation tracks the overdue severity of a single task. Level only ever
// moves up while the record is unresolved; NotifiedLevel trails Level when a
// notification was suppressed by quiet hours and catches up on the next
// check outside the window.
type Escalation struct {
	gorm.Model
	TaskID   uint `json:"task_id" gorm:"uniqueIndex;not null"`
	FamilyID uint `json:"family_id" gorm:"not null;index"`
	ChildID  uint `json:"child_id" gorm:"not null;index"`

	Level         int `json:"level"`
	NotifiedLevel int `json:"notified_level"`

	StartTime            time.Time  `json:"start_time"`
	LastNotificationTime *time.Time `json:"last_notification_time"`

	ResolvedReason *string    `json:"resolved_reason"`
	ResolvedAt     *time.Time `json:"resolved_at"`
}

func (e *Escalation) IsResolved() bool {
	return e.ResolvedReason != nil
}
