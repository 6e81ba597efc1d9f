package Models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskOverdue   = "overdue"
	TaskExempted  = "exempted"
)

// DefaultRewardPoints is used when a task has no explicit reward.
const DefaultRewardPoints = 10

type Task struct {
	gorm.Model
	FamilyID     uint       `json:"family_id" gorm:"not null;index"`
	AssignedToID uint       `json:"assigned_to_id" gorm:"not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status" gorm:"not null;default:pending;index"`

	RequiresPhoto bool       `json:"requires_photo"`
	PhotoApproved bool       `json:"photo_approved"`
	CompletedAt   *time.Time `json:"completed_at"`
	CompletedBy   uint       `json:"completed_by"`

	RewardPoints int `json:"reward_points"`
	// PointsAwarded stays 0 until the ledger pays the task out. A non-zero
	// value marks the task as paid and blocks a second award.
	PointsAwarded int `json:"points_awarded"`

	// Escalation markers, set by the escalation engine at levels 3 and 4.
	ParentOverrideRequired bool `json:"parent_override_required"`
	FullRestriction        bool `json:"full_restriction"`
}

func (t *Task) IsOpen() bool {
	return t.Status == TaskPending || t.Status == TaskOverdue
}
