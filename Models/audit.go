package Models

import (
	"gorm.io/gorm"
)

const (
	AuditPointsAwarded  = "points_awarded"
	AuditPointsRedeemed = "points_redeemed"
)

// AuditLogEntry is an append-only record of every balance-affecting
// mutation. The ledger creates entries inside its transactions; nothing
// updates or deletes them.
type AuditLogEntry struct {
	gorm.Model
	Action   string `json:"action" gorm:"not null;index"`
	FamilyID uint   `json:"family_id" gorm:"not null;index"`
	ActorID  uint   `json:"actor_id" gorm:"not null"`
	MemberID uint   `json:"member_id" gorm:"not null;index"`

	// Points is positive for awards and negative for redemptions.
	Points       int `json:"points"`
	BalanceAfter int `json:"balance_after"`

	TaskID        uint   `json:"task_id"`
	RedemptionRef string `json:"redemption_ref"`
}
