package Models

import (
	"gorm.io/gorm"
)

type Family struct {
	gorm.Model
	Name    string   `json:"name" gorm:"not null"`
	Members []Member `json:"members,omitempty" gorm:"foreignKey:FamilyID"`

	// Denormalized counters, maintained as increments inside the same
	// transactions that mutate tasks, members and redemptions. Never
	// recomputed from scratch.
	PendingTasks        int `json:"pending_tasks"`
	CompletedTasks      int `json:"completed_tasks"`
	TotalPointsAwarded  int `json:"total_points_awarded"`
	TotalPointsRedeemed int `json:"total_points_redeemed"`
	PendingRedemptions  int `json:"pending_redemptions"`
}

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

type Member struct {
	gorm.Model
	FamilyID uint   `json:"family_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null"`
	// Email is nullable: young children have no login. NULLs are distinct
	// under the unique index, so only real addresses must be unique.
	Email    *string `json:"email,omitempty" gorm:"uniqueIndex"`
	Password []byte  `json:"-"`
	Role     string  `json:"role" gorm:"not null;default:child"`

	// Points is always TotalPointsEarned - TotalPointsRedeemed and never
	// negative. All mutation goes through the Ledger transactions.
	Points              int `json:"points"`
	TotalPointsEarned   int `json:"total_points_earned"`
	TotalPointsRedeemed int `json:"total_points_redeemed"`
	TasksCompleted      int `json:"tasks_completed"`
}

func (m *Member) IsParent() bool {
	return m.Role == RoleParent
}

// ParentIDs returns the ids of all parents in the given family.
func ParentIDs(db *gorm.DB, familyID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&Member{}).
		Where("family_id = ? AND role = ?", familyID, RoleParent).
		Pluck("id", &ids).Error
	return ids, err
}
