package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reward struct {
	gorm.Model
	FamilyID    uint   `json:"family_id" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost" gorm:"not null"`
	Active      bool   `json:"active" gorm:"default:true"`
}

const (
	RedemptionPending   = "pending"
	RedemptionFulfilled = "fulfilled"
	RedemptionCancelled = "cancelled"
)

type Redemption struct {
	gorm.Model
	Reference string `json:"reference" gorm:"uniqueIndex;size:36"`
	FamilyID  uint   `json:"family_id" gorm:"not null;index"`
	MemberID  uint   `json:"member_id" gorm:"not null;index"`
	RewardID  uint   `json:"reward_id" gorm:"not null"`
	PointCost int    `json:"point_cost" gorm:"not null"`
	Status    string `json:"status" gorm:"not null;default:pending"`

	RedeemedBy uint      `json:"redeemed_by"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// BeforeCreate assigns the public reference before saving.
func (r *Redemption) BeforeCreate(tx *gorm.DB) error {
	if r.Reference == "" {
		r.Reference = uuid.NewString()
	}
	return nil
}
