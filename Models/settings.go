package Models

import (
	"gorm.io/gorm"
)

// QuietHoursSettings is one row per member. Start and End are local
// times in "15:04" form; a window that ends before it starts spans
// midnight (21:00 - 07:00).
type QuietHoursSettings struct {
	gorm.Model
	MemberID uint   `json:"member_id" gorm:"uniqueIndex;not null"`
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start" gorm:"size:5"`
	End      string `json:"end" gorm:"size:5"`
}

// QuietHoursFor loads a member's quiet hours. A member with no row gets
// disabled settings.
func QuietHoursFor(db *gorm.DB, memberID uint) (QuietHoursSettings, error) {
	var settings QuietHoursSettings
	err := db.Where("member_id = ?", memberID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return QuietHoursSettings{MemberID: memberID}, nil
	}
	return settings, err
}
