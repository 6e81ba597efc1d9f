package Ledger

import (
	"Hearth/Models"
)

// AuditLog returns the family's audit entries, newest first. Entries are
// append-only; there is no update or delete path.
func (s *Service) AuditLog(familyID uint, limit, offset int) ([]Models.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entries []Models.AuditLogEntry
	err := s.DB.Where("family_id = ?", familyID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}
