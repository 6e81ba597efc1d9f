package Models

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// Several children without logins must be able to coexist: the email
// unique index only applies to members that have an address.
func TestMembers_WithoutEmailCoexist(t *testing.T) {
	db := newTestDB(t)

	family := Family{Name: "Test Family"}
	if err := db.Create(&family).Error; err != nil {
		t.Fatalf("failed to create family: %v", err)
	}

	for _, name := range []string{"One", "Two", "Three"} {
		member := Member{FamilyID: family.ID, Name: name, Role: RoleChild}
		if err := db.Create(&member).Error; err != nil {
			t.Fatalf("failed to create email-less member %q: %v", name, err)
		}
	}

	var count int64
	db.Model(&Member{}).Where("family_id = ?", family.ID).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 members, got %d", count)
	}
}

func TestMembers_DuplicateEmailRejected(t *testing.T) {
	db := newTestDB(t)

	family := Family{Name: "Test Family"}
	if err := db.Create(&family).Error; err != nil {
		t.Fatalf("failed to create family: %v", err)
	}

	email := "parent@example.com"
	first := Member{FamilyID: family.ID, Name: "First", Email: &email, Role: RoleParent}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("failed to create first member: %v", err)
	}

	duplicate := email
	second := Member{FamilyID: family.ID, Name: "Second", Email: &duplicate, Role: RoleParent}
	if err := db.Create(&second).Error; err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}
