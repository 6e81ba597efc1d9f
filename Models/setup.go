package Models

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// DefaultDSN serializes write transactions at BEGIN so concurrent ledger
// and escalation transactions queue instead of failing mid-flight.
const DefaultDSN = "hearth.db?_busy_timeout=5000&_txlock=immediate"

func Connect() {
	dsn := os.Getenv("DB_PATH")
	if dsn == "" {
		dsn = DefaultDSN
	}

	connection, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base aggregates with no dependencies
	if err := db.AutoMigrate(
		&Family{},
		&Member{},
	); err != nil {
		return err
	}

	// 2. Per-member records
	if err := db.AutoMigrate(
		&QuietHoursSettings{},
		&DeviceToken{},
		&Task{},
		&Reward{},
	); err != nil {
		return err
	}

	// 3. Records that reference tasks/rewards
	return db.AutoMigrate(
		&Escalation{},
		&Redemption{},
		&AuditLogEntry{},
	)
}
