package setup

import (
	"fmt"

	"gorm.io/gorm"

	"popup-rooms/internal/domain"
)

// MigrateDB creates or updates the schema for all domain models. All string
// columns that back unique indexes are sized varchars, so AutoMigrate is
// sufficient here.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.RoomParticipant{},
		&domain.RoomInvitation{},
		&domain.Message{},
		&domain.Reaction{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate tables: %w", err)
	}
	return nil
}
