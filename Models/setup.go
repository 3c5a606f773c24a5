package Models

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the sqlite database backing the record store and runs the
// schema migration for the storage slot table.
func Connect(path string) (*gorm.DB, error) {
	connection, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := connection.AutoMigrate(&StorageSlot{}); err != nil {
		return nil, err
	}
	log.Printf("Connected to database at %s", path)
	return connection, nil
}
