package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"roblox-trader/internal/models"
)

// Initialize opens the sqlite database holding the trade ad history and
// migrates its schema.
func Initialize(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.TradeAdRecord{}); err != nil {
		return nil, err
	}

	logrus.WithField("path", path).Info("database initialized")
	return db, nil
}
