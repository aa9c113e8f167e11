// Package sqlite opens the embedded SQLite database used by default
package sqlite

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite file at path; an empty path opens an in-memory database
func Open(path string, gormLogger logger.Interface) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// every connection to :memory: is a separate database
	if strings.Contains(path, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
