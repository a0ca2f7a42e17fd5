package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/HalooLaloo/quotesnap-sub000/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the database. A DSN starting with "file:" or ending in
// ".db" selects sqlite (local development and tests); anything else is
// treated as PostgreSQL. Retries briefly to give Postgres time to start.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.DSN()
	return OpenDSN(dsn)
}

// OpenDSN opens a connection from a raw DSN string.
func OpenDSN(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{})
		if err == nil {
			return db, nil
		}
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect database: %w", err)
}
