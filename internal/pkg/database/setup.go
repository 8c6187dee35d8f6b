package database

import (
	"fmt"
	"log"
	"time"

	"github.com/openbankingng/monobridge/app/models"
	"github.com/openbankingng/monobridge/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase connects the global handle. MySQL is used when DB_HOST is
// configured, otherwise a local SQLite file (STORAGE_PATH) keeps the
// single-binary deployment working without an external database.
func SetupDatabase() {
	var err error

	for i := 0; i < maxRetries; i++ {
		DB, err = openFromEnv()
		if err == nil {
			if err = Migrate(DB); err == nil {
				return
			}
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func openFromEnv() (*gorm.DB, error) {
	if env.GetEnv("DB_HOST", "") == "" {
		path := env.GetEnv("STORAGE_PATH", "./monobridge.db")
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	}

	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
	return gorm.Open(mysql.New(mysql.Config{
		DSN:                       dsn,
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
}

// Migrate creates the schema for all models, including the unique index the
// webhook event store relies on for idempotent inserts.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.WebhookEvent{},
		&models.Account{},
		&models.Transaction{},
	)
}

// GetDB returns the global database handle set up at boot.
func GetDB() *gorm.DB {
	return DB
}
