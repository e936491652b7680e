package database

import (
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var db *gorm.DB

// Enabled reports whether a database is configured. Without one submissions
// are kept in memory.
func Enabled() bool {
	return env.GetEnv("DB_HOST", "") != ""
}

// DSN builds the MySQL data source name from the DB_* settings.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

// SetupDatabase opens the connection, retrying while the server starts up,
// then applies the migrations found in migrationsPath.
func SetupDatabase(migrationsPath string) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *gorm.DB
		conn, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			if err = MigrateUp(migrationsPath); err != nil {
				return err
			}
			db = conn
			return nil
		}

		fiberlog.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return err
}

// GetDB returns the connection opened by SetupDatabase, or nil.
func GetDB() *gorm.DB {
	return db
}
