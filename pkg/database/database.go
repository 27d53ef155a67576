package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Statement timeouts enforced database-side. Normal queries get 30s; report
// queries opt into the slow timeout with SET LOCAL (see internal/reports).
const (
	StatementTimeout     = 30 * time.Second
	SlowStatementTimeout = 600 * time.Second
)

// Connect opens the PostgreSQL database using DATABASE_URL, or assembles a
// DSN from DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME.
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenv("DB_HOST", "localhost")
		port := getenv("DB_PORT", "5432")
		user := getenv("DB_USER", "postgres")
		password := os.Getenv("DB_PASSWORD")
		name := getenv("DB_NAME", "mostrador")
		sslmode := getenv("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, name, sslmode)
	}

	dsn = fmt.Sprintf("%s statement_timeout=%d", dsn, StatementTimeout.Milliseconds())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// StartKeepAlive pings the database on a fixed interval so idle connections
// are not dropped by the server or intermediate proxies. Returns a stop
// function.
func StartKeepAlive(db *gorm.DB, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := db.Exec("SELECT 1").Error; err != nil {
					log.Printf("keep-alive ping failed: %v", err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

// EnsureDefaultAdmin creates an admin user when the users table is empty,
// so a fresh install can always log in. Credentials come from
// ADMIN_USERNAME/ADMIN_PASSWORD, defaulting to admin/admin.
func EnsureDefaultAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := getenv("ADMIN_USERNAME", "admin")
	password := getenv("ADMIN_PASSWORD", "admin")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created default admin user %q", username)
	return nil
}
