// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"patas-conectadas/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// New returns a migrated sqlite database private to the calling test.
// Foreign keys are enforced so cascades behave as they do on postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.TaskStatus{},
		&models.AnimalStatus{},
		&models.Volunteer{},
		&models.Preference{},
		&models.Animal{},
		&models.Task{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// SeedVolunteer inserts a volunteer with a CPF and email derived from n.
func SeedVolunteer(t testing.TB, db *gorm.DB, n int, name string) models.Volunteer {
	t.Helper()
	v := models.Volunteer{
		Name:  name,
		CPF:   fmt.Sprintf("%011d", n),
		Email: fmt.Sprintf("volunteer%d@example.org", n),
		Phone: "11999990000",
	}
	if err := db.Omit("Preferences").Create(&v).Error; err != nil {
		t.Fatalf("failed to seed volunteer: %v", err)
	}
	return v
}
