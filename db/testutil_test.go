package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"guitar-club-rental/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "rental_test.db")
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Init(conn, InitOptions{}); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

// fakeClock 每次 Now 前進一秒，讓每個批次的 rental_time 都不同
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.t = f.t.Add(time.Second)
	return f.t
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	return NewRepoWithClock(newTestDB(t), newFakeClock().Now)
}

func seedMember(t *testing.T, r *Repo, studentID, name string) *models.Member {
	t.Helper()
	m := &models.Member{
		StudentID: studentID,
		Name:      name,
		ClassName: "資工二甲",
		ClubRole:  "社員",
		Password:  "hash",
	}
	if err := r.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("seed member %s: %v", studentID, err)
	}
	return m
}

func seedEquipment(t *testing.T, r *Repo, category, model string, total int) *models.Equipment {
	t.Helper()
	eq, err := r.AddEquipment(context.Background(), category, model, total)
	if err != nil {
		t.Fatalf("seed equipment %s/%s: %v", category, model, err)
	}
	return eq
}

func availableOf(t *testing.T, r *Repo, equipmentID uint) int {
	t.Helper()
	var eq models.Equipment
	if err := r.DB.First(&eq, "id = ?", equipmentID).Error; err != nil {
		t.Fatalf("reload equipment %d: %v", equipmentID, err)
	}
	return eq.AvailableQuantity
}

func borrowedCountOf(t *testing.T, r *Repo, equipmentID uint) int {
	t.Helper()
	var n int64
	if err := r.DB.Model(&models.RentalRecord{}).
		Where("equipment_id = ? AND status = ?", equipmentID, models.StatusBorrowed).
		Count(&n).Error; err != nil {
		t.Fatalf("count borrowed for %d: %v", equipmentID, err)
	}
	return int(n)
}
