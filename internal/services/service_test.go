package services

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/kakakulog/kakaku-backend/internal/repo"
)

// newTestDB opens a file-backed SQLite database in a temp dir with the full
// schema migrated. File-backed so WAL and busy_timeout apply, which the
// concurrency tests rely on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
