package database

import (
	"gorm.io/gorm"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database/migrations"
)

func init() {
	// The history endpoint reads analyses by user ordered newest first;
	// AutoMigrate only creates single-column indexes from tags.
	migrations.Register("001_analysis_history_index",
		func(db *gorm.DB) error {
			return db.Exec("CREATE INDEX IF NOT EXISTS idx_analysis_records_user_created ON analysis_records (user_id, created_at DESC)").Error
		},
		func(db *gorm.DB) error {
			return db.Exec("DROP INDEX IF EXISTS idx_analysis_records_user_created").Error
		},
	)
}
