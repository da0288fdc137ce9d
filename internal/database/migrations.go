package database

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/models"
)

const snapshotTable = "price_history"

// snapshotDay is the SQL expression for the calendar day of a snapshot.
func snapshotDay(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "date(snapshot_date)"
	}
	return "CAST(snapshot_date AS DATE)"
}

// cleanupDuplicateSnapshots keeps only the newest snapshot per card, condition
// and day. Stores written before snapshots were de-duplicated may hold more.
func cleanupDuplicateSnapshots(db *gorm.DB) error {
	if !db.Migrator().HasTable(snapshotTable) {
		return nil
	}

	result := db.Exec(`
		DELETE FROM ` + snapshotTable + `
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM ` + snapshotTable + `
			GROUP BY card_id, condition, ` + snapshotDay(db) + `
		)
	`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("removed duplicate price snapshots", "rows", result.RowsAffected)
	}
	return nil
}

// RunMigrations backfills placeholder values on rows saved before the
// defaults were enforced.
func RunMigrations(db *gorm.DB) error {
	for _, col := range []string{"set_name", "card_number", "rarity", "condition"} {
		result := db.Exec(`UPDATE cards SET `+col+` = ? WHERE `+col+` IS NULL OR `+col+` = ''`, models.UnknownValue)
		if result.Error != nil {
			slog.Warn("failed to backfill card column", "column", col, "error", result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			slog.Info("backfilled card column", "column", col, "rows", result.RowsAffected)
		}
	}

	if err := db.Exec(`UPDATE cards SET confidence = ? WHERE confidence IS NULL OR confidence = ''`, models.DefaultConfidence).Error; err != nil {
		slog.Warn("failed to backfill card confidence", "error", err)
	}

	if err := db.Exec(`UPDATE `+snapshotTable+` SET condition = ? WHERE condition IS NULL OR condition = ''`, models.ConditionNearMint).Error; err != nil {
		slog.Warn("failed to backfill snapshot condition", "error", err)
	}
	return nil
}
