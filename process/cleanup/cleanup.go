// Package cleanup removes conversion sessions that were never released.
package cleanup

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"predsheet/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Run deletes conversions created before now-ttl along with their upload directories.
// If dry is true it only prints what would be removed.
func Run(ttl time.Duration, dry bool) (int, error) {
	return RunWithDB(mustDBFromEnv(), ttl, dry, time.Now())
}

// RunWithDB is Run against an open database and an explicit clock.
func RunWithDB(gdb *gorm.DB, ttl time.Duration, dry bool, now time.Time) (int, error) {
	cutoff := now.Add(-ttl)
	var stale []models.Conversion
	if err := gdb.Where("created_at < ?", cutoff).Order("created_at").Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("query stale conversions: %w", err)
	}
	removed := 0
	for _, conv := range stale {
		dir := SessionDir(conv)
		if dry {
			fmt.Printf("DRY: would delete conversion id=%s created=%s dir=%s\n", conv.ID, conv.CreatedAt.Format(time.RFC3339), dir)
			continue
		}
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("conversion_id = ?", conv.ID).Delete(&models.Prediction{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", conv.ID).Delete(&models.Conversion{}).Error
		})
		if err != nil {
			log.Printf("failed delete conversion %s: %v", conv.ID, err)
			continue
		}
		if dir != "" {
			if err := os.RemoveAll(dir); err != nil {
				log.Printf("WARN failed to remove %s: %v", dir, err)
			}
		}
		removed++
		log.Printf("deleted conversion id=%s", conv.ID)
	}
	return removed, nil
}

// SessionDir is the upload directory holding a conversion's files, or "" when the
// stored paths do not share one directory named after the conversion.
func SessionDir(conv models.Conversion) string {
	dir := filepath.Dir(conv.TemplatePath)
	if filepath.Base(dir) != conv.ID || filepath.Dir(conv.ImagePath) != dir {
		return ""
	}
	return dir
}
