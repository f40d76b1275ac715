package main

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"predsheet/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errConversionNotFound = errors.New("conversion not found")

// conversionStore persists upload sessions between preview and apply.
type conversionStore interface {
	Create(conv *models.Conversion, preds []models.Prediction) error
	Find(id string) (*models.Conversion, error)
	MarkApplied(id string, at time.Time) error
	Delete(id string) error
}

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// conversions first so the predictions FK can be created
		if err := db.AutoMigrate(&models.Conversion{}); err != nil {
			log.Printf("migration warning (conversions): %v", err)
		}
		if err := db.AutoMigrate(&models.Prediction{}); err != nil {
			log.Printf("migration warning (predictions): %v", err)
		}
	}
	ensureUploadBase()
}

// gormStore is the postgres-backed conversionStore.
type gormStore struct {
	db *gorm.DB
}

func (s gormStore) Create(conv *models.Conversion, preds []models.Prediction) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Predictions").Create(conv).Error; err != nil {
			return err
		}
		if len(preds) == 0 {
			return nil
		}
		return tx.Create(&preds).Error
	})
}

func (s gormStore) Find(id string) (*models.Conversion, error) {
	var conv models.Conversion
	err := s.db.Preload("Predictions", func(q *gorm.DB) *gorm.DB {
		return q.Order("position")
	}).First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errConversionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s gormStore) MarkApplied(id string, at time.Time) error {
	return s.db.Model(&models.Conversion{}).Where("id = ?", id).Update("applied_at", at).Error
}

func (s gormStore) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversion_id = ?", id).Delete(&models.Prediction{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Conversion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConversionNotFound
		}
		return nil
	})
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for uploaded sessions.
func uploadBaseDir() string {
	if cfg != nil && cfg.UploadBase != "" {
		return cfg.UploadBase
	}
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
