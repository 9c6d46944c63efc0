package admissions

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"college-helpdesk-backend/models"
)

// TimestampFormat is how submission times are rendered and stored.
const TimestampFormat = "2006-01-02 15:04:05"

// Store persists admission applications in a local SQLite database.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the admissions database under dir.
// AutoMigrate adds any columns missing from older database files.
func NewStore(dir string) (*Store, error) {
	path := filepath.Join(dir, "admissions.db")

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open admissions database: %w", err)
	}

	if err := db.AutoMigrate(&models.AdmissionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate admissions schema: %w", err)
	}

	slog.Info("admissions database ready", "path", path)
	return &Store{db: db}, nil
}

// Insert stores a submission, stamping the current time, and returns the
// assigned application id and the stored timestamp.
func (s *Store) Insert(sub models.AdmissionSubmission) (uint, string, error) {
	record := models.AdmissionRecord{
		FullName:    sub.FullName,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Category:    sub.Category,
		Course:      sub.Course,
		Address:     sub.Address,
		Marks:       sub.Marks,
		PrevCollege: sub.PrevCollege,
		SubmittedAt: time.Now().Format(TimestampFormat),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return 0, "", fmt.Errorf("failed to store admission: %w", err)
	}
	return record.ID, record.SubmittedAt, nil
}

// List returns all applications, newest first.
func (s *Store) List() ([]models.AdmissionRecord, error) {
	var records []models.AdmissionRecord
	if err := s.db.Order("submitted_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch admissions: %w", err)
	}
	return records, nil
}
