// Package history keeps a ledger of sync runs in sqlite.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultFilename is used when no database path is configured.
const DefaultFilename = "exportsync.sqlite3"

// Entry is the outcome of one sheet within a run.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     string    `gorm:"index;size:36" json:"run_id"`
	StartedAt time.Time `gorm:"index" json:"started_at"`
	Source    string    `json:"source"`
	Sheet     string    `json:"sheet"`
	Rows      int       `json:"rows"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// Store reads and writes run entries.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the sqlite ledger at filename.
func Open(filename string) (*Store, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", filename, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	log.WithField("db", filename).Debug("Opened run history")
	return &Store{db: db}, nil
}

// Record stores the entries of one run.
func (s *Store) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&entries).Error
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	err := s.db.WithContext(ctx).
		Order("started_at desc").
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Last returns the entries of the most recent run, or nil when the ledger is empty.
func (s *Store) Last(ctx context.Context) ([]Entry, error) {
	var latest Entry
	err := s.db.WithContext(ctx).Order("started_at desc").Order("id desc").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Entry
	err = s.db.WithContext(ctx).Where("run_id = ?", latest.RunID).Order("id asc").Find(&out).Error
	return out, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
