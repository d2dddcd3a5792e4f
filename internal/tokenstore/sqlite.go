package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/florianilch/postbot/internal/credentials"
)

// credentialRowID is the primary key of the only row (single-account design).
const credentialRowID = 1

// credentialRecord is the database row holding the token set.
type credentialRecord struct {
	ID           uint `gorm:"primaryKey"`
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the GORM default table name.
func (credentialRecord) TableName() string {
	return "credentials"
}

// SQLiteStore keeps the token set in a single-row table via GORM.
type SQLiteStore struct {
	db *gorm.DB
}

// Compile-time check to ensure SQLiteStore implements credentials.Persister
var _ credentials.Persister = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the SQLite database at path and migrates its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	return NewGormStore(db)
}

// NewGormStore uses an already opened GORM connection and migrates its schema.
func NewGormStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return nil, fmt.Errorf("migrating credentials table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the stored token set.
func (s *SQLiteStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	var rec credentialRecord
	err := s.db.WithContext(ctx).First(&rec, credentialRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	if err != nil {
		return credentials.TokenSet{}, fmt.Errorf("reading credentials: %w", err)
	}

	return credentials.TokenSet{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    rec.ExpiresAt,
	}, nil
}

// Save upserts the token set row.
func (s *SQLiteStore) Save(ctx context.Context, ts credentials.TokenSet) error {
	rec := credentialRecord{
		ID:           credentialRowID,
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    ts.ExpiresAt,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Delete removes the token set row.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&credentialRecord{}, credentialRowID).Error; err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
