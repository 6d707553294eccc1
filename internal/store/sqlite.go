package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/serroba/scaleurl/internal/shortener"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// shortURLRecord is the gorm model behind SQLiteStore.
type shortURLRecord struct {
	ID          uint      `gorm:"primaryKey"`
	ShortCode   string    `gorm:"size:64;not null;uniqueIndex"`
	OriginalURL string    `gorm:"not null"`
	VisitCount  int64     `gorm:"not null;default:0;index:idx_short_urls_created_visits,priority:2"`
	CreatedAt   time.Time `gorm:"not null;index:idx_short_urls_created_visits,priority:1"`
}

func (shortURLRecord) TableName() string {
	return "short_urls"
}

func (r *shortURLRecord) toShortURL() shortener.ShortURL {
	return shortener.ShortURL{
		Code:        shortener.Code(r.ShortCode),
		OriginalURL: r.OriginalURL,
		VisitCount:  r.VisitCount,
		CreatedAt:   r.CreatedAt.Local(),
	}
}

// SQLiteStore is an embedded SQLite implementation of shortener.Repository
// for single node deployments.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and migrates the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}

	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&shortURLRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	record := shortURLRecord{
		ShortCode:   string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		VisitCount:  shortURL.VisitCount,
		CreatedAt:   shortURL.CreatedAt.UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "short_code"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return shortener.ErrConflict
	}

	return nil
}

func (s *SQLiteStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	var record shortURLRecord

	err := s.db.WithContext(ctx).Where("short_code = ?", string(code)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	url := record.toShortURL()

	return &url, nil
}

func (s *SQLiteStore) IncrementVisits(ctx context.Context, code shortener.Code) error {
	result := s.db.WithContext(ctx).
		Model(&shortURLRecord{}).
		Where("short_code = ?", string(code)).
		UpdateColumn("visit_count", gorm.Expr("visit_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) TopByVisits(
	ctx context.Context, from, to time.Time, limit int,
) ([]shortener.ShortURL, error) {
	var records []shortURLRecord

	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("visit_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	urls := make([]shortener.ShortURL, 0, len(records))
	for i := range records {
		urls = append(urls, records[i].toShortURL())
	}

	return urls, nil
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Shutdown closes the underlying database handle.
func (s *SQLiteStore) Shutdown() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
