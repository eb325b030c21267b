package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

// historicalRow is the GORM mapping of sunlight.HistoricalInformation.
type historicalRow struct {
	ID        string                 `gorm:"type:varchar(36);primaryKey"`
	Latitude  decimal.Decimal        `gorm:"type:decimal(10,7);not null;index:idx_historical_informations_lat_lng,priority:1;uniqueIndex:idx_historical_informations_query,priority:1"`
	Longitude decimal.Decimal        `gorm:"type:decimal(10,7);not null;index:idx_historical_informations_lat_lng,priority:2;uniqueIndex:idx_historical_informations_query,priority:2"`
	StartDate time.Time              `gorm:"type:date;not null;index;uniqueIndex:idx_historical_informations_query,priority:3"`
	EndDate   time.Time              `gorm:"type:date;not null;index;uniqueIndex:idx_historical_informations_query,priority:4"`
	Data      []sunlight.DailyRecord `gorm:"type:json;serializer:json;not null"`
	CreatedAt time.Time              `gorm:"not null"`
	UpdatedAt time.Time              `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (historicalRow) TableName() string { return "historical_informations" }

func (r *historicalRow) toDomain() *sunlight.HistoricalInformation {
	return &sunlight.HistoricalInformation{
		ID:        r.ID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		StartDate: r.StartDate.UTC(),
		EndDate:   r.EndDate.UTC(),
		Data:      r.Data,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// GormStore persists records through GORM (SQLite or MySQL).
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at path. Use ":memory:" for tests.
func OpenSQLite(path string, logLevel gormlogger.LogLevel) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewGormStore(db)
}

// OpenMySQL opens a MySQL database. The DSN must include parseTime=true.
func OpenMySQL(dsn string, logLevel gormlogger.LogLevel) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return NewGormStore(db)
}

func gormConfig(logLevel gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// NewGormStore wraps db and creates the table and indexes if needed.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&historicalRow{}); err != nil {
		return nil, fmt.Errorf("migrate historical_informations: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) FindExact(ctx context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error) {
	var row historicalRow
	err := s.db.WithContext(ctx).
		Where("latitude = ? AND longitude = ? AND start_date = ? AND end_date = ?",
			q.Latitude, q.Longitude, q.StartDate, q.EndDate).
		Order("created_at").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sunlight.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find historical information: %w", err)
	}
	return row.toDomain(), nil
}

func (s *GormStore) Create(ctx context.Context, q sunlight.Query, data []sunlight.DailyRecord) (*sunlight.HistoricalInformation, error) {
	if err := sunlight.ValidateRecord(q, data); err != nil {
		return nil, err
	}

	row := historicalRow{
		ID:        uuid.NewString(),
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Data:      data,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, sunlight.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create historical information: %w", err)
	}
	return row.toDomain(), nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*sunlight.HistoricalInformation, error) {
	var row historicalRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sunlight.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find historical information %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
