package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DBConfig holds the Postgres connection settings for DBStore
type DBConfig struct {
	Host        string        `yaml:"host"`
	Port        string        `yaml:"port"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	DBName      string        `yaml:"dbname"`
	SSLMode     string        `yaml:"sslmode"`
	MaxConns    int           `yaml:"max_conns"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
}

// DefaultDBConfig returns settings for a local development database
func DefaultDBConfig() DBConfig {
	return DBConfig{
		Host:        "localhost",
		Port:        "5432",
		User:        "backoffice",
		Password:    "backoffice_dev_password",
		DBName:      "backoffice",
		SSLMode:     "disable",
		MaxConns:    5,
		MaxIdleTime: 5 * time.Minute,
	}
}

// DSN returns the libpq connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Value is one persisted session entry
type Value struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Namespace string    `gorm:"type:varchar(100);not null;uniqueIndex:session_values_namespace_key"`
	Key       string    `gorm:"type:varchar(100);not null;uniqueIndex:session_values_namespace_key"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Value
func (Value) TableName() string {
	return "session_values"
}

// BeforeCreate assigns an id when none is set
func (v *Value) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// DBStore persists session values in Postgres, one namespace per profile
type DBStore struct {
	db        *gorm.DB
	namespace string
}

// OpenDB connects to Postgres through gorm and verifies the connection
func OpenDB(cfg DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns)
	}
	if cfg.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// CloseDB closes the pool behind db
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewDBStore creates a store scoped to namespace
func NewDBStore(db *gorm.DB, namespace string) *DBStore {
	if namespace == "" {
		namespace = "default"
	}
	return &DBStore{db: db, namespace: namespace}
}

// Get returns the value for key
func (s *DBStore) Get(ctx context.Context, key string) (string, error) {
	var v Value
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v.Value, nil
}

// Set upserts value under key
func (s *DBStore) Set(ctx context.Context, key, value string) error {
	v := Value{Namespace: s.namespace, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&v).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (s *DBStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", s.namespace, keys).
		Delete(&Value{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}
