package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ewellner/daybridge/pkg/config"
)

type Database struct {
	*gorm.DB
	dsn string
}

func NewDatabase(cfg *config.Config) (*Database, error) {
	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		sslMode,
	)

	// Verify connectivity with a plain SQL connection first; pq errors carry
	// more detail than the gorm wrapper surfaces.
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create sql.DB: %w", err)
	}
	defer sqlDB.Close()

	sqlDB.SetConnMaxLifetime(10 * time.Second)
	if err := sqlDB.Ping(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, fmt.Errorf("postgres error: code=%s, message=%s, detail=%s", pqErr.Code, pqErr.Message, pqErr.Detail)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database with GORM: %w", err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	maxIdleConns := 10
	maxOpenConns := 50
	if cfg.Database.MaxIdleConns > 0 {
		maxIdleConns = cfg.Database.MaxIdleConns
	}
	if cfg.Database.MaxOpenConns > 0 {
		maxOpenConns = cfg.Database.MaxOpenConns
	}
	connMaxLifetime := time.Hour
	if cfg.Database.ConnMaxLifetime > 0 {
		connMaxLifetime = cfg.Database.ConnMaxLifetime
	}

	pool.SetMaxIdleConns(maxIdleConns)
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetConnMaxLifetime(connMaxLifetime)

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping connection pool: %w", err)
	}

	return &Database{
		DB:  db,
		dsn: dsn,
	}, nil
}

// HealthCheck pings the pool; used by the readiness probe.
func (d *Database) HealthCheck(ctx context.Context) error {
	pool, err := d.DB.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Close releases the connection pool.
func (d *Database) Close() error {
	pool, err := d.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
