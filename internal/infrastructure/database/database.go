// Package database owns the Postgres connection backing the durable
// conversation and rate-limit stores.
package database

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

const connectTimeout = 5 * time.Second

// Config controls the Postgres connection pool.
type Config struct {
	DSN string
	// AutoCreate creates the target database when it does not exist yet.
	// A local development convenience; deployed environments provision
	// the database externally and leave this off.
	AutoCreate      bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

// Connect opens the gorm handle, applies pool limits, and verifies the
// connection with a ping before returning it.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, apperrors.New(apperrors.KindConfiguration, "database DSN is empty")
	}

	if cfg.AutoCreate {
		if err := createDatabaseIfMissing(ctx, cfg.DSN, log); err != nil {
			return nil, apperrors.Wrap(apperrors.KindDatabase, "auto-create database", err)
		}
	}

	level := cfg.LogLevel
	if level == 0 {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		// Timestamps in storage are UTC everywhere, matching the message
		// and window timestamps written by the domain layer.
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDatabase, "open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDatabase, "unwrap sql db", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDatabase, "ping database", err)
	}

	log.Info().Str("component", "database").Msg("connected to postgres")
	return db, nil
}

// createDatabaseIfMissing connects to the admin database on the same
// host and creates the target database when absent. Non-URL DSNs are
// passed through untouched; gorm will surface any real problem.
func createDatabaseIfMissing(ctx context.Context, dsn string, log zerolog.Logger) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return nil
	}

	adminURL := *u
	adminURL.Path = "/postgres"
	admin, err := sql.Open("postgres", adminURL.String())
	if err != nil {
		return err
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	log.Info().Str("component", "database").Str("name", name).Msg("creating missing database")
	_, err = admin.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(name))
	return err
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
