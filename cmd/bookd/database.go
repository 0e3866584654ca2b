package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/bookledger/internal/oplog"
	"github.com/MarkoPoloResearchLab/bookledger/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	driverPostgres    = "postgres"
	driverSQLite      = "sqlite"
	defaultSQLiteFile = "bookledger.db"
)

func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return logger, nil
}

// openService opens the database, migrates the schema, and wires the book service.
func openService(ctx context.Context, cfg *runtimeConfig, logger *zap.Logger) (*book.Service, func() error, error) {
	db, cleanup, _, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database open: %w", err)
	}
	if err := gormstore.Migrate(ctx, db); err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	options := []book.ServiceOption{book.WithOperationLogger(oplog.New(logger))}
	if cfg.ExposureLimit != nil {
		options = append(options, book.WithExposureLimit(*cfg.ExposureLimit))
	}
	service, err := book.NewService(gormstore.New(db), clock, options...)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("book service init: %w", err)
	}
	return service, cleanup, nil
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	if driver == driverSQLite {
		// a single connection serialises writers and keeps transactions on one handle
		sqlDB.SetMaxOpenConns(1)
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := parsed.Path
		if parsed.Host != "" {
			path = parsed.Host + path
		}
		if path == "" || path == "/" {
			path = defaultSQLiteFile
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(".", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}
