// Package db opens the target store: a SQLite file by default, or Postgres
// when given a postgres:// URL.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Store is one open connection to the target store. It is scoped to a
// single import command; Close releases it.
type Store struct {
	DB      *gorm.DB
	sqlDB   *sql.DB
	dialect string
}

type Options struct {
	// Verbose logs every statement with its timing.
	Verbose bool
	Logger  *slog.Logger
}

// IsPostgresDSN reports whether dsn names a Postgres server rather than a
// SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty database location")
	}

	var (
		dialector gorm.Dialector
		dialect   string
	)
	if IsPostgresDSN(dsn) {
		dialect = DialectPostgres
		dialector = postgres.Open(dsn)
	} else {
		dialect = DialectSQLite
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		}
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(opts)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if dialect == DialectSQLite {
		// One writer; a second pooled connection would see its own
		// transaction state and, for :memory:, its own database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &Store{DB: gdb, sqlDB: sqlDB, dialect: dialect}, nil
}

func newGormLogger(opts Options) logger.Interface {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	level := logger.Warn
	if opts.Verbose {
		level = logger.Info
	}
	return logger.New(
		slog.NewLogLogger(l.Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func (s *Store) Dialect() string { return s.dialect }

func (s *Store) Close() error {
	return s.sqlDB.Close()
}
