// Package repo implements the data persistence layer for entries and
// submission counters on top of GORM. This file opens the configured engine
// (pure-Go SQLite by default, PostgreSQL via pgx), sizes its pool, installs
// query tracing and creates the schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-entries-backend/internal/domain"
)

// Supported values for the driver argument of Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied by the driver to every pooled connection.
// busy_timeout lets concurrent limiter writes wait instead of failing with
// SQLITE_BUSY.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

type poolLimits struct {
	maxOpen, maxIdle int
}

var (
	sqlitePool   = poolLimits{maxOpen: 10, maxIdle: 10}
	postgresPool = poolLimits{maxOpen: 20, maxIdle: 10}
)

// Open connects to the configured storage engine. dsn is a file path for
// SQLite and a connection URL/DSN for PostgreSQL; an empty driver means SQLite.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("repo: unsupported driver %q", driver)
	}
}

// OpenSQLite opens (or creates) the SQLite file at path. The parent
// directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("repo: sqlite directory: %w", err)
		}
	}
	return open(sqlite.Open(withPragmas(path)), sqlitePool)
}

// OpenPostgres opens a PostgreSQL connection pool via pgx.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("repo: postgres dsn is empty")
	}
	return open(postgres.Open(dsn), postgresPool)
}

func open(d gorm.Dialector, pool poolLimits) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// withPragmas appends the driver's _pragma parameters to a SQLite DSN,
// keeping any query string already present.
func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// EnableTracing installs the GORM OpenTelemetry plugin. Bound query
// variables are never recorded since entries carry personal data.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(
		tracing.WithoutMetrics(),
		tracing.WithoutQueryVariables(),
	))
}

// AutoMigrate creates the entries and rate_limits tables when missing.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Entry{},
		&domain.RateLimit{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
