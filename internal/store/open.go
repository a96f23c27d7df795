package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// Open connects to the backend named by storageURL, runs migrations and returns a repository.
// Supported forms: sqlite://path/to/file.db, sqlite::memory:, postgres://... and postgresql://...
func Open(ctx context.Context, storageURL string) (*SQLRepo, error) {
	switch {
	case strings.HasPrefix(storageURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(storageURL, "sqlite://"))
	case strings.HasPrefix(storageURL, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(storageURL, "sqlite:"))
	case strings.HasPrefix(storageURL, "postgres://"), strings.HasPrefix(storageURL, "postgresql://"):
		return OpenPostgres(ctx, storageURL)
	default:
		return nil, fmt.Errorf("unsupported storage url scheme: %q", scheme(storageURL))
	}
}

func scheme(u string) string {
	if i := strings.Index(u, ":"); i > 0 {
		return u[:i]
	}
	return u
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driverSQLite, path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection also keeps :memory: stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	return newSQLRepo(ctx, db)
}

// OpenPostgres connects to PostgreSQL using a lib/pq connection URL.
func OpenPostgres(ctx context.Context, dsn string) (*SQLRepo, error) {
	db, err := sqlx.Open(driverPostgres, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLRepo(ctx, db)
}

func newSQLRepo(ctx context.Context, db *sqlx.DB) (*SQLRepo, error) {
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &SQLRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
