// Package sqlite provides the SQLite-backed persistence layer.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/vofmun/registrar/internal/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB wraps the SQLite connection and owns schema migrations.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path, enables WAL
// mode, foreign keys, and a 5s busy timeout, and applies any pending
// migrations. The parent directory is created with 0700 permissions.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Connection returns the underlying *sql.DB for health checks.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// RegistrationRepository returns the registrations repository bound to
// this connection.
func (d *DB) RegistrationRepository() *RegistrationRepository {
	return newRegistrationRepository(d.conn)
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// migrate applies pending up migrations in version order. When the
// database file already has content, a .bak copy is written first so a
// failed migration never loses the only copy of the data.
func (d *DB) migrate() error {
	if _, err := d.conn.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`,
	); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := d.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	pending, err := pendingMigrations(current)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if current > 0 {
		if err := backupFile(d.path); err != nil {
			return fmt.Errorf("failed to back up database before migration: %w", err)
		}
	}

	for _, m := range pending {
		if err := d.applyMigration(m); err != nil {
			return err
		}
		log.Info(log.CatDB, "applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

type migration struct {
	version int
	name    string
	sql     string
}

// pendingMigrations loads embedded *.up.sql files with a version above
// current, sorted ascending. File names follow NNNN_description.up.sql.
func pendingMigrations(current int) ([]migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var pending []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, found := strings.Cut(name, "_")
		if !found {
			return nil, fmt.Errorf("migration %q has no version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %q has invalid version prefix: %w", name, err)
		}
		if version <= current {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", name, err)
		}
		pending = append(pending, migration{version: version, name: name, sql: string(content)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

// applyMigration runs one migration and records its version in a single
// transaction.
func (d *DB) applyMigration(m migration) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(m.sql); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, unixepoch())`,
		m.version,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	return tx.Commit()
}

// backupFile copies path to path.bak, overwriting any previous backup.
func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".bak")
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Sync()
}
