package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/textwipe/internal/errors"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest table schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Table names. Every store home holds one sqlite file per name.
const (
	UUIDs           = "uuids"
	Revisions       = "revisions"
	Transactions    = "transactions"
	Representations = "representations"
	Strings         = "strings"
	Changes         = "changes"
	Copies          = "copies"
	Nodes           = "nodes"
)

// Tables lists the tables a valid store home must contain.
var Tables = []string{UUIDs, Revisions, Transactions, Representations, Strings, Changes, Copies, Nodes}

// NextKey is the reserved key holding a table's key-generation counter.
const NextKey = "next-key"

// keyedTables carry a NextKey counter row from creation.
var keyedTables = map[string]bool{
	Transactions: true, Representations: true, Strings: true, Copies: true, Nodes: true,
}

// Options tunes how tables are opened.
type Options struct {
	BusyTimeoutMS int
	ReadOnly      bool
}

// Env is an open store home: one Table per entry in Tables.
type Env struct {
	Home   string
	tables map[string]*Table
}

// Create initializes a store home with empty tables. Existing tables are
// migrated in place, so Create is safe to call on a populated home.
func Create(home string) error {
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create store home: %w", err)
	}
	for _, name := range Tables {
		db, err := sql.Open("sqlite", dsn(filepath.Join(home, name), Options{BusyTimeoutMS: 5000}))
		if err != nil {
			return fmt.Errorf("failed to open table %s: %w", name, err)
		}
		if err := verifyWALMode(db); err != nil {
			db.Close()
			return fmt.Errorf("table %s: %w", name, err)
		}
		if err := migrate(db, keyedTables[name]); err != nil {
			db.Close()
			return fmt.Errorf("table %s: %w", name, err)
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close table %s: %w", name, err)
		}
	}
	return nil
}

// MissingTables returns the names from Tables that have no file under home.
// A missing or non-directory home reports every table.
func MissingTables(home string) []string {
	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		return append([]string(nil), Tables...)
	}
	var missing []string
	for _, name := range Tables {
		if _, err := os.Stat(filepath.Join(home, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Open opens every table under home. The caller must Close the Env.
func Open(home string, opts Options) (*Env, error) {
	if missing := MissingTables(home); len(missing) > 0 {
		return nil, errors.NewInvalidStore(home, fmt.Sprintf("missing table %s", missing[0]))
	}

	env := &Env{Home: home, tables: make(map[string]*Table, len(Tables))}
	for _, name := range Tables {
		t, err := openTable(home, name, opts)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.tables[name] = t
	}
	return env, nil
}

// Table returns the named table, or nil if the env is closed or the name
// is unknown.
func (e *Env) Table(name string) *Table {
	return e.tables[name]
}

// Close closes every table. It is safe to call more than once; the first
// close error is returned.
func (e *Env) Close() error {
	var first error
	for _, name := range Tables {
		t, ok := e.tables[name]
		if !ok {
			continue
		}
		if err := t.close(); err != nil && first == nil {
			first = err
		}
	}
	e.tables = nil
	return first
}

func openTable(home, name string, opts Options) (*Table, error) {
	path := filepath.Join(home, name)
	db, err := sql.Open("sqlite", dsn(path, opts))
	if err != nil {
		return nil, errors.NewStorageFailure(name, err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, errors.NewStorageFailure(name, err)
	}

	version, err := GetUserVersion(db)
	if err != nil {
		db.Close()
		return nil, errors.NewStorageFailure(name, err)
	}
	if version != CurrentSchemaVersion {
		db.Close()
		return nil, errors.NewInvalidStore(filepath.Dir(path),
			fmt.Sprintf("table %s has schema version %d, want %d", name, version, CurrentSchemaVersion))
	}

	return &Table{name: name, path: path, db: db}, nil
}

// dsn builds the connection string. Pragmas in the DSN apply to every
// pooled connection.
func dsn(path string, opts Options) string {
	timeout := opts.BusyTimeoutMS
	if timeout <= 0 {
		timeout = 5000
	}
	s := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", path, timeout)
	if opts.ReadOnly {
		s += "&_pragma=query_only(1)"
	}
	return s
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB, keyed bool) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: key/value table
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS kv (
		  key   TEXT PRIMARY KEY,
		  value BLOB
		) WITHOUT ROWID;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if keyed {
			if _, err := db.Exec(`INSERT OR IGNORE INTO kv (key, value) VALUES (?, ?)`, NextKey, []byte("0")); err != nil {
				return fmt.Errorf("migration 1 failed: %w", err)
			}
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
