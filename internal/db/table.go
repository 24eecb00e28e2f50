package db

import (
	"database/sql"
	stderrors "errors"

	"github.com/hpungsan/textwipe/internal/errors"
)

// Table is one key/value table of a store home. Every mutating call is its
// own committed statement.
type Table struct {
	name string
	path string
	db   *sql.DB
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Get returns the value stored under key. ok is false when the key is absent.
func (t *Table) Get(key string) (value []byte, ok bool, err error) {
	err = t.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStorageFailure(t.name, err)
	}
	return value, true, nil
}

// Exists reports whether key is present.
func (t *Table) Exists(key string) (bool, error) {
	var one int
	err := t.db.QueryRow(`SELECT 1 FROM kv WHERE key = ?`, key).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStorageFailure(t.name, err)
	}
	return true, nil
}

// Put stores value under key, replacing any existing value.
func (t *Table) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := t.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errors.NewStorageFailure(t.name, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error; removed
// reports whether a row was actually deleted.
func (t *Table) Delete(key string) (removed bool, err error) {
	result, err := t.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, errors.NewStorageFailure(t.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewStorageFailure(t.name, err)
	}
	return n > 0, nil
}

// Count returns the number of rows, including any NextKey row.
func (t *Table) Count() (int, error) {
	var n int
	if err := t.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n); err != nil {
		return 0, errors.NewStorageFailure(t.name, err)
	}
	return n, nil
}

// Cursor returns an unpositioned cursor over the table in key order.
func (t *Table) Cursor() *Cursor {
	return &Cursor{t: t}
}

func (t *Table) close() error {
	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	if err != nil {
		return errors.NewStorageFailure(t.name, err)
	}
	return nil
}

// Cursor walks a table in key order. It starts unpositioned; First moves to
// the first record and Next to the following one. Both report false once
// the table is exhausted.
type Cursor struct {
	t     *Table
	rows  *sql.Rows
	key   string
	value []byte
}

// First positions the cursor on the first record.
func (c *Cursor) First() (bool, error) {
	if err := c.Close(); err != nil {
		return false, err
	}
	rows, err := c.t.db.Query(`SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return false, errors.NewStorageFailure(c.t.name, err)
	}
	c.rows = rows
	return c.Next()
}

// Next advances to the following record.
func (c *Cursor) Next() (bool, error) {
	c.key, c.value = "", nil
	if c.rows == nil {
		return false, nil
	}
	if !c.rows.Next() {
		err := c.rows.Err()
		c.rows.Close()
		c.rows = nil
		if err != nil {
			return false, errors.NewStorageFailure(c.t.name, err)
		}
		return false, nil
	}
	if err := c.rows.Scan(&c.key, &c.value); err != nil {
		return false, errors.NewStorageFailure(c.t.name, err)
	}
	return true, nil
}

// Key returns the current record's key.
func (c *Cursor) Key() string { return c.key }

// Value returns the current record's value.
func (c *Cursor) Value() []byte { return c.value }

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	if err != nil {
		return errors.NewStorageFailure(c.t.name, err)
	}
	return nil
}
