package ops

import "github.com/hpungsan/textwipe/internal/db"

// StringStore is the accessor for the strings table, which holds the raw
// payloads that representations point at.
type StringStore struct {
	t *db.Table
}

// NewStringStore wraps the strings table.
func NewStringStore(t *db.Table) *StringStore {
	return &StringStore{t: t}
}

// Exists reports whether key has a payload.
func (s *StringStore) Exists(key string) (bool, error) {
	return s.t.Exists(key)
}

// EnsureAbsent deletes key if present. It succeeds either way; removed
// reports whether a payload was actually deleted.
func (s *StringStore) EnsureAbsent(key string) (removed bool, err error) {
	return s.t.Delete(key)
}

// Put stores value under key, replacing any existing payload.
func (s *StringStore) Put(key string, value []byte) error {
	return s.t.Put(key, value)
}
