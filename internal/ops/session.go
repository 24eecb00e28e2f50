package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/textwipe/internal/config"
	"github.com/hpungsan/textwipe/internal/db"
	"github.com/hpungsan/textwipe/internal/errors"
	"github.com/hpungsan/textwipe/internal/logging"
	"github.com/hpungsan/textwipe/internal/skel"
)

// RunStats summarizes a completed walk.
type RunStats struct {
	Nodes          int `json:"nodes"`
	FileNodes      int `json:"file_nodes"`
	Rewritten      int `json:"rewritten"`
	AlreadyEmpty   int `json:"already_empty"`
	StringsDeleted int `json:"strings_deleted"`
}

// SessionOptions configures OpenSession.
type SessionOptions struct {
	DryRun bool
	Logger logrus.FieldLogger
}

// Session owns an open store environment and the cursor walking its nodes
// table. Close releases both and must be called on every path.
type Session struct {
	Home string

	cfg      *config.Config
	env      *db.Env
	nodes    *db.Table
	reps     *db.Table
	strings  *StringStore
	cursor   *db.Cursor
	emptyRep []byte
	dryRun   bool
	seeded   bool
	log      logrus.FieldLogger
}

// ValidateRepository checks that repoPath holds a store home with every
// expected table and returns the store home path. It never opens a table.
func ValidateRepository(repoPath string, cfg *config.Config) (string, error) {
	home := filepath.Join(repoPath, cfg.DBDir)
	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		return "", errors.NewInvalidStore(repoPath, fmt.Sprintf("missing %s directory", cfg.DBDir))
	}
	if missing := db.MissingTables(home); len(missing) > 0 {
		return "", errors.NewInvalidStore(repoPath, fmt.Sprintf("missing table %s", missing[0]))
	}
	return home, nil
}

// OpenSession opens the store environment at home.
func OpenSession(home string, cfg *config.Config, opts SessionOptions) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	env, err := db.Open(home, db.Options{BusyTimeoutMS: cfg.BusyTimeoutMS, ReadOnly: opts.DryRun})
	if err != nil {
		return nil, err
	}
	log.WithField("home", home).Debug("opened store environment")

	return &Session{
		Home:     home,
		cfg:      cfg,
		env:      env,
		nodes:    env.Table(db.Nodes),
		reps:     env.Table(db.Representations),
		strings:  NewStringStore(env.Table(db.Strings)),
		emptyRep: EmptyFulltext(),
		dryRun:   opts.DryRun,
		log:      log,
	}, nil
}

// SeedEmptyString stores the zero-length payload under EmptyStringKey.
// Re-seeding overwrites with identical bytes. Dry runs skip the write.
func (s *Session) SeedEmptyString() error {
	if s.dryRun {
		s.seeded = true
		return nil
	}
	if err := s.strings.Put(EmptyStringKey, []byte{}); err != nil {
		return err
	}
	s.seeded = true
	s.log.WithField("key", EmptyStringKey).Debug("seeded empty string")
	return nil
}

// Run walks every node and scrubs each file node. The empty string is
// seeded first if SeedEmptyString has not been called.
func (s *Session) Run(ctx context.Context, progress ProgressFunc) (*RunStats, error) {
	if s.env == nil {
		return nil, errors.NewInternal(fmt.Errorf("session is closed"))
	}
	if !s.seeded {
		if err := s.SeedEmptyString(); err != nil {
			return nil, err
		}
	}

	rows, err := s.nodes.Count()
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"table": s.nodes.Name(), "rows": rows}).Debug("walking table")

	rw := NewRewriter(s.reps, s.strings, s.emptyRep, s.dryRun, s.log)
	walker := &Walker{Interval: s.cfg.ProgressInterval, Progress: progress}
	s.cursor = s.nodes.Cursor()

	stats := &RunStats{}
	count, err := walker.Walk(ctx, s.cursor, func(key string, node *skel.Node) error {
		if node.IsFile() {
			stats.FileNodes++
		}
		res, err := rw.Scrub(key, node)
		if err != nil {
			return err
		}
		if res.Rewritten {
			stats.Rewritten++
		}
		if res.AlreadyEmpty {
			stats.AlreadyEmpty++
		}
		stats.StringsDeleted += res.StringsDeleted
		return nil
	})
	stats.Nodes = count
	if err != nil {
		s.log.WithError(err).WithField("processed", count).Debug("walk stopped")
		return stats, err
	}
	return stats, nil
}

// Close releases the cursor and then the environment. It is safe to call
// more than once; the first error is returned.
func (s *Session) Close() error {
	var first error
	if s.cursor != nil {
		first = s.cursor.Close()
		s.cursor = nil
	}
	if s.env != nil {
		if err := s.env.Close(); err != nil && first == nil {
			first = err
		}
		s.env = nil
	}
	return first
}
