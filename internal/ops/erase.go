package ops

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/textwipe/internal/config"
	"github.com/hpungsan/textwipe/internal/errors"
	"github.com/hpungsan/textwipe/internal/logging"
)

// ConfirmPhrase is what the operator must type to allow an erase.
const ConfirmPhrase = "YESERASE"

// CancelledMessage is reported when the confirmation did not match.
const CancelledMessage = "Cancelled - confirmation string not matched"

// EraseInput contains parameters for the Erase operation.
type EraseInput struct {
	RepoPath  string
	Confirmed bool // the operator typed ConfirmPhrase; ignored for dry runs
	DryRun    bool
	Progress  ProgressFunc
	Logger    logrus.FieldLogger
}

// EraseOutput contains the result of the Erase operation.
type EraseOutput struct {
	RunID     string `json:"run_id,omitempty"`
	Cancelled bool   `json:"cancelled"`
	DryRun    bool   `json:"dry_run"`
	RunStats
	Message string `json:"message"`
}

// Erase empties the content of every file node in the repository at
// input.RepoPath. Nothing is opened unless the repository validates and the
// run is confirmed (or is a dry run). The session is closed on every path.
func Erase(ctx context.Context, cfg *config.Config, input EraseInput) (out *EraseOutput, err error) {
	home, err := ValidateRepository(input.RepoPath, cfg)
	if err != nil {
		return nil, err
	}

	if !input.Confirmed && !input.DryRun {
		return &EraseOutput{Cancelled: true, Message: CancelledMessage}, nil
	}

	runID, err := newRunID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	log := input.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithFields(logrus.Fields{"run_id": runID, "dry_run": input.DryRun})

	sess, err := OpenSession(home, cfg, SessionOptions{DryRun: input.DryRun, Logger: log})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close store environment")
			if err == nil {
				out, err = nil, cerr
			}
		}
	}()

	if err := sess.SeedEmptyString(); err != nil {
		return nil, err
	}

	stats, err := sess.Run(ctx, input.Progress)
	if err != nil {
		return nil, err
	}

	out = &EraseOutput{
		RunID:    runID,
		DryRun:   input.DryRun,
		RunStats: *stats,
		Message:  formatEraseMessage(stats, input.DryRun),
	}
	log.WithFields(logrus.Fields{
		"nodes":           stats.Nodes,
		"file_nodes":      stats.FileNodes,
		"strings_deleted": stats.StringsDeleted,
	}).Debug("run complete")
	return out, nil
}

// formatEraseMessage creates a human-readable summary of a run.
func formatEraseMessage(stats *RunStats, dryRun bool) string {
	if dryRun {
		return fmt.Sprintf("Would erase %d of %d file nodes (%d strings)",
			stats.Rewritten, stats.FileNodes, stats.StringsDeleted)
	}
	return fmt.Sprintf("Erased %d of %d file nodes (%d strings deleted, %d already empty)",
		stats.Rewritten, stats.FileNodes, stats.StringsDeleted, stats.AlreadyEmpty)
}

func newRunID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
