package ops

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/textwipe/internal/db"
	"github.com/hpungsan/textwipe/internal/errors"
	"github.com/hpungsan/textwipe/internal/skel"
)

// EmptyStringKey is the strings-table key of the shared zero-length payload
// every scrubbed representation points at.
const EmptyStringKey = "empty"

// EmptyFulltext returns the encoded canonical empty representation:
// a fulltext record whose string key is EmptyStringKey.
func EmptyFulltext() []byte {
	return skel.EncodeRepresentation(&skel.Fulltext{StringKey: EmptyStringKey})
}

// ScrubResult describes what Scrub did (or, in dry-run mode, would do) to
// one node.
type ScrubResult struct {
	// Rewritten is set when the representation was replaced.
	Rewritten bool
	// AlreadyEmpty is set when the representation was already the canonical
	// empty record.
	AlreadyEmpty bool
	// StringsDeleted counts payloads removed from the strings table.
	StringsDeleted int
}

// Rewriter replaces the content representation of file nodes with the
// canonical empty record and removes the payloads it used to reference.
type Rewriter struct {
	reps     *db.Table
	strings  *StringStore
	emptyRep []byte
	dryRun   bool
	log      logrus.FieldLogger

	// counted holds the string keys a dry run has already reported, so a
	// payload shared by several reps is counted once, as a real run would.
	counted map[string]bool
}

// NewRewriter returns a Rewriter over the given tables. emptyRep is the
// encoded canonical record, computed once per run by the caller.
func NewRewriter(reps *db.Table, strings *StringStore, emptyRep []byte, dryRun bool, log logrus.FieldLogger) *Rewriter {
	return &Rewriter{
		reps:     reps,
		strings:  strings,
		emptyRep: emptyRep,
		dryRun:   dryRun,
		log:      log,
		counted:  make(map[string]bool),
	}
}

// Scrub empties the content of one node. Directories and nodes without a
// content key are left alone. A content key that does not resolve is an
// ErrMissingRepresentation error.
//
// The representation is rewritten before its old payloads are deleted, so
// an interrupted run never leaves this node pointing at a deleted string.
// Scrubbing an already scrubbed node changes nothing.
func (r *Rewriter) Scrub(nodeKey string, node *skel.Node) (ScrubResult, error) {
	var res ScrubResult
	if !node.IsFile() || node.DataKey == "" {
		return res, nil
	}

	raw, ok, err := r.reps.Get(node.DataKey)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, errors.NewMissingRepresentation(nodeKey, node.DataKey)
	}
	rep, err := skel.DecodeRepresentation(raw)
	if err != nil {
		return res, fmt.Errorf("representation %s of node %s: %w", node.DataKey, nodeKey, err)
	}

	keys := payloadKeys(rep)
	res.AlreadyEmpty = bytes.Equal(raw, r.emptyRep)

	if r.dryRun {
		res.Rewritten = !res.AlreadyEmpty
		for _, k := range keys {
			if r.counted[k] {
				continue
			}
			present, err := r.strings.Exists(k)
			if err != nil {
				return res, err
			}
			if present {
				r.counted[k] = true
				res.StringsDeleted++
			}
		}
		return res, nil
	}

	if !res.AlreadyEmpty {
		if err := r.reps.Put(node.DataKey, r.emptyRep); err != nil {
			return res, err
		}
		res.Rewritten = true
	}
	for _, k := range keys {
		removed, err := r.strings.EnsureAbsent(k)
		if err != nil {
			return res, err
		}
		if removed {
			res.StringsDeleted++
		}
	}

	r.log.WithFields(logrus.Fields{
		"node":    nodeKey,
		"rep":     node.DataKey,
		"kind":    rep.Kind(),
		"strings": res.StringsDeleted,
	}).Debug("scrubbed node")
	return res, nil
}

// payloadKeys returns the distinct string keys rep references, leaving out
// the shared empty payload.
func payloadKeys(rep skel.Representation) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range rep.StringKeys() {
		if k == EmptyStringKey || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
