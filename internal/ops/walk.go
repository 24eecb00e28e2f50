package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/textwipe/internal/db"
	"github.com/hpungsan/textwipe/internal/skel"
)

// DefaultProgressInterval is the number of nodes between progress reports.
const DefaultProgressInterval = 10000

// ProgressFunc receives the running node count.
type ProgressFunc func(count int)

// VisitFunc is called for every node record in the nodes table.
type VisitFunc func(key string, node *skel.Node) error

// Walker drives a cursor over the nodes table.
type Walker struct {
	Interval int
	Progress ProgressFunc
}

// Walk visits every node reachable from cur in key order and returns how
// many were processed. The NextKey counter row is skipped and not counted.
// Progress is reported before the next node once the count reaches a
// multiple of the interval, so the last node never triggers a report.
// A record that does not decode as a node stops the walk. ctx is checked
// between records.
func (w *Walker) Walk(ctx context.Context, cur *db.Cursor, visit VisitFunc) (int, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	count := 0
	ok, err := cur.First()
	for ; ok && err == nil; ok, err = cur.Next() {
		if cerr := ctx.Err(); cerr != nil {
			return count, cerr
		}
		key := cur.Key()
		if key == db.NextKey {
			continue
		}
		if count != 0 && count%interval == 0 && w.Progress != nil {
			w.Progress(count)
		}
		node, derr := skel.DecodeNode(cur.Value())
		if derr != nil {
			return count, fmt.Errorf("node %s: %w", key, derr)
		}
		if verr := visit(key, node); verr != nil {
			return count, verr
		}
		count++
	}
	if err != nil {
		return count, err
	}
	return count, nil
}
