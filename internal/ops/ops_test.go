package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/textwipe/internal/config"
	"github.com/hpungsan/textwipe/internal/db"
	"github.com/hpungsan/textwipe/internal/skel"
)

// newTestRepo creates an empty repository under t.TempDir() and returns the
// repository root and its store home.
func newTestRepo(t *testing.T) (repo, home string) {
	t.Helper()
	repo = t.TempDir()
	home = filepath.Join(repo, "db")
	if err := db.Create(home); err != nil {
		t.Fatalf("db.Create failed: %v", err)
	}
	return repo, home
}

// testConfig returns a default config for testing.
func testConfig() *config.Config {
	return config.DefaultConfig()
}

// withEnv opens home, runs fn, and closes the environment again so that the
// table files are checkpointed before the test inspects them.
func withEnv(t *testing.T, home string, fn func(env *db.Env)) {
	t.Helper()
	env, err := db.Open(home, db.Options{})
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	defer env.Close()
	fn(env)
}

func putNode(t *testing.T, env *db.Env, key string, n *skel.Node) {
	t.Helper()
	if err := env.Table(db.Nodes).Put(key, n.Encode()); err != nil {
		t.Fatalf("put node %s: %v", key, err)
	}
}

func putRep(t *testing.T, env *db.Env, key string, rep skel.Representation) {
	t.Helper()
	if err := env.Table(db.Representations).Put(key, skel.EncodeRepresentation(rep)); err != nil {
		t.Fatalf("put rep %s: %v", key, err)
	}
}

func putString(t *testing.T, env *db.Env, key, value string) {
	t.Helper()
	if err := env.Table(db.Strings).Put(key, []byte(value)); err != nil {
		t.Fatalf("put string %s: %v", key, err)
	}
}

// deltaRep builds a delta representation with one window per string key.
func deltaRep(base string, stringKeys ...string) *skel.Delta {
	d := &skel.Delta{}
	var offset uint64
	for _, k := range stringKeys {
		d.Windows = append(d.Windows, skel.Window{
			Offset:    offset,
			Version:   1,
			StringKey: k,
			Size:      100,
			RepKey:    base,
		})
		offset += 100
	}
	return d
}

// dumpTable returns every row of a table keyed by row key.
func dumpTable(t *testing.T, env *db.Env, name string) map[string]string {
	t.Helper()
	rows := make(map[string]string)
	cur := env.Table(name).Cursor()
	defer cur.Close()
	ok, err := cur.First()
	for ; ok && err == nil; ok, err = cur.Next() {
		rows[cur.Key()] = string(cur.Value())
	}
	if err != nil {
		t.Fatalf("dump %s: %v", name, err)
	}
	return rows
}

// snapshotFiles reads every table file under home.
func snapshotFiles(t *testing.T, home string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	entries, err := os.ReadDir(home)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(home, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		files[e.Name()] = data
	}
	return files
}
