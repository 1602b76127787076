package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles creates every file under root, creating parent directories.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// FixturePackage describes one member of an on-disk workspace fixture.
type FixturePackage struct {
	ID string
	// Local marks packages linked from the workspace ("file:" resolved).
	Local bool
	// Deps are the ids this package depends on. A nil slice leaves the
	// dependencies member out of the listing.
	Deps []string
	// Scripts declared in the installed package.json.
	Scripts []string
}

// WriteWorkspace lays out an npm workspace fixture under a temporary root:
// listing.json in the format of `npm ls --depth 1 --json` and a package.json
// for every local package under node_modules. It returns the root and the
// listing path.
func WriteWorkspace(t *testing.T, pkgs ...FixturePackage) (string, string) {
	t.Helper()
	root := t.TempDir()

	local := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		local[p.ID] = p.Local
	}

	var listing bytes.Buffer
	listing.WriteString(`{"name": "fixture", "dependencies": {`)
	files := map[string]string{}
	for i, p := range pkgs {
		if i > 0 {
			listing.WriteString(",")
		}
		entry := map[string]any{"version": "1.0.0", "resolved": resolvedOf(p.ID, p.Local)}
		if p.Deps != nil {
			deps := map[string]any{}
			for _, d := range p.Deps {
				deps[d] = map[string]any{"version": "1.0.0", "resolved": resolvedOf(d, local[d])}
			}
			entry["dependencies"] = deps
		}
		writeJSONMember(t, &listing, p.ID, entry)

		if p.Local {
			scripts := map[string]string{}
			for _, s := range p.Scripts {
				scripts[s] = "echo " + s
			}
			manifest, err := json.Marshal(map[string]any{"name": p.ID, "scripts": scripts})
			require.NoError(t, err)
			files["node_modules/"+p.ID+"/package.json"] = string(manifest)
		}
	}
	listing.WriteString("}}")
	files["listing.json"] = listing.String()

	WriteFiles(t, root, files)
	return root, filepath.Join(root, "listing.json")
}

func resolvedOf(id string, local bool) string {
	if local {
		return "file:../packages/" + filepath.Base(id)
	}
	return "https://registry.npmjs.org/" + id + "/-/" + filepath.Base(id) + "-1.0.0.tgz"
}

func writeJSONMember(t *testing.T, buf *bytes.Buffer, key string, value any) {
	t.Helper()
	k, err := json.Marshal(key)
	require.NoError(t, err)
	v, err := json.Marshal(value)
	require.NoError(t, err)
	buf.Write(k)
	buf.WriteString(":")
	buf.Write(v)
}
