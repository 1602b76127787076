package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = `{
  "name": "monorepo",
  "dependencies": {
    "@scope/viewer": {
      "version": "1.0.0",
      "resolved": "file:../packages/viewer",
      "dependencies": {
        "@scope/core": {"version": "1.0.0"},
        "react": {"version": "18.0.0", "resolved": "https://registry.npmjs.org/react/-/react-18.0.0.tgz"}
      }
    },
    "@scope/core": {
      "version": "1.0.0",
      "resolved": "file:../packages/core",
      "dependencies": {
        "lodash": {"version": "4.17.21"}
      }
    },
    "lodash": {
      "version": "4.17.21",
      "resolved": "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"
    },
    "@scope/docs": {
      "version": "1.0.0",
      "resolved": "file:../packages/docs"
    }
  }
}`

func mustGraph(t *testing.T, pkgs ...*Package) *Graph {
	t.Helper()
	g, err := NewGraph(pkgs...)
	require.NoError(t, err)
	return g
}

func local(id string, deps ...string) *Package {
	p := &Package{ID: id, Resolution: Local, DeclaresDependencies: true, Dependencies: map[string]Resolution{}}
	for _, d := range deps {
		p.Dependencies[d] = Local
	}
	return p
}

func TestResolutionFromLocation(t *testing.T) {
	assert.Equal(t, Local, ResolutionFromLocation("file:../packages/a"))
	assert.Equal(t, External, ResolutionFromLocation("https://registry.npmjs.org/a.tgz"))
	assert.Equal(t, External, ResolutionFromLocation(""))
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "external", External.String())
}

func TestNewGraph(t *testing.T) {
	t.Run("keeps discovery order", func(t *testing.T) {
		g := mustGraph(t, local("c"), local("a"), &Package{ID: "x", Resolution: External})
		assert.Equal(t, []string{"c", "a", "x"}, g.IDs())
		assert.Equal(t, []string{"c", "a"}, g.Local())
		assert.Equal(t, []string{"x"}, g.External())
		assert.Equal(t, 1, g.Position("a"))
		assert.Equal(t, -1, g.Position("missing"))
		assert.Equal(t, 3, g.Len())
	})

	t.Run("snapshot is isolated from its input", func(t *testing.T) {
		p := local("a", "b")
		g := mustGraph(t, p)
		p.Dependencies["c"] = Local
		got, ok := g.Get("a")
		require.True(t, ok)
		assert.NotContains(t, got.Dependencies, "c")
	})

	t.Run("answers script lookups from the snapshot", func(t *testing.T) {
		p := local("a")
		p.Scripts = map[string]bool{"build": true}
		g := mustGraph(t, p)

		for id, want := range map[string]bool{"a": true, "missing": false} {
			got, err := g.HasScript(context.Background(), id, "build")
			require.NoError(t, err)
			assert.Equal(t, want, got, id)
		}
	})

	t.Run("error cases", func(t *testing.T) {
		_, err := NewGraph(local("a"), local("a"))
		assert.ErrorContains(t, err, `duplicate package "a"`)

		_, err = NewGraph(&Package{})
		assert.ErrorContains(t, err, "empty id")
	})
}

func TestSelectScope(t *testing.T) {
	g := mustGraph(t,
		local("@scope/a"),
		local("@scope/b"),
		&Package{ID: "lodash", Resolution: External},
		local("@scope/c"),
	)

	t.Run("empty allow-list selects local packages", func(t *testing.T) {
		scope, unmatched := SelectScope(g, nil, "@scope/")
		assert.Equal(t, []string{"@scope/a", "@scope/b", "@scope/c"}, scope.IDs())
		assert.Empty(t, unmatched)
	})

	t.Run("allow-list is qualified and kept in discovery order", func(t *testing.T) {
		scope, unmatched := SelectScope(g, ParseAllowList("c, @scope/a,nope,"), "@scope/")
		assert.Equal(t, []string{"@scope/a", "@scope/c"}, scope.IDs())
		assert.True(t, scope.Has("@scope/c"))
		assert.False(t, scope.Has("@scope/b"))
		assert.Equal(t, []string{"nope"}, unmatched)
		assert.Equal(t, 2, scope.Len())
	})
}

func TestParseAllowList(t *testing.T) {
	assert.Nil(t, ParseAllowList(""))
	assert.Equal(t, []string{"a", "b"}, ParseAllowList(" a ,, b"))
}

func TestDecodeListing(t *testing.T) {
	pkgs, err := DecodeListing(strings.NewReader(sampleListing))
	require.NoError(t, err)

	ids := make([]string, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"@scope/viewer", "@scope/core", "lodash", "@scope/docs"}, ids)

	viewer := pkgs[0]
	assert.Equal(t, Local, viewer.Resolution)
	assert.True(t, viewer.DeclaresDependencies)
	if diff := cmp.Diff(map[string]Resolution{"@scope/core": Local, "react": External}, viewer.Dependencies); diff != "" {
		t.Errorf("viewer dependencies mismatch (-want +got):\n%s", diff)
	}

	core := pkgs[1]
	assert.Equal(t, map[string]Resolution{"lodash": External}, core.Dependencies)
	assert.Equal(t, External, pkgs[2].Resolution)

	docs := pkgs[3]
	assert.False(t, docs.DeclaresDependencies)
	assert.Nil(t, docs.Dependencies)
}

func TestDecodeListing_Errors(t *testing.T) {
	_, err := DecodeListing(strings.NewReader(`{"dependencies": [1, 2]}`))
	assert.ErrorContains(t, err, "expected an object of dependencies")

	pkgs, err := DecodeListing(strings.NewReader(`{"name": "empty"}`))
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

type fakeRunner struct {
	out     string
	err     error
	command string
}

func (f *fakeRunner) Output(_ context.Context, command string) ([]byte, error) {
	f.command = command
	return []byte(f.out), f.err
}

func writeManifest(t *testing.T, root, id, body string) {
	t.Helper()
	dir := filepath.Join(root, "node_modules", filepath.FromSlash(id))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0o600))
}

func TestNPMLoader(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	root := t.TempDir()
	writeManifest(t, root, "@scope/viewer", `{"scripts": {"build": "tsc", "test": "jest"}}`)
	writeManifest(t, root, "@scope/core", `{"name": "@scope/core"}`)

	t.Run("runs the package manager listing", func(t *testing.T) {
		runner := &fakeRunner{out: sampleListing}
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: root, PackageManager: "pnpm"}, runner)
		require.NoError(t, err)

		g, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pnpm ls --depth 1 --json", runner.command)

		assert.Equal(t, 4, g.Len())

		for _, tc := range []struct {
			id, script string
			want       bool
		}{
			{"@scope/viewer", "build", true},
			{"@scope/viewer", "test", true},
			{"@scope/core", "build", false},
			{"@scope/docs", "build", false}, // no manifest installed
		} {
			got, err := loader.HasScript(ctx, tc.id, tc.script)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "%s %s", tc.id, tc.script)
		}
	})

	t.Run("tolerates a failing listing with output", func(t *testing.T) {
		runner := &fakeRunner{out: sampleListing, err: &executor.ExitError{Command: "npm ls", Code: 1}}
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: root}, runner)
		require.NoError(t, err)
		g, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, g.Len())
	})

	t.Run("fails without output", func(t *testing.T) {
		runner := &fakeRunner{err: &executor.ExitError{Command: "npm ls", Code: 1}}
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: root}, runner)
		require.NoError(t, err)
		_, err = loader.Load(ctx)
		assert.ErrorContains(t, err, "failed to list workspace packages")
	})

	t.Run("reads a listing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "listing.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleListing), 0o600))
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: root, ListingFile: path}, nil)
		require.NoError(t, err)
		g, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"@scope/viewer", "@scope/core", "@scope/docs"}, g.Local())
	})

	t.Run("rejects a broken manifest", func(t *testing.T) {
		broken := t.TempDir()
		writeManifest(t, broken, "@scope/viewer", `{"scripts": `)
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: broken}, &fakeRunner{out: sampleListing})
		require.NoError(t, err)
		_, err = loader.Load(ctx)
		require.NoError(t, err, "manifests are read on demand")
		_, err = loader.HasScript(ctx, "@scope/viewer", "build")
		assert.ErrorContains(t, err, "failed to decode manifest of @scope/viewer")
	})

	t.Run("caches manifests", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "a", `{"scripts": {"build": "tsc"}}`)
		writeManifest(t, dir, "b", `{"scripts": {}}`)
		loader, err := NewNPMLoader(NPMLoaderOptions{Root: dir, CacheSize: 1}, &fakeRunner{})
		require.NoError(t, err)

		got, err := loader.HasScript(ctx, "a", "build")
		require.NoError(t, err)
		require.True(t, got)

		// A cached manifest is not read again.
		writeManifest(t, dir, "a", `{"scripts": {}}`)
		got, err = loader.HasScript(ctx, "a", "build")
		require.NoError(t, err)
		assert.True(t, got)

		// Reading b evicts a, so the next lookup sees the file on disk.
		_, err = loader.HasScript(ctx, "b", "build")
		require.NoError(t, err)
		assert.Equal(t, 1, loader.manifests.Len())
		got, err = loader.HasScript(ctx, "a", "build")
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("needs a source", func(t *testing.T) {
		_, err := NewNPMLoader(NPMLoaderOptions{}, nil)
		assert.Error(t, err)
	})
}

func TestStaticLoader(t *testing.T) {
	g := mustGraph(t, local("a"))
	got, err := (&StaticLoader{Graph: g}).Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, g, got)

	_, err = (&StaticLoader{}).Load(context.Background())
	assert.Error(t, err)
}

func TestCycles(t *testing.T) {
	g := mustGraph(t,
		local("a", "b"),
		local("b", "a"),
		local("c", "c"),
		local("d", "a"),
		local("e", "f"),
		local("f", "g"),
		local("g", "e"),
	)

	cycles := Cycles(g, []string{"a", "b", "c", "d", "e", "f", "g"})
	expected := [][]string{{"a", "b"}, {"c"}, {"e", "f", "g"}}
	if diff := cmp.Diff(expected, cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, Cycles(g, []string{"d"}), "edges leaving the id set are ignored")
}
