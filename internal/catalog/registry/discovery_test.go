package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRulesetDir(t *testing.T, root, dirName, manifest string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeManifestFile(t, dir, manifest)
	return dir
}

func TestDiscover(t *testing.T) {
	t.Run("finds every ruleset directory in a search path", func(t *testing.T) {
		root := t.TempDir()
		writeRulesetDir(t, root, "acme", `{"name": "acme.local-seo", "version": "1.0.0", "binary_path": "acme"}`)
		writeRulesetDir(t, root, "globex", `{"name": "globex.reviews", "version": "0.3.0", "binary_path": "globex"}`)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-ruleset"), 0o755))

		found := NewDiscovery([]string{root}, nil).Discover()

		require.Len(t, found, 2)
		names := []string{found[0].Manifest.Name, found[1].Manifest.Name}
		assert.ElementsMatch(t, []string{"acme.local-seo", "globex.reviews"}, names)
	})

	t.Run("skips directories with invalid manifests", func(t *testing.T) {
		root := t.TempDir()
		writeRulesetDir(t, root, "good", `{"name": "acme.local-seo", "version": "1.0.0", "binary_path": "acme"}`)
		writeRulesetDir(t, root, "bad", `{"name": "missing-everything-else"}`)

		found := NewDiscovery([]string{root}, nil).Discover()

		require.Len(t, found, 1)
		assert.Equal(t, "acme.local-seo", found[0].Manifest.Name)
	})

	t.Run("first manifest wins on duplicate names", func(t *testing.T) {
		first := t.TempDir()
		second := t.TempDir()
		writeRulesetDir(t, first, "acme", `{"name": "acme.local-seo", "version": "1.0.0", "binary_path": "acme"}`)
		writeRulesetDir(t, second, "acme", `{"name": "acme.local-seo", "version": "2.0.0", "binary_path": "acme"}`)

		found := NewDiscovery([]string{first, second}, nil).Discover()

		require.Len(t, found, 1)
		assert.Equal(t, "1.0.0", found[0].Manifest.Version)
	})

	t.Run("ignores search paths that do not exist", func(t *testing.T) {
		root := t.TempDir()
		writeRulesetDir(t, root, "acme", `{"name": "acme.local-seo", "version": "1.0.0", "binary_path": "acme"}`)

		found := NewDiscovery([]string{"/nonexistent/rulesets", root}, nil).Discover()

		require.Len(t, found, 1)
	})

	t.Run("ignores search paths that are files", func(t *testing.T) {
		root := t.TempDir()
		filePath := filepath.Join(root, "not-a-dir")
		require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

		found := NewDiscovery([]string{filePath}, nil).Discover()

		assert.Empty(t, found)
	})
}

func TestDiscoverSingle(t *testing.T) {
	t.Run("loads one ruleset directory", func(t *testing.T) {
		root := t.TempDir()
		dir := writeRulesetDir(t, root, "acme", `{"name": "acme.local-seo", "version": "1.0.0", "binary_path": "acme"}`)

		discovered, err := NewDiscovery(nil, nil).DiscoverSingle(dir)

		require.NoError(t, err)
		assert.Equal(t, dir, discovered.Path)
		assert.Equal(t, "acme.local-seo", discovered.Manifest.Name)
	})

	t.Run("fails when the directory has no manifest", func(t *testing.T) {
		_, err := NewDiscovery(nil, nil).DiscoverSingle(t.TempDir())

		require.Error(t, err)
	})
}

func TestDefaultSearchPaths(t *testing.T) {
	t.Run("env override comes first", func(t *testing.T) {
		t.Setenv("ENGAGE_RULESET_PATH", "/opt/custom/rulesets")

		paths := DefaultSearchPaths()

		require.NotEmpty(t, paths)
		assert.Equal(t, "/opt/custom/rulesets", paths[0])
	})

	t.Run("includes the system-wide directory", func(t *testing.T) {
		t.Setenv("ENGAGE_RULESET_PATH", "")

		paths := DefaultSearchPaths()

		assert.Contains(t, paths, "/usr/local/share/engage/rulesets")
	})
}
