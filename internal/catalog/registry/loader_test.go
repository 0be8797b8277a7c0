package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/catalog/sdk"
)

func TestNewLoader(t *testing.T) {
	t.Run("creates loader with logger", func(t *testing.T) {
		loader := NewLoader(slog.Default())

		require.NotNil(t, loader)
		assert.NotNil(t, loader.clients)
	})

	t.Run("uses default logger when nil", func(t *testing.T) {
		loader := NewLoader(nil)

		require.NotNil(t, loader)
		assert.NotNil(t, loader.logger)
	})
}

func TestLoaderLoadPreflight(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(nil)

	t.Run("requires a manifest", func(t *testing.T) {
		_, err := loader.Load(ctx, LoadOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest is required")
	})

	t.Run("fails when the binary does not exist", func(t *testing.T) {
		manifest := &Manifest{
			Name:       "acme.local-seo",
			Version:    "1.0.0",
			BinaryPath: "/nonexistent/engage-ruleset-binary",
		}

		_, err := loader.Load(ctx, LoadOptions{Manifest: manifest})

		var loadErr *sdk.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "binary not found", loadErr.Reason)
	})

	t.Run("fails when the binary path is a directory", func(t *testing.T) {
		manifest := &Manifest{
			Name:       "acme.local-seo",
			Version:    "1.0.0",
			BinaryPath: t.TempDir(),
		}

		_, err := loader.Load(ctx, LoadOptions{Manifest: manifest})

		var loadErr *sdk.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "binary path is not a regular file", loadErr.Reason)
	})

	t.Run("secure mode requires a checksum", func(t *testing.T) {
		binary := filepath.Join(t.TempDir(), "ruleset")
		require.NoError(t, os.WriteFile(binary, []byte("fake binary"), 0o755))

		manifest := &Manifest{
			Name:       "acme.local-seo",
			Version:    "1.0.0",
			BinaryPath: binary,
		}

		_, err := loader.Load(ctx, LoadOptions{Manifest: manifest, SecureMode: true})

		var loadErr *sdk.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "secure mode requires a checksum", loadErr.Reason)
	})

	t.Run("a wrong checksum stops the launch", func(t *testing.T) {
		binary := filepath.Join(t.TempDir(), "ruleset")
		require.NoError(t, os.WriteFile(binary, []byte("fake binary"), 0o755))

		manifest := &Manifest{
			Name:       "acme.local-seo",
			Version:    "1.0.0",
			BinaryPath: binary,
			Checksum:   "sha256:" + hex.EncodeToString(sha256.New().Sum(nil)),
		}

		_, err := loader.Load(ctx, LoadOptions{Manifest: manifest})

		var loadErr *sdk.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "checksum verification failed", loadErr.Reason)
	})

	t.Run("rejects a path with shell metacharacters", func(t *testing.T) {
		manifest := &Manifest{
			Name:       "acme.local-seo",
			Version:    "1.0.0",
			BinaryPath: "/opt/rulesets/acme;rm -rf /",
		}

		_, err := loader.Load(ctx, LoadOptions{Manifest: manifest})

		var loadErr *sdk.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "binary path validation failed", loadErr.Reason)
	})
}

func TestValidateBinaryPath(t *testing.T) {
	loader := NewLoader(nil)

	t.Run("accepts a valid absolute path", func(t *testing.T) {
		binary := filepath.Join(t.TempDir(), "ruleset")
		require.NoError(t, os.WriteFile(binary, []byte("x"), 0o755))

		result, err := loader.validateBinaryPath(binary)

		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(binary)
		assert.Equal(t, expected, result)
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		_, err := loader.validateBinaryPath("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("rejects a relative path", func(t *testing.T) {
		_, err := loader.validateBinaryPath("rulesets/acme")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be absolute")
	})

	t.Run("rejects every dangerous shell character", func(t *testing.T) {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "'", "\"", "\\"}

		for _, char := range dangerousChars {
			_, err := loader.validateBinaryPath("/opt/rulesets/acme" + char + "x")

			require.Error(t, err, "character %q should be rejected", char)
			assert.Contains(t, err.Error(), "forbidden character")
		}
	})

	t.Run("cleans path traversal", func(t *testing.T) {
		dir := t.TempDir()
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		binary := filepath.Join(dir, "ruleset")
		require.NoError(t, os.WriteFile(binary, []byte("x"), 0o755))

		result, err := loader.validateBinaryPath(filepath.Join(sub, "..", "ruleset"))

		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(binary)
		assert.Equal(t, expected, result)
	})

	t.Run("returns the cleaned path for a missing file", func(t *testing.T) {
		result, err := loader.validateBinaryPath("/nonexistent/rulesets/acme")

		require.NoError(t, err)
		assert.Equal(t, "/nonexistent/rulesets/acme", result)
	})

	t.Run("resolves symlinks to their target", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "actual")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0o755))
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(target, link))

		result, err := loader.validateBinaryPath(link)

		require.NoError(t, err)
		expected, _ := filepath.EvalSymlinks(target)
		assert.Equal(t, expected, result)
	})
}

func TestVerifyChecksum(t *testing.T) {
	loader := NewLoader(nil)

	checksummedFile := func(t *testing.T, content []byte) (string, string) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, content, 0o644))
		sum := sha256.Sum256(content)
		return path, hex.EncodeToString(sum[:])
	}

	t.Run("accepts a matching checksum with prefix", func(t *testing.T) {
		path, sum := checksummedFile(t, []byte("ruleset bytes"))

		assert.NoError(t, loader.verifyChecksum(path, "sha256:"+sum))
	})

	t.Run("accepts a bare hex checksum", func(t *testing.T) {
		path, sum := checksummedFile(t, []byte("ruleset bytes"))

		assert.NoError(t, loader.verifyChecksum(path, sum))
	})

	t.Run("comparison is case insensitive", func(t *testing.T) {
		path, sum := checksummedFile(t, []byte("ruleset bytes"))

		assert.NoError(t, loader.verifyChecksum(path, "sha256:"+strings.ToUpper(sum)))
	})

	t.Run("fails on mismatch", func(t *testing.T) {
		path, _ := checksummedFile(t, []byte("ruleset bytes"))

		err := loader.verifyChecksum(path, "sha256:deadbeef")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")
	})

	t.Run("rejects unsupported algorithms", func(t *testing.T) {
		path, sum := checksummedFile(t, []byte("ruleset bytes"))

		err := loader.verifyChecksum(path, "md5:"+sum)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported checksum algorithm")
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		err := loader.verifyChecksum("/nonexistent/file", "sha256:abc")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open file")
	})
}

func TestLoaderUnload(t *testing.T) {
	t.Run("unloading an unknown ruleset is a no-op", func(t *testing.T) {
		loader := NewLoader(nil)

		assert.NoError(t, loader.Unload("unknown"))
		assert.False(t, loader.IsLoaded("unknown"))
	})

	t.Run("UnloadAll leaves an empty client set", func(t *testing.T) {
		loader := NewLoader(nil)

		loader.UnloadAll()

		assert.Empty(t, loader.clients)
	})
}

func TestHclogAdapter(t *testing.T) {
	adapter := newHclogAdapter(slog.Default())

	t.Run("carries the engage name", func(t *testing.T) {
		assert.Equal(t, "engage", adapter.Name())
	})

	t.Run("Named prefixes the name", func(t *testing.T) {
		assert.Equal(t, "engage.plugin", adapter.Named("plugin").Name())
	})

	t.Run("ResetNamed replaces the name", func(t *testing.T) {
		assert.Equal(t, "ruleset", adapter.ResetNamed("ruleset").Name())
	})

	t.Run("reports debug and above enabled", func(t *testing.T) {
		assert.False(t, adapter.IsTrace())
		assert.True(t, adapter.IsDebug())
		assert.True(t, adapter.IsInfo())
		assert.True(t, adapter.IsWarn())
		assert.True(t, adapter.IsError())
	})

	t.Run("StandardWriter writes to stderr", func(t *testing.T) {
		assert.Equal(t, os.Stderr, adapter.StandardWriter(nil))
	})
}
