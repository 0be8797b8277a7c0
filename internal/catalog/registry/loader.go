package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/localift/engage/internal/catalog/netrpc"
	"github.com/localift/engage/internal/catalog/sdk"
)

// Loader starts external ruleset binaries using HashiCorp go-plugin and
// keeps their clients for later shutdown.
type Loader struct {
	logger  *slog.Logger
	clients map[string]*plugin.Client
}

// NewLoader creates a new ruleset loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:  logger,
		clients: make(map[string]*plugin.Client),
	}
}

// LoadOptions contains options for loading a ruleset plugin.
type LoadOptions struct {
	// Manifest describes the binary to load.
	Manifest *Manifest

	// SecureMode refuses binaries whose manifest carries no checksum. A
	// checksum that is present is always verified, secure mode or not.
	SecureMode bool
}

// Load launches a ruleset binary and returns its client-side proxy.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (sdk.Ruleset, error) {
	if opts.Manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}

	manifest := opts.Manifest
	binaryPath := manifest.BinaryAbsPath()

	// The path goes straight into exec.Command, so sanitize it first.
	sanitizedPath, err := l.validateBinaryPath(binaryPath)
	if err != nil {
		return nil, sdk.NewLoadError(binaryPath, "binary path validation failed", err)
	}

	info, err := os.Stat(sanitizedPath)
	if err != nil {
		return nil, sdk.NewLoadError(sanitizedPath, "binary not found", err)
	}
	if !info.Mode().IsRegular() {
		return nil, sdk.NewLoadError(sanitizedPath, "binary path is not a regular file", nil)
	}

	if opts.SecureMode && manifest.Checksum == "" {
		return nil, sdk.NewLoadError(sanitizedPath, "secure mode requires a checksum", nil)
	}
	if manifest.Checksum != "" {
		if err := l.verifyChecksum(sanitizedPath, manifest.Checksum); err != nil {
			return nil, sdk.NewLoadError(sanitizedPath, "checksum verification failed", err)
		}
	}

	l.logger.Info("loading ruleset plugin",
		"ruleset", manifest.Name,
		"binary", sanitizedPath,
	)

	// #nosec G204 -- binary path is validated by validateBinaryPath
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: netrpc.Handshake,
		Plugins:         netrpc.PluginMap(nil),
		Cmd:             exec.Command(sanitizedPath),
		Logger:          newHclogAdapter(l.logger),
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, sdk.NewLoadError(binaryPath, "failed to connect", err)
	}

	raw, err := rpcClient.Dispense(netrpc.PluginName)
	if err != nil {
		client.Kill()
		return nil, sdk.NewLoadError(binaryPath, "failed to dispense", err)
	}

	ruleset, ok := raw.(sdk.Ruleset)
	if !ok {
		client.Kill()
		return nil, sdk.NewLoadError(binaryPath, "plugin does not implement the Ruleset interface", nil)
	}

	// The registry keys by manifest name; a binary reporting another name is
	// suspicious but not fatal.
	if reported := ruleset.Name(); reported != "" && reported != manifest.Name {
		l.logger.Warn("ruleset name differs from manifest",
			"manifest", manifest.Name,
			"reported", reported,
		)
	}

	l.clients[manifest.Name] = client

	l.logger.Info("ruleset plugin loaded",
		"ruleset", manifest.Name,
		"version", manifest.Version,
	)

	return ruleset, nil
}

// Unload stops a ruleset plugin process.
func (l *Loader) Unload(name string) error {
	client, exists := l.clients[name]
	if !exists {
		return nil // Already unloaded
	}

	client.Kill()
	delete(l.clients, name)

	l.logger.Info("ruleset plugin unloaded", "ruleset", name)
	return nil
}

// UnloadAll stops every loaded ruleset plugin.
func (l *Loader) UnloadAll() {
	for name, client := range l.clients {
		client.Kill()
		l.logger.Info("ruleset plugin unloaded", "ruleset", name)
	}
	l.clients = make(map[string]*plugin.Client)
}

// IsLoaded checks if a ruleset plugin is currently running.
func (l *Loader) IsLoaded(name string) bool {
	_, exists := l.clients[name]
	return exists
}

// validateBinaryPath validates and sanitizes a binary path before it is
// executed. It requires an absolute path free of shell metacharacters and
// resolves symlinks to their targets.
func (l *Loader) validateBinaryPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("binary path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("binary path must be absolute: %s", path)
	}

	// Characters with shell meaning never belong in a plugin path, even
	// though exec.Command does not invoke a shell.
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r", "\\", "'", "\""}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return "", fmt.Errorf("binary path contains forbidden character %q: %s", char, path)
		}
	}

	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		// A missing file fails the later os.Stat with a clearer error.
		if os.IsNotExist(err) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve binary path: %w", err)
	}

	l.logger.Debug("binary path validated",
		"original", path,
		"resolved", resolvedPath,
	)

	return resolvedPath, nil
}

// verifyChecksum verifies the SHA256 checksum of a file. The expected value
// is "sha256:HEX" or bare hex, which assumes sha256.
func (l *Loader) verifyChecksum(path, expected string) error {
	algorithm := "sha256"
	hash := expected

	if strings.Contains(expected, ":") {
		parts := strings.SplitN(expected, ":", 2)
		algorithm = strings.ToLower(parts[0])
		hash = parts[1]
	}

	if algorithm != "sha256" {
		return fmt.Errorf("unsupported checksum algorithm: %s (only sha256 is supported)", algorithm)
	}

	// #nosec G304 -- path is validated by validateBinaryPath before this runs
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	computed := hex.EncodeToString(hasher.Sum(nil))

	if !strings.EqualFold(computed, hash) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", hash, computed)
	}

	l.logger.Debug("checksum verified",
		"path", path,
		"algorithm", algorithm,
	)

	return nil
}

// hclogAdapter bridges slog to the hclog interface go-plugin expects.
type hclogAdapter struct {
	logger *slog.Logger
	name   string
}

func newHclogAdapter(logger *slog.Logger) *hclogAdapter {
	return &hclogAdapter{logger: logger, name: "engage"}
}

func (h *hclogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Info:
		h.logger.Info(msg, args...)
	case hclog.Warn:
		h.logger.Warn(msg, args...)
	case hclog.Error:
		h.logger.Error(msg, args...)
	default:
		h.logger.Debug(msg, args...)
	}
}

func (h *hclogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, args...)
}

func (h *hclogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, args...)
}

func (h *hclogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, args...)
}

func (h *hclogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, args...)
}

func (h *hclogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, args...)
}

func (h *hclogAdapter) IsTrace() bool { return false }
func (h *hclogAdapter) IsDebug() bool { return true }
func (h *hclogAdapter) IsInfo() bool  { return true }
func (h *hclogAdapter) IsWarn() bool  { return true }
func (h *hclogAdapter) IsError() bool { return true }

func (h *hclogAdapter) ImpliedArgs() []interface{} { return nil }

func (h *hclogAdapter) With(args ...interface{}) hclog.Logger {
	return h
}

func (h *hclogAdapter) Name() string { return h.name }

func (h *hclogAdapter) Named(name string) hclog.Logger {
	return &hclogAdapter{
		logger: h.logger,
		name:   h.name + "." + name,
	}
}

func (h *hclogAdapter) ResetNamed(name string) hclog.Logger {
	return &hclogAdapter{
		logger: h.logger,
		name:   name,
	}
}

func (h *hclogAdapter) SetLevel(level hclog.Level) {}

func (h *hclogAdapter) GetLevel() hclog.Level { return hclog.Debug }

func (h *hclogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.Default()
}

func (h *hclogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return os.Stderr
}
