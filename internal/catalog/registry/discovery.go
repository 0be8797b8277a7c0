package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Discovery scans filesystem locations for ruleset plugin directories. A
// plugin directory is any directory containing a ruleset.json manifest.
type Discovery struct {
	// SearchPaths are the directories to scan.
	SearchPaths []string

	logger *slog.Logger
}

// NewDiscovery creates a ruleset discovery service.
func NewDiscovery(searchPaths []string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		SearchPaths: searchPaths,
		logger:      logger,
	}
}

// DiscoveredRuleset is a ruleset directory found during a scan.
type DiscoveredRuleset struct {
	// Path is the directory containing the ruleset.
	Path string

	// Manifest is the loaded manifest.
	Manifest *Manifest
}

// Discover scans every search path. Unreadable paths and invalid manifests
// are logged and skipped; the first manifest wins when two share a name.
func (d *Discovery) Discover() []DiscoveredRuleset {
	var found []DiscoveredRuleset
	seen := make(map[string]bool)

	for _, searchPath := range d.SearchPaths {
		discovered, err := d.discoverInPath(searchPath)
		if err != nil {
			d.logger.Warn("failed to search ruleset path",
				"path", searchPath,
				"error", err,
			)
			continue
		}

		for _, ruleset := range discovered {
			if seen[ruleset.Manifest.Name] {
				d.logger.Warn("duplicate ruleset name found",
					"ruleset", ruleset.Manifest.Name,
					"path", ruleset.Path,
				)
				continue
			}
			seen[ruleset.Manifest.Name] = true
			found = append(found, ruleset)
		}
	}

	d.logger.Info("ruleset discovery complete", "found", len(found))

	return found
}

// discoverInPath scans a single directory for ruleset subdirectories.
func (d *Discovery) discoverInPath(searchPath string) ([]DiscoveredRuleset, error) {
	info, err := os.Stat(searchPath)
	if os.IsNotExist(err) {
		return nil, nil // Path doesn't exist, skip silently
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", searchPath)
	}

	entries, err := os.ReadDir(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var found []DiscoveredRuleset
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		rulesetDir := filepath.Join(searchPath, entry.Name())
		manifestPath := filepath.Join(rulesetDir, DefaultManifestFilename)

		if _, err := os.Stat(manifestPath); err != nil {
			continue // No manifest, not a ruleset directory
		}

		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			d.logger.Warn("failed to load ruleset manifest",
				"path", manifestPath,
				"error", err,
			)
			continue
		}

		found = append(found, DiscoveredRuleset{
			Path:     rulesetDir,
			Manifest: manifest,
		})

		d.logger.Debug("discovered ruleset",
			"ruleset", manifest.Name,
			"path", rulesetDir,
		)
	}

	return found, nil
}

// DiscoverSingle loads the manifest from one specific ruleset directory.
func (d *Discovery) DiscoverSingle(dir string) (*DiscoveredRuleset, error) {
	manifestPath, err := FindManifestInDir(dir)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	return &DiscoveredRuleset{
		Path:     dir,
		Manifest: manifest,
	}, nil
}

// DefaultSearchPaths returns the ruleset directories scanned by default. The
// ENGAGE_RULESET_PATH environment variable, when set, is searched first.
func DefaultSearchPaths() []string {
	paths := []string{}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(home, ".engage", "rulesets"))
	}

	paths = append(paths, "/usr/local/share/engage/rulesets")

	if envPath := os.Getenv("ENGAGE_RULESET_PATH"); envPath != "" {
		paths = append([]string{envPath}, paths...)
	}

	return paths
}
