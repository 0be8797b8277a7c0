package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localift/engage/internal/catalog/netrpc"
)

// DefaultManifestFilename is the filename external rulesets are described by.
const DefaultManifestFilename = "ruleset.json"

// Manifest describes an external ruleset binary. It is loaded from a
// ruleset.json file next to the binary.
type Manifest struct {
	// Name is the unique ruleset name used for registry lookup and config
	// selection (e.g. "acme.local-seo").
	Name string `json:"name"`

	// Version is the ruleset's semantic version.
	Version string `json:"version"`

	// BinaryPath is the plugin binary, absolute or relative to the manifest.
	BinaryPath string `json:"binary_path"`

	// Checksum is the expected SHA256 of the binary, as "sha256:HEX" or bare
	// hex. When present the loader refuses a binary that does not match.
	Checksum string `json:"checksum,omitempty"`

	// Protocol is the plugin protocol version the binary speaks. Zero means
	// unspecified and is accepted; any other value must match the host.
	Protocol int `json:"protocol,omitempty"`

	// Author is the author or organization.
	Author string `json:"author,omitempty"`

	// Description describes what the ruleset proposes and for whom.
	Description string `json:"description,omitempty"`

	// Homepage is a URL to documentation or the project page.
	Homepage string `json:"homepage,omitempty"`

	// dir is the directory the manifest was loaded from.
	dir string
}

// LoadManifest loads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- manifests come from operator-configured plugin directories
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	manifest.dir = filepath.Dir(path)

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &manifest, nil
}

// Validate checks the manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if m.BinaryPath == "" {
		return fmt.Errorf("binary_path is required")
	}
	if m.Protocol != 0 && m.Protocol != int(netrpc.Handshake.ProtocolVersion) {
		return fmt.Errorf("ruleset speaks protocol %d, host speaks %d",
			m.Protocol, netrpc.Handshake.ProtocolVersion)
	}
	return nil
}

// BinaryAbsPath returns the absolute path to the ruleset binary.
func (m *Manifest) BinaryAbsPath() string {
	if filepath.IsAbs(m.BinaryPath) {
		return m.BinaryPath
	}
	return filepath.Join(m.dir, m.BinaryPath)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}

// SaveManifest writes a manifest file in the format LoadManifest reads.
func SaveManifest(path string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- manifests are not secrets
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// FindManifestInDir locates the manifest file in a ruleset directory.
func FindManifestInDir(dir string) (string, error) {
	path := filepath.Join(dir, DefaultManifestFilename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("manifest not found in %s: %w", dir, err)
	}
	return path, nil
}
