package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains site layout and state directory configuration. Every path
// except SiteDir and StateDir is resolved relative to SiteDir.
type Paths struct {
	SiteDir       string `toml:"site_dir"`
	PagesDir      string `toml:"pages_dir"`
	PageExtension string `toml:"page_extension"`
	Template      string `toml:"template"`
	Entities      string `toml:"entities"`
	Canonical     string `toml:"canonical"`
	ListingPage   string `toml:"listing_page"`
	StateDir      string `toml:"state_dir"`
}

// Render contains template rendering options.
type Render struct {
	ListSeparator string `toml:"list_separator"`
}

// ListingSlot declares how to read one canonical slot value from the listing
// page. Pattern must contain the literal "{slug}" and exactly one capture
// group.
type ListingSlot struct {
	Slot    string `toml:"slot"`
	Pattern string `toml:"pattern"`
}

// Canonical selects the single authoritative source of canonical values.
type Canonical struct {
	// Source is "table" (the paths.canonical mapping file) or "listing"
	// (values extracted from paths.listing_page).
	Source       string            `toml:"source"`
	ListingSlots []ListingSlot     `toml:"listing_slots"`
	LinkShapes   map[string]string `toml:"link_shapes"`
}

// Shape is one acceptable link form for a link_shape invariant.
type Shape struct {
	Name   string `toml:"name"`
	Prefix string `toml:"prefix"`
}

// Invariant is one declared rule. Which fields apply depends on Kind:
//   - required_token: Token
//   - minimum_count: Marker, Count
//   - cross_artifact_equality: Slot, Pattern
//   - link_shape: Pattern, Shapes
type Invariant struct {
	Name    string  `toml:"name"`
	Kind    string  `toml:"kind"`
	Token   string  `toml:"token"`
	Marker  string  `toml:"marker"`
	Count   int     `toml:"count"`
	Slot    string  `toml:"slot"`
	Pattern string  `toml:"pattern"`
	Shapes  []Shape `toml:"shapes"`
}

// Notifications contains configuration for run summary hand-off.
type Notifications struct {
	Sink        string `toml:"sink"`
	Destination string `toml:"destination"`
	OutboxDir   string `toml:"outbox_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Tasks controls the authoring task store.
type Tasks struct {
	Enabled bool `toml:"enabled"`
}

// Audit controls JSON snapshots of each check run.
type Audit struct {
	Enabled bool `toml:"enabled"`
}

// Invariant kinds.
const (
	KindRequiredToken         = "required_token"
	KindMinimumCount          = "minimum_count"
	KindCrossArtifactEquality = "cross_artifact_equality"
	KindLinkShape             = "link_shape"
)

// Canonical sources.
const (
	SourceTable   = "table"
	SourceListing = "listing"
)

// Notification sinks.
const (
	SinkNone  = "none"
	SinkFile  = "file"
	SinkQueue = "queue"
)

// Config encapsulates all configuration values for sitedrift.
//
// Configuration sections by subsystem:
//   - Paths: site layout, template, data files, and state directory
//   - Render: list joining for template substitution
//   - Canonical: the one authoritative source of slot values
//   - Invariants: the versioned list of rules every page must satisfy
//   - Notifications: where run summaries are handed off
//   - Logging: log format and level
//   - Tasks: authoring task tracking
//   - Audit: per-run JSON snapshots
type Config struct {
	InvariantsVersion int           `toml:"invariants_version"`
	Paths             Paths         `toml:"paths"`
	Render            Render        `toml:"render"`
	Canonical         Canonical     `toml:"canonical"`
	Notifications     Notifications `toml:"notifications"`
	Logging           Logging       `toml:"logging"`
	Tasks             Tasks         `toml:"tasks"`
	Audit             Audit         `toml:"audit"`
	Invariants        []Invariant   `toml:"invariants"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sitedrift/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sitedrift.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and outbox directories. The site
// directories are never created here; a missing pages directory is a
// preflight failure, not something to paper over.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir}
	if c.Notifications.Sink == SinkFile {
		dirs = append(dirs, c.Notifications.OutboxDir)
	}
	if c.Audit.Enabled {
		dirs = append(dirs, c.AuditDir())
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database holding tasks, outbox rows, and
// artifact provenance.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.StateDir, "sitedrift.db")
}

// LockPath returns the run lock file guarding against overlapping runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sitedrift.lock")
}

// LogPath returns the persistent log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "sitedrift.log")
}

// AuditDir returns the directory receiving per-run JSON snapshots.
func (c *Config) AuditDir() string {
	return filepath.Join(c.Paths.StateDir, "audit")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// resolveSitePath expands pathValue, anchoring relative paths at base.
func resolveSitePath(base, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) {
		return expandPath(pathValue)
	}
	return expandPath(filepath.Join(base, pathValue))
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}
