package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sitedrift/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	site := t.TempDir()
	t.Setenv("SITEDRIFT_SITE_DIR", site)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.SiteDir != site {
		t.Fatalf("unexpected site dir: got %q want %q", cfg.Paths.SiteDir, site)
	}
	if want := filepath.Join(site, "cities"); cfg.Paths.PagesDir != want {
		t.Fatalf("unexpected pages dir: got %q want %q", cfg.Paths.PagesDir, want)
	}
	if want := filepath.Join(site, "templates", "city.html"); cfg.Paths.Template != want {
		t.Fatalf("unexpected template path: got %q want %q", cfg.Paths.Template, want)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "sitedrift")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Notifications.OutboxDir != filepath.Join(wantState, "outbox") {
		t.Fatalf("unexpected outbox dir: %q", cfg.Notifications.OutboxDir)
	}
	if cfg.Render.ListSeparator != ", " {
		t.Fatalf("unexpected list separator: %q", cfg.Render.ListSeparator)
	}
	if cfg.Canonical.Source != config.SourceTable {
		t.Fatalf("expected table canonical source, got %q", cfg.Canonical.Source)
	}
	if len(cfg.Invariants) != 0 {
		t.Fatalf("expected no default invariants, got %d", len(cfg.Invariants))
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Notifications.OutboxDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sitedrift.toml")

	type payload struct {
		Paths struct {
			SiteDir  string `toml:"site_dir"`
			PagesDir string `toml:"pages_dir"`
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Notifications struct {
			Sink string `toml:"sink"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.Paths.SiteDir = tempDir
	custom.Paths.PagesDir = "pages"
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Notifications.Sink = "QUEUE"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.PagesDir != filepath.Join(tempDir, "pages") {
		t.Fatalf("unexpected pages dir: %q", cfg.Paths.PagesDir)
	}
	if cfg.Notifications.Sink != config.SinkQueue {
		t.Fatalf("expected sink to be normalized to queue, got %q", cfg.Notifications.Sink)
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := config.CreateSample(configPath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", tempDir)

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if len(cfg.Invariants) != 6 {
		t.Fatalf("expected 6 sample invariants, got %d", len(cfg.Invariants))
	}
	last := cfg.Invariants[len(cfg.Invariants)-1]
	if last.Kind != config.KindLinkShape || len(last.Shapes) != 2 {
		t.Fatalf("unexpected link shape invariant: %#v", last)
	}
	if last.Shapes[0].Name != "relative" || last.Shapes[0].Prefix != "../" {
		t.Fatalf("unexpected first shape: %#v", last.Shapes[0])
	}
}

func TestValidateRejectsBadInvariants(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.SiteDir = "/site"
		cfg.Paths.PagesDir = "/site/cities"
		cfg.Paths.Template = "/site/t.html"
		cfg.Paths.Entities = "/site/e.json"
		cfg.Paths.Canonical = "/site/c.json"
		cfg.Paths.StateDir = "/state"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name: "unknown kind",
			mutate: func(c *config.Config) {
				c.Invariants = []config.Invariant{{Name: "x", Kind: "regex_magic"}}
			},
			wantErr: "unknown kind",
		},
		{
			name: "duplicate names",
			mutate: func(c *config.Config) {
				c.Invariants = []config.Invariant{
					{Name: "dup", Kind: config.KindRequiredToken, Token: "a"},
					{Name: "dup", Kind: config.KindRequiredToken, Token: "b"},
				}
			},
			wantErr: "declared twice",
		},
		{
			name: "minimum count without count",
			mutate: func(c *config.Config) {
				c.Invariants = []config.Invariant{{Name: "gallery", Kind: config.KindMinimumCount, Marker: "<img"}}
			},
			wantErr: "count must be positive",
		},
		{
			name: "equality pattern without group",
			mutate: func(c *config.Config) {
				c.Invariants = []config.Invariant{{Name: "hero", Kind: config.KindCrossArtifactEquality, Slot: "hero", Pattern: "url\\('[^']+'\\)"}}
			},
			wantErr: "exactly one capture group",
		},
		{
			name: "link shape unknown canonical shape",
			mutate: func(c *config.Config) {
				c.Canonical.Source = config.SourceListing
				c.Canonical.ListingSlots = []config.ListingSlot{{Slot: "hero", Pattern: `data-city="{slug}" src="([^"]+)"`}}
				c.Canonical.LinkShapes = map[string]string{"home": "sideways"}
				c.Invariants = []config.Invariant{{
					Name:    "home",
					Kind:    config.KindLinkShape,
					Pattern: `href="([^"]*index\.html)"`,
					Shapes:  []config.Shape{{Name: "relative", Prefix: "../"}},
				}}
			},
			wantErr: "unknown shape",
		},
		{
			name: "table source with listing slots",
			mutate: func(c *config.Config) {
				c.Canonical.ListingSlots = []config.ListingSlot{{Slot: "hero", Pattern: "{slug}(x)"}}
			},
			wantErr: "only apply when canonical.source",
		},
		{
			name: "bad sink",
			mutate: func(c *config.Config) {
				c.Notifications.Sink = "smoke-signal"
			},
			wantErr: "notifications.sink",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("unexpected error: got %q want substring %q", err, tc.wantErr)
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}
}
