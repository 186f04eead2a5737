package testsupport

import (
	"path/filepath"
	"testing"

	"sitedrift/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The site lives under <base>/site and state under <base>/state; the city
// invariant set is declared and notifications go to the file sink.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	site := filepath.Join(base, "site")
	state := filepath.Join(base, "state")

	cfgVal := config.Default()
	cfgVal.Paths.SiteDir = site
	cfgVal.Paths.PagesDir = filepath.Join(site, "cities")
	cfgVal.Paths.Template = filepath.Join(site, "templates", "city.html")
	cfgVal.Paths.Entities = filepath.Join(site, "data", "cities.json")
	cfgVal.Paths.Canonical = filepath.Join(site, "data", "canonical.json")
	cfgVal.Paths.ListingPage = filepath.Join(site, "index.html")
	cfgVal.Paths.StateDir = state
	cfgVal.Notifications.OutboxDir = filepath.Join(state, "outbox")
	cfgVal.Invariants = CityInvariants()

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSink selects the notification sink.
func WithSink(sink string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Sink = sink
	}
}

// WithInvariants replaces the declared invariants.
func WithInvariants(invs ...config.Invariant) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Invariants = invs
	}
}

// WithAudit enables per-run audit snapshots.
func WithAudit() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audit.Enabled = true
	}
}

// WithListingSource makes the listing page authoritative.
func WithListingSource(slots []config.ListingSlot, linkShapes map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Canonical.Source = config.SourceListing
		b.cfg.Canonical.ListingSlots = slots
		b.cfg.Canonical.LinkShapes = linkShapes
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SiteDir)
}

// CityInvariants mirrors the rule set shipped in the sample configuration.
func CityInvariants() []config.Invariant {
	return []config.Invariant{
		{Name: "color-primary", Kind: config.KindRequiredToken, Token: "#2563eb"},
		{Name: "color-secondary", Kind: config.KindRequiredToken, Token: "#1e40af"},
		{Name: "color-accent", Kind: config.KindRequiredToken, Token: "#f59e0b"},
		{Name: "gallery-images", Kind: config.KindMinimumCount, Marker: `class="gallery-img"`, Count: 3},
		{Name: "hero-image", Kind: config.KindCrossArtifactEquality, Slot: "hero", Pattern: `--hero-image: url\('([^']+)'\)`},
		{Name: "back-home-link", Kind: config.KindLinkShape, Pattern: `href="([^"]*index\.html)"`, Shapes: []config.Shape{
			{Name: "relative", Prefix: "../"},
			{Name: "absolute", Prefix: "/travel-website/"},
		}},
	}
}
