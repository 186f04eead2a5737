package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCanonical()
	c.normalizeInvariants()
	if err := c.normalizeNotifications(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("SITEDRIFT_SITE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SiteDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.SiteDir) == "" {
		c.Paths.SiteDir = defaultSiteDir
	}
	if c.Paths.SiteDir, err = expandPath(strings.TrimSpace(c.Paths.SiteDir)); err != nil {
		return fmt.Errorf("paths.site_dir: %w", err)
	}

	site := c.Paths.SiteDir
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"paths.pages_dir", &c.Paths.PagesDir, defaultPagesDir},
		{"paths.template", &c.Paths.Template, defaultTemplate},
		{"paths.entities", &c.Paths.Entities, defaultEntities},
		{"paths.canonical", &c.Paths.Canonical, defaultCanonical},
		{"paths.listing_page", &c.Paths.ListingPage, defaultListingPage},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		if *field.value, err = resolveSitePath(site, *field.value); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
	}

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}

	ext := strings.TrimSpace(c.Paths.PageExtension)
	if ext == "" {
		ext = defaultPageExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Paths.PageExtension = strings.ToLower(ext)
	return nil
}

func (c *Config) normalizeCanonical() {
	c.Canonical.Source = strings.ToLower(strings.TrimSpace(c.Canonical.Source))
	if c.Canonical.Source == "" {
		c.Canonical.Source = defaultCanonicalSource
	}
	for i := range c.Canonical.ListingSlots {
		c.Canonical.ListingSlots[i].Slot = strings.TrimSpace(c.Canonical.ListingSlots[i].Slot)
	}
	if len(c.Canonical.LinkShapes) > 0 {
		shapes := make(map[string]string, len(c.Canonical.LinkShapes))
		for name, shape := range c.Canonical.LinkShapes {
			shapes[strings.TrimSpace(name)] = strings.TrimSpace(shape)
		}
		c.Canonical.LinkShapes = shapes
	}
}

func (c *Config) normalizeInvariants() {
	for i := range c.Invariants {
		inv := &c.Invariants[i]
		inv.Name = strings.TrimSpace(inv.Name)
		inv.Kind = strings.ToLower(strings.TrimSpace(inv.Kind))
		inv.Slot = strings.TrimSpace(inv.Slot)
		for j := range inv.Shapes {
			inv.Shapes[j].Name = strings.TrimSpace(inv.Shapes[j].Name)
		}
	}
}

func (c *Config) normalizeNotifications() error {
	c.Notifications.Sink = strings.ToLower(strings.TrimSpace(c.Notifications.Sink))
	if c.Notifications.Sink == "" {
		c.Notifications.Sink = defaultNotificationSink
	}
	c.Notifications.Destination = strings.TrimSpace(c.Notifications.Destination)
	if strings.TrimSpace(c.Notifications.OutboxDir) == "" {
		c.Notifications.OutboxDir = filepath.Join(c.Paths.StateDir, defaultOutboxDirName)
	}
	var err error
	if c.Notifications.OutboxDir, err = expandPath(strings.TrimSpace(c.Notifications.OutboxDir)); err != nil {
		return fmt.Errorf("notifications.outbox_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
