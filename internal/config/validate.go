package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCanonical(); err != nil {
		return err
	}
	if err := c.validateInvariants(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := []struct {
		key   string
		value string
	}{
		{"paths.site_dir", c.Paths.SiteDir},
		{"paths.pages_dir", c.Paths.PagesDir},
		{"paths.template", c.Paths.Template},
		{"paths.entities", c.Paths.Entities},
		{"paths.state_dir", c.Paths.StateDir},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must be set", field.key)
		}
	}
	if c.Paths.PageExtension == "." {
		return errors.New("paths.page_extension must name an extension")
	}
	return nil
}

func (c *Config) validateCanonical() error {
	switch c.Canonical.Source {
	case SourceTable:
		if strings.TrimSpace(c.Paths.Canonical) == "" {
			return errors.New("paths.canonical must be set when canonical.source is \"table\"")
		}
		if len(c.Canonical.ListingSlots) > 0 || len(c.Canonical.LinkShapes) > 0 {
			return errors.New("canonical.listing_slots and canonical.link_shapes only apply when canonical.source is \"listing\"; declare values in the table file instead")
		}
	case SourceListing:
		if strings.TrimSpace(c.Paths.ListingPage) == "" {
			return errors.New("paths.listing_page must be set when canonical.source is \"listing\"")
		}
		if len(c.Canonical.ListingSlots) == 0 {
			return errors.New("canonical.listing_slots must declare at least one slot when canonical.source is \"listing\"")
		}
		seen := make(map[string]struct{}, len(c.Canonical.ListingSlots))
		for i, slot := range c.Canonical.ListingSlots {
			key := fmt.Sprintf("canonical.listing_slots[%d]", i)
			if slot.Slot == "" {
				return fmt.Errorf("%s.slot must be set", key)
			}
			if _, dup := seen[slot.Slot]; dup {
				return fmt.Errorf("%s.slot %q is declared twice", key, slot.Slot)
			}
			seen[slot.Slot] = struct{}{}
			if !strings.Contains(slot.Pattern, "{slug}") {
				return fmt.Errorf("%s.pattern must contain {slug}", key)
			}
			sample := strings.ReplaceAll(slot.Pattern, "{slug}", "sample")
			if err := checkSingleGroup(sample); err != nil {
				return fmt.Errorf("%s.pattern: %w", key, err)
			}
		}
	default:
		return fmt.Errorf("canonical.source must be %q or %q, got %q", SourceTable, SourceListing, c.Canonical.Source)
	}
	return nil
}

func (c *Config) validateInvariants() error {
	if c.InvariantsVersion <= 0 {
		return errors.New("invariants_version must be positive")
	}
	seen := make(map[string]struct{}, len(c.Invariants))
	for i, inv := range c.Invariants {
		key := fmt.Sprintf("invariants[%d]", i)
		if inv.Name == "" {
			return fmt.Errorf("%s.name must be set", key)
		}
		if _, dup := seen[inv.Name]; dup {
			return fmt.Errorf("%s.name %q is declared twice", key, inv.Name)
		}
		seen[inv.Name] = struct{}{}

		switch inv.Kind {
		case KindRequiredToken:
			if inv.Token == "" {
				return fmt.Errorf("%s (%s): token must be set", key, inv.Name)
			}
		case KindMinimumCount:
			if inv.Marker == "" {
				return fmt.Errorf("%s (%s): marker must be set", key, inv.Name)
			}
			if inv.Count <= 0 {
				return fmt.Errorf("%s (%s): count must be positive", key, inv.Name)
			}
		case KindCrossArtifactEquality:
			if inv.Slot == "" {
				return fmt.Errorf("%s (%s): slot must be set", key, inv.Name)
			}
			if err := checkSingleGroup(inv.Pattern); err != nil {
				return fmt.Errorf("%s (%s): pattern: %w", key, inv.Name, err)
			}
		case KindLinkShape:
			if err := checkSingleGroup(inv.Pattern); err != nil {
				return fmt.Errorf("%s (%s): pattern: %w", key, inv.Name, err)
			}
			if len(inv.Shapes) == 0 {
				return fmt.Errorf("%s (%s): shapes must declare at least one shape", key, inv.Name)
			}
			names := make(map[string]struct{}, len(inv.Shapes))
			prefixes := make(map[string]struct{}, len(inv.Shapes))
			for j, shape := range inv.Shapes {
				if shape.Name == "" || shape.Prefix == "" {
					return fmt.Errorf("%s (%s): shapes[%d] needs name and prefix", key, inv.Name, j)
				}
				if _, dup := names[shape.Name]; dup {
					return fmt.Errorf("%s (%s): shape %q is declared twice", key, inv.Name, shape.Name)
				}
				if _, dup := prefixes[shape.Prefix]; dup {
					return fmt.Errorf("%s (%s): prefix %q is declared twice", key, inv.Name, shape.Prefix)
				}
				names[shape.Name] = struct{}{}
				prefixes[shape.Prefix] = struct{}{}
			}
			if declared, ok := c.Canonical.LinkShapes[inv.Name]; ok {
				if _, known := names[declared]; !known {
					return fmt.Errorf("canonical.link_shapes.%s names unknown shape %q", inv.Name, declared)
				}
			}
		default:
			return fmt.Errorf("%s (%s): unknown kind %q", key, inv.Name, inv.Kind)
		}
	}
	for name := range c.Canonical.LinkShapes {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("canonical.link_shapes.%s does not match any invariant", name)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Sink {
	case SinkNone:
		return nil
	case SinkFile, SinkQueue:
		if c.Notifications.Destination == "" {
			return fmt.Errorf("notifications.destination must be set when notifications.sink is %q", c.Notifications.Sink)
		}
		return nil
	default:
		return fmt.Errorf("notifications.sink must be one of none, file, queue; got %q", c.Notifications.Sink)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func checkSingleGroup(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.New("must be set")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	if re.NumSubexp() != 1 {
		return fmt.Errorf("must contain exactly one capture group, found %d", re.NumSubexp())
	}
	return nil
}
