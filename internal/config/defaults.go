package config

const (
	defaultSiteDir           = "."
	defaultPagesDir          = "cities"
	defaultPageExtension     = ".html"
	defaultTemplate          = "templates/city.html"
	defaultEntities          = "data/cities.json"
	defaultCanonical         = "data/canonical.json"
	defaultListingPage       = "index.html"
	defaultStateDir          = "~/.local/share/sitedrift"
	defaultListSeparator     = ", "
	defaultCanonicalSource   = SourceTable
	defaultNotificationSink  = SinkFile
	defaultDestination       = "telegram:travel-site"
	defaultOutboxDirName     = "outbox"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultInvariantsVersion = 1
)

// Default returns a Config populated with repository defaults. It declares
// no invariants; those belong in the site's config file.
func Default() Config {
	return Config{
		InvariantsVersion: defaultInvariantsVersion,
		Paths: Paths{
			SiteDir:       defaultSiteDir,
			PagesDir:      defaultPagesDir,
			PageExtension: defaultPageExtension,
			Template:      defaultTemplate,
			Entities:      defaultEntities,
			Canonical:     defaultCanonical,
			ListingPage:   defaultListingPage,
			StateDir:      defaultStateDir,
		},
		Render: Render{
			ListSeparator: defaultListSeparator,
		},
		Canonical: Canonical{
			Source: defaultCanonicalSource,
		},
		Notifications: Notifications{
			Sink:        defaultNotificationSink,
			Destination: defaultDestination,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Tasks: Tasks{
			Enabled: true,
		},
	}
}
