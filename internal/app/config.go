package app

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/topicbot/core/config"
	coredatabase "github.com/m3rciful/topicbot/core/database"
)

// Catalogue sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"

	defaultCataloguePath = "data/catalogue.json"
	defaultMigrations    = "migrations"
)

// CatalogueConfig selects where the catalogue is loaded from at startup.
type CatalogueConfig struct {
	Source string `yaml:"source" envconfig:"CATALOGUE_SOURCE"`
	Path   string `yaml:"path" envconfig:"CATALOGUE_PATH"`
	// SeedFromFile publishes Path into an empty database before the first load.
	SeedFromFile bool `yaml:"seed_from_file" envconfig:"CATALOGUE_SEED_FROM_FILE"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Catalogue CatalogueConfig     `yaml:"catalogue"`
	Database  coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the shared Telegram, webhook, assets and logging settings.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// UsesDatabase reports whether the catalogue lives in Postgres.
func (c *Config) UsesDatabase() bool { return c.Catalogue.Source == SourcePostgres }

// LoadConfig reads path and the environment into a validated Config.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := NormalizeConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NormalizeConfig validates cfg and fills defaults.
func NormalizeConfig(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	src := strings.ToLower(strings.TrimSpace(cfg.Catalogue.Source))
	if src == "" {
		src = SourceFile
	}
	cfg.Catalogue.Source = src
	if strings.TrimSpace(cfg.Catalogue.Path) == "" {
		cfg.Catalogue.Path = defaultCataloguePath
	}

	switch src {
	case SourceFile:
		if cfg.Catalogue.SeedFromFile {
			return fmt.Errorf("catalogue.seed_from_file needs catalogue.source 'postgres'")
		}
	case SourcePostgres:
		if cfg.Database.URL == "" && (cfg.Database.Host == "" || cfg.Database.Name == "") {
			return fmt.Errorf("database.url or database.host and database.name are required when catalogue.source is 'postgres'")
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = defaultMigrations
		}
	default:
		return fmt.Errorf("invalid catalogue.source %q; allowed: file, postgres", cfg.Catalogue.Source)
	}
	return nil
}
