package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"pilex/internal/models"
)

const DefaultPath = "config/app.yaml"

type Config struct {
	Settings `yaml:",inline"`

	ContentTypes []models.ContentType `yaml:"contenttypes"`
}

// Settings holds everything that can be overridden from the environment.
type Settings struct {
	Addr        string `yaml:"addr" env:"PILEX_ADDR"`
	DBDriver    string `yaml:"db_driver" env:"PILEX_DB_DRIVER"`
	DBDSN       string `yaml:"db_dsn" env:"PILEX_DB_DSN"`
	TablePrefix string `yaml:"table_prefix" env:"PILEX_TABLE_PREFIX"`
	// Secret signs session cookies. A random key is used when empty, which
	// invalidates sessions on restart.
	Secret string `yaml:"secret" env:"PILEX_SECRET"`

	Session SessionConfig `yaml:"session" envPrefix:"PILEX_SESSION_"`
	Log     LogConfig     `yaml:"log" envPrefix:"PILEX_LOG_"`
}

type SessionConfig struct {
	Name          string `yaml:"name" env:"NAME"`
	Backend       string `yaml:"backend" env:"BACKEND"` // cookie or redis
	MaxAge        int    `yaml:"max_age" env:"MAX_AGE"` // seconds
	Secure        bool   `yaml:"secure" env:"SECURE"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json or text
}

// Default returns a configuration usable for local development.
func Default() *Config {
	return &Config{
		Settings: Settings{
			Addr:        ":8080",
			DBDriver:    "sqlite3",
			DBDSN:       "pilex.db",
			TablePrefix: "pilex_",
			Session: SessionConfig{
				Name:      "pilex",
				Backend:   "cookie",
				MaxAge:    7 * 24 * 60 * 60,
				RedisAddr: "localhost:6379",
			},
			Log: LogConfig{
				Level:  "info",
				Format: "json",
			},
		},
		ContentTypes: DefaultContentTypes(),
	}
}

// DefaultContentTypes is used when the config file defines none.
func DefaultContentTypes() []models.ContentType {
	return []models.ContentType{
		{
			Slug:         "pages",
			Name:         "Pages",
			SingularName: "Page",
			Fields: []models.Field{
				{Name: "title", Type: models.FieldText, Label: "Title"},
				{Name: "teaser", Type: models.FieldTextarea, Label: "Teaser"},
				{Name: "body", Type: models.FieldHTML, Label: "Body"},
			},
		},
		{
			Slug:         "entries",
			Name:         "Entries",
			SingularName: "Entry",
			Fields: []models.Field{
				{Name: "title", Type: models.FieldText, Label: "Title"},
				{Name: "body", Type: models.FieldHTML, Label: "Body"},
				{Name: "publishdate", Type: models.FieldDate, Label: "Publish date"},
			},
		},
	}
}

// Load reads the YAML file over the defaults. A missing file is not an error.
func Load(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		// Unmarshal into a copy without content types so that a file
		// defining none keeps the defaults.
		parsed := *config
		parsed.ContentTypes = nil
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
		if len(parsed.ContentTypes) == 0 {
			parsed.ContentTypes = config.ContentTypes
		}
		config = &parsed
	}

	return config, nil
}

// LoadWithEnv loads the YAML file, then the optional .env file, then applies
// PILEX_* environment variables on top.
func LoadWithEnv(filename string) (*Config, error) {
	config, err := Load(filename)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	if err := env.Parse(&config.Settings); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

var identifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var reservedColumns = map[string]bool{
	"id": true, "slug": true, "datecreated": true, "datechanged": true,
	"username": true, "status": true,
}

// Validate checks values that end up in SQL identifiers or drive the backend choice.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}

	if c.TablePrefix != "" && !identifier.MatchString(c.TablePrefix) {
		return fmt.Errorf("invalid table_prefix %q", c.TablePrefix)
	}

	switch c.Session.Backend {
	case "cookie", "redis":
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}

	seen := make(map[string]bool)
	for _, ct := range c.ContentTypes {
		if !identifier.MatchString(ct.Slug) {
			return fmt.Errorf("invalid contenttype slug %q", ct.Slug)
		}
		if ct.Slug == "users" {
			return errors.New(`contenttype slug "users" is reserved`)
		}
		if seen[ct.Slug] {
			return fmt.Errorf("duplicate contenttype slug %q", ct.Slug)
		}
		seen[ct.Slug] = true

		if len(ct.Fields) == 0 {
			return fmt.Errorf("contenttype %q has no fields", ct.Slug)
		}
		fields := make(map[string]bool)
		for _, f := range ct.Fields {
			if !identifier.MatchString(f.Name) || reservedColumns[f.Name] {
				return fmt.Errorf("contenttype %q: invalid field name %q", ct.Slug, f.Name)
			}
			if fields[f.Name] {
				return fmt.Errorf("contenttype %q: duplicate field %q", ct.Slug, f.Name)
			}
			fields[f.Name] = true
			switch f.Type {
			case models.FieldText, models.FieldTextarea, models.FieldHTML, models.FieldDate:
			default:
				return fmt.Errorf("contenttype %q: field %q has unknown type %q", ct.Slug, f.Name, f.Type)
			}
		}
	}
	return nil
}
