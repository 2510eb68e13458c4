package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort              = 5432
	defaultSchema            = "public"
	defaultLogLevel          = "info"
	defaultJournalCollection = "schema_events"
	defaultDefinitionsDir    = "definitions"
)

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Schema is the Postgres schema that holds the physical dynamic tables.
	Schema string `yaml:"schema"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// JournalConfig controls where committed schema changes are recorded.
// The log sink is always active; MongoDB is used when URI is set.
type JournalConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type DefinitionsConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Journal     JournalConfig     `yaml:"journal"`
	Definitions DefinitionsConfig `yaml:"definitions"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	c.Database.Type = normalizeDatabaseType(c.Database.Type)

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Port == 0 {
		c.Database.Port = defaultPort
	}
	if strings.TrimSpace(c.Database.Schema) == "" {
		c.Database.Schema = defaultSchema
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Journal.Collection == "" {
		c.Journal.Collection = defaultJournalCollection
	}
	if c.Journal.URI != "" && c.Journal.Database == "" {
		c.Journal.Database = c.Database.Database
	}

	if strings.TrimSpace(c.Definitions.Dir) == "" {
		c.Definitions.Dir = defaultDefinitionsDir
	}
}

// Validate reports configuration the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if strings.TrimSpace(c.Database.Database) == "" {
		return fmt.Errorf("database name is required")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}
	return nil
}

// JournalEnabled reports whether a MongoDB journal is configured.
func (c *Config) JournalEnabled() bool {
	return strings.TrimSpace(c.Journal.URI) != ""
}

func (c *Config) GetConnectionString() string {
	host := c.Database.Host
	if host == "" {
		host = "localhost"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

func normalizeDatabaseType(dbType string) string {
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	switch dbType {
	case "", "postgres", "postgresql":
		return "postgres"
	default:
		return dbType
	}
}
