package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"dbfixture/internal/datatype"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Fixture  FixtureConfig  `yaml:"fixture"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	APIToken    string   `yaml:"api_token,omitempty"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	// ReadOnly disables the routes that write to the database.
	ReadOnly bool `yaml:"read_only,omitempty"`
}

type DatabaseConfig struct {
	DBType           string `yaml:"type"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	File             string `yaml:"file,omitempty"`
	Schema           string `yaml:"schema,omitempty"`
	MaxConns         int32  `yaml:"max_conns,omitempty"`
	MinConns         int32  `yaml:"min_conns,omitempty"`
	CreateIfMissing  bool   `yaml:"create_if_missing,omitempty"`
}

// FixtureConfig holds the settings the fixture engines read: name
// matching, primary key overrides, comparison tolerances and the zone of
// relative time expressions.
type FixtureConfig struct {
	CaseSensitiveTableNames bool                `yaml:"case_sensitive_table_names"`
	PrimaryKeys             map[string][]string `yaml:"primary_keys,omitempty"`
	StrictPrimaryKeys       bool                `yaml:"strict_primary_keys"`
	Tolerances              []ToleranceConfig   `yaml:"tolerances,omitempty"`
	TimeZone                string              `yaml:"time_zone,omitempty"`
}

type ToleranceConfig struct {
	Table      string `yaml:"table"`
	Column     string `yaml:"column"`
	Delta      string `yaml:"delta"`
	Percentage bool   `yaml:"percentage,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			DBType:   "postgres",
			Schema:   "public",
			MaxConns: 25,
			MinConns: 5,
		},
	}
}

// Load reads the YAML file at configPath over the defaults, then applies
// environment overrides. A .env file in the working directory is loaded
// first when present. A missing file is only an error when configPath was
// given explicitly.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath
	}

	cfg := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from PORT, API_TOKEN, CORS_ORIGINS, READ_ONLY, DB_TYPE,
// DB_CONNECTION_STRING, DB_FILE and DB_SCHEMA.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PORT %q", v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("READ_ONLY"); v != "" {
		readOnly, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid READ_ONLY %q", v)
		}
		c.Server.ReadOnly = readOnly
	}
	if v := os.Getenv("DB_TYPE"); v != "" {
		c.Database.DBType = v
	}
	if v := os.Getenv("DB_CONNECTION_STRING"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("DB_FILE"); v != "" {
		c.Database.File = v
	}
	if v := os.Getenv("DB_SCHEMA"); v != "" {
		c.Database.Schema = v
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.DBType {
	case "postgres", "mysql", "sqlite":
	default:
		return errors.Errorf("unsupported database type: %s", c.Database.DBType)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.Errorf("min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns)
	}
	for _, t := range c.Fixture.Tolerances {
		if _, err := decimal.NewFromString(t.Delta); err != nil {
			return errors.Wrapf(err, "invalid tolerance for %s.%s", t.Table, t.Column)
		}
	}
	if c.Fixture.TimeZone != "" {
		if _, err := time.LoadLocation(c.Fixture.TimeZone); err != nil {
			return errors.Wrap(err, "invalid fixture time_zone")
		}
	}
	return nil
}

// GetConnectionString resolves the DSN of the configured store. Postgres and
// MySQL fall back to DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD and
// DB_DATABASE when no connection string is set.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	switch d.DBType {
	case "postgres", "mysql":
		if d.ConnectionString != "" {
			return d.ConnectionString, nil
		}
		return d.connectionStringFromEnv()

	case "sqlite":
		if d.File == "" {
			d.File = "database.db"
		}
		return d.File, nil

	default:
		return "", errors.Errorf("unsupported database type: %s", d.DBType)
	}
}

func (d *DatabaseConfig) connectionStringFromEnv() (string, error) {
	env := map[string]string{}
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE"} {
		v := os.Getenv(key)
		if v == "" {
			return "", errors.Errorf("connection string or %s environment variable is required for %s", key, d.DBType)
		}
		env[key] = v
	}
	if d.DBType == "mysql" {
		return env["DB_USERNAME"] + ":" + env["DB_PASSWORD"] + "@tcp(" + env["DB_HOST"] + ":" + env["DB_PORT"] + ")/" + env["DB_DATABASE"], nil
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(env["DB_USERNAME"], env["DB_PASSWORD"]),
		Host:     env["DB_HOST"] + ":" + env["DB_PORT"],
		Path:     "/" + env["DB_DATABASE"],
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

// PrimaryKeyOverride returns the configured key columns of table. Table
// names match ignoring case.
func (f FixtureConfig) PrimaryKeyOverride(table string) ([]string, bool) {
	if cols, ok := f.PrimaryKeys[table]; ok {
		return cols, true
	}
	for name, cols := range f.PrimaryKeys {
		if strings.EqualFold(name, table) {
			return cols, true
		}
	}
	return nil, false
}

// ToleratedDeltas builds the tolerance map of the configured columns.
func (f FixtureConfig) ToleratedDeltas() (*datatype.ToleratedDeltaMap, error) {
	m := datatype.NewToleratedDeltaMap()
	for _, t := range f.Tolerances {
		delta, err := decimal.NewFromString(t.Delta)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid tolerance for %s.%s", t.Table, t.Column)
		}
		if t.Percentage {
			m.Add(t.Table, t.Column, datatype.PercentageTolerance(delta))
		} else {
			m.Add(t.Table, t.Column, datatype.AbsoluteTolerance(delta))
		}
	}
	return m, nil
}

// RelativeTimeParser returns the parser for relative time expressions in the
// configured zone, or the local zone.
func (f FixtureConfig) RelativeTimeParser() (*datatype.RelativeTimeParser, error) {
	if f.TimeZone == "" {
		return datatype.DefaultRelativeTimeParser, nil
	}
	loc, err := time.LoadLocation(f.TimeZone)
	if err != nil {
		return nil, errors.Wrap(err, "invalid fixture time_zone")
	}
	return datatype.NewRelativeTimeParser(time.Now).WithLocation(loc), nil
}
