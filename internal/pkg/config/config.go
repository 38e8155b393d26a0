// Package config loads the migration job configuration from TOML or YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// Target drivers
const (
	DriverSpanner  = "spanner"
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Environment overrides, applied after the file is read.
const (
	EnvTargetDriver    = "INITSQL_TARGET_DRIVER"
	EnvTargetDSN       = "INITSQL_TARGET_DSN"
	EnvSourcePath      = "INITSQL_SOURCE_PATH"
	EnvSpannerDatabase = "SPANNER_DATABASE"
)

// SourceConfiguration points at the legacy store.
type SourceConfiguration struct {
	Path  string `toml:"path" yaml:"path"`
	Codec string `toml:"codec" yaml:"codec"`
}

// TargetConfiguration selects the relational store. For spanner the DSN is
// the database name projects/<p>/instances/<i>/databases/<d>.
type TargetConfiguration struct {
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

// KindConfiguration sizes the writer pool of one kind.
type KindConfiguration struct {
	Writers   int `toml:"writers" yaml:"writers"`
	BatchSize int `toml:"batch_size" yaml:"batch_size"`
}

type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose" yaml:"verbose"`
	Format  string `toml:"format" yaml:"format"` // console or json
}

// AdminConfiguration controls the HTTP endpoint serving health, metrics and
// the last run report. A non-empty GRPCAddress also starts the standard gRPC
// health service, with one service name per kind.
type AdminConfiguration struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	Address     string `toml:"address" yaml:"address"`
	GRPCAddress string `toml:"grpc_address" yaml:"grpc_address"`
}

type Configuration struct {
	Source  SourceConfiguration          `toml:"source" yaml:"source"`
	Target  TargetConfiguration          `toml:"target" yaml:"target"`
	Kinds   map[string]KindConfiguration `toml:"kinds" yaml:"kinds"`
	Logging LoggingConfiguration         `toml:"logging" yaml:"logging"`
	Admin   AdminConfiguration           `toml:"admin" yaml:"admin"`
}

// Default returns a new configuration migrating contacts and registrars from
// ./legacy into a local SQLite file.
func Default() *Configuration {
	return &Configuration{
		Source: SourceConfiguration{
			Path:  "./legacy",
			Codec: encoding.NameMsgpack,
		},
		Target: TargetConfiguration{
			Driver: DriverSQLite,
			DSN:    "file:initsql.db?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate",
		},
		Kinds: map[string]KindConfiguration{
			"ContactResource": {Writers: 4, BatchSize: 100},
			"Registrar":       {Writers: 1, BatchSize: 100},
		},
		Logging: LoggingConfiguration{
			Verbose: false,
			Format:  "console",
		},
		Admin: AdminConfiguration{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, .yaml or .yml. An empty path yields the defaults. Environment
// overrides are applied in both cases.
func Load(path string) (*Configuration, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// Kinds named in the file replace the default set.
		c.Kinds = nil

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(data), c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
		}
		if c.Kinds == nil {
			c.Kinds = Default().Kinds
		}
	}

	c.applyEnv()
	return c, nil
}

func (c *Configuration) applyEnv() {
	if v := os.Getenv(EnvTargetDriver); v != "" {
		c.Target.Driver = v
	}
	if v := os.Getenv(EnvTargetDSN); v != "" {
		c.Target.DSN = v
	}
	if v := os.Getenv(EnvSourcePath); v != "" {
		c.Source.Path = v
	}
	if c.Target.Driver == DriverSpanner {
		if v := os.Getenv(EnvSpannerDatabase); v != "" && os.Getenv(EnvTargetDSN) == "" {
			c.Target.DSN = v
		}
	}
}

// Validate reports the first problem found, checking kinds in name order.
func (c *Configuration) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}
	if _, err := encoding.ByName(c.Source.Codec); err != nil {
		return fmt.Errorf("source.codec: %w", err)
	}

	switch c.Target.Driver {
	case DriverSpanner, DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("target.driver must be one of %s, %s, %s, %s (got %q)",
			DriverSpanner, DriverSQLite, DriverMySQL, DriverPostgres, c.Target.Driver)
	}
	if c.Target.DSN == "" {
		return fmt.Errorf("target.dsn is required for driver %s", c.Target.Driver)
	}

	if len(c.Kinds) == 0 {
		return fmt.Errorf("at least one kind must be configured")
	}
	for _, name := range c.KindNames() {
		k := c.Kinds[name]
		if k.Writers < 1 {
			return fmt.Errorf("kinds.%s.writers must be at least 1 (got %d)", name, k.Writers)
		}
		if k.BatchSize < 1 {
			return fmt.Errorf("kinds.%s.batch_size must be at least 1 (got %d)", name, k.BatchSize)
		}
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if c.Admin.Enabled && c.Admin.Address == "" {
		return fmt.Errorf("admin.address is required when admin is enabled")
	}
	return nil
}

// KindNames returns the configured kinds sorted by name.
func (c *Configuration) KindNames() []string {
	names := make([]string, 0, len(c.Kinds))
	for name := range c.Kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
