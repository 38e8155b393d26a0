package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"ContactResource", "Registrar"}, c.KindNames())

	// Each call returns its own map.
	c.Kinds["X"] = KindConfiguration{}
	assert.NotContains(t, Default().Kinds, "X")
}

func TestLoad_TOML(t *testing.T) {
	p := writeFile(t, "job.toml", `
[source]
path = "/data/legacy"
codec = "cbor"

[target]
driver = "mysql"
dsn = "user:pw@tcp(localhost:3306)/registry"

[kinds.ContactResource]
writers = 2
batch_size = 4

[logging]
format = "json"
verbose = true
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "/data/legacy", c.Source.Path)
	assert.Equal(t, "cbor", c.Source.Codec)
	assert.Equal(t, DriverMySQL, c.Target.Driver)
	assert.Equal(t, map[string]KindConfiguration{"ContactResource": {Writers: 2, BatchSize: 4}}, c.Kinds)
	assert.True(t, c.Logging.Verbose)
	assert.Equal(t, "json", c.Logging.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1:9464", c.Admin.Address)
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "job.yaml", `
target:
  driver: postgres
  dsn: postgres://localhost/registry
kinds:
  Registrar:
    writers: 1
    batch_size: 10
admin:
  enabled: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, DriverPostgres, c.Target.Driver)
	assert.Equal(t, 10, c.Kinds["Registrar"].BatchSize)
	assert.True(t, c.Admin.Enabled)
	assert.Equal(t, "./legacy", c.Source.Path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "job.ini", "a=b"))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = Load(writeFile(t, "job.toml", "[source\npath="))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvTargetDriver, DriverSpanner)
	t.Setenv(EnvSpannerDatabase, "projects/p/instances/i/databases/d")
	t.Setenv(EnvSourcePath, "/srv/legacy")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSpanner, c.Target.Driver)
	assert.Equal(t, "projects/p/instances/i/databases/d", c.Target.DSN)
	assert.Equal(t, "/srv/legacy", c.Source.Path)

	t.Setenv(EnvTargetDSN, "projects/p/instances/i/databases/explicit")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "projects/p/instances/i/databases/explicit", c.Target.DSN)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Configuration){
		"no source path":   func(c *Configuration) { c.Source.Path = "" },
		"bad codec":        func(c *Configuration) { c.Source.Codec = "gob" },
		"bad driver":       func(c *Configuration) { c.Target.Driver = "oracle" },
		"no dsn":           func(c *Configuration) { c.Target.DSN = "" },
		"no kinds":         func(c *Configuration) { c.Kinds = nil },
		"zero writers":     func(c *Configuration) { c.Kinds["Registrar"] = KindConfiguration{Writers: 0, BatchSize: 1} },
		"zero batch":       func(c *Configuration) { c.Kinds["Registrar"] = KindConfiguration{Writers: 1, BatchSize: 0} },
		"bad log format":   func(c *Configuration) { c.Logging.Format = "xml" },
		"admin no address": func(c *Configuration) { c.Admin = AdminConfiguration{Enabled: true} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
