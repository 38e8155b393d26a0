package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/models/m_contact"
	"github.com/nzb155/nomulus/internal/models/m_registrar"
	"github.com/nzb155/nomulus/internal/testutil"
)

func writeConfig(t *testing.T, legacyPath, dsn string) string {
	t.Helper()
	body := fmt.Sprintf(`
[source]
path = %q
codec = "cbor"

[target]
driver = "sqlite3"
dsn = %q

[kinds.ContactResource]
writers = 3
batch_size = 2

[kinds.Registrar]
writers = 1
batch_size = 1
`, legacyPath, dsn)
	p := filepath.Join(t.TempDir(), "initsql.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func decode(t *testing.T, out string) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal([]byte(out), &e), out)
	return e
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "initsql", cmd.Use)

	for _, name := range []string{"run", "verify", "capture-fixtures", "schema"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)

	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "true", run.Flags().Lookup("verify").DefValue)
}

func TestCaptureRunVerify(t *testing.T) {
	target := testutil.NewSQLiteTarget(t)
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "legacy"), target.DSN)

	out, err := execute(t, "capture-fixtures", "-c", cfg, "--contacts", "7", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "ok", decode(t, out).Status)

	// Nothing migrated yet.
	out, err = execute(t, "verify", "-c", cfg, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", decode(t, out).Status)

	out, err = execute(t, "run", "-c", cfg, "--format", "json")
	require.NoError(t, err)
	env := decode(t, out)
	assert.Equal(t, "ok", env.Status)

	var res runResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 8, res.TotalRecords)
	require.Len(t, res.Kinds, 2)
	require.Len(t, res.Counts, 2)
	for _, c := range res.Counts {
		assert.True(t, c.Match, c.Kind)
	}
	assert.Equal(t, int64(7), target.MustCount(t, m_contact.TableName))
	assert.Equal(t, int64(1), target.MustCount(t, m_registrar.TableName))

	out, err = execute(t, "verify", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "ContactResource")
	assert.Contains(t, out, "true")
}

func TestRun_OnlySelectedKinds(t *testing.T) {
	target := testutil.NewSQLiteTarget(t)
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "legacy"), target.DSN)

	_, err := execute(t, "capture-fixtures", "-c", cfg, "--contacts", "3")
	require.NoError(t, err)

	out, err := execute(t, "run", "-c", cfg, "--kind", "Registrar")
	require.NoError(t, err)
	assert.Contains(t, out, "Registrar")
	assert.Equal(t, int64(0), target.MustCount(t, m_contact.TableName))
	assert.Equal(t, int64(1), target.MustCount(t, m_registrar.TableName))
}

func TestRun_FailingTargetExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	// A database without the target tables rejects every upsert.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000", filepath.Join(dir, "empty.db"))
	cfg := writeConfig(t, filepath.Join(dir, "legacy"), dsn)

	_, err := execute(t, "capture-fixtures", "-c", cfg, "--contacts", "2")
	require.NoError(t, err)

	out, err := execute(t, "run", "-c", cfg, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	env := decode(t, out)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Error, "migration failed")
}

func TestCommandErrors(t *testing.T) {
	target := testutil.NewSQLiteTarget(t)
	good := writeConfig(t, filepath.Join(t.TempDir(), "legacy"), target.DSN)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[target]\ndriver = \"oracle\"\ndsn = \"x\"\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"invalid format", []string{"run", "-c", good, "--format", "xml"}},
		{"missing config file", []string{"run", "-c", filepath.Join(t.TempDir(), "nope.toml")}},
		{"unsupported driver", []string{"verify", "-c", bad}},
		{"unknown kind", []string{"run", "-c", good, "--kind", "HostResource"}},
		{"invalid fixture request", []string{"capture-fixtures", "-c", good, "--iana", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("plain")))
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestSchema_AppliesToFreshTarget(t *testing.T) {
	dir := t.TempDir()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", filepath.Join(dir, "fresh.db"))
	cfg := writeConfig(t, filepath.Join(dir, "legacy"), dsn)

	out, err := execute(t, "schema", "-c", cfg, "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS Contact")

	out, err = execute(t, "schema", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 DDL statements")

	_, err = execute(t, "capture-fixtures", "-c", cfg, "--contacts", "4")
	require.NoError(t, err)
	_, err = execute(t, "run", "-c", cfg)
	require.NoError(t, err)
}
