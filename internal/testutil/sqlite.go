// Package testutil provides SQLite-backed targets, record fixtures and an
// instrumented transaction manager factory for package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/config"
	"github.com/nzb155/nomulus/internal/pkg/schema"
)

// SQLiteTarget is a file-backed SQLite database with the target schema.
type SQLiteTarget struct {
	Path string
	DSN  string
}

// NewSQLiteTarget creates the database in a temp dir owned by t.
func NewSQLiteTarget(t testing.TB) *SQLiteTarget {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", path)

	_, err := schema.Apply(context.Background(), config.DriverSQLite, dsn)
	require.NoError(t, err)
	return &SQLiteTarget{Path: path, DSN: dsn}
}

// Factory returns a factory opening a dedicated connection per manager.
func (s *SQLiteTarget) Factory(clk clock.Clock) contracts.TransactionManagerFactory {
	return func() (committer.TransactionManager, error) {
		m, err := committer.OpenSQLManager(committer.DialectSQLite, s.DSN, clk)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Reader opens a manager used only to read the target back.
func (s *SQLiteTarget) Reader(t testing.TB) *committer.SQLManager {
	t.Helper()
	m, err := committer.OpenSQLManager(committer.DialectSQLite, s.DSN, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// MustCount returns the row count of table.
func (s *SQLiteTarget) MustCount(t testing.TB, table string) int64 {
	t.Helper()
	n, err := s.Reader(t).CountRows(context.Background(), table)
	require.NoError(t, err)
	return n
}
