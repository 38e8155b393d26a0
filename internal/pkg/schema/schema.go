// Package schema holds the DDL of the target tables for every supported
// driver and applies it to a target store.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	databasepb "cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nzb155/nomulus/internal/pkg/config"
)

//go:embed ddl/*.sql
var ddlFiles embed.FS

// Statements returns the DDL statements for driver, in order.
func Statements(driver string) ([]string, error) {
	switch driver {
	case config.DriverSpanner, config.DriverSQLite, config.DriverMySQL, config.DriverPostgres:
	default:
		return nil, fmt.Errorf("schema: unsupported driver %q", driver)
	}
	b, err := ddlFiles.ReadFile("ddl/" + driver + ".sql")
	if err != nil {
		return nil, err
	}
	return splitDDL(string(b)), nil
}

func splitDDL(ddl string) []string {
	// Normalize line endings for Windows-authored files.
	ddl = strings.ReplaceAll(ddl, "\r\n", "\n")
	parts := strings.Split(ddl, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

// Apply creates the target tables. For spanner dsn is the database name and
// the database must already exist. It returns the number of statements run.
func Apply(ctx context.Context, driver, dsn string) (int, error) {
	stmts, err := Statements(driver)
	if err != nil {
		return 0, err
	}
	if driver == config.DriverSpanner {
		return len(stmts), applySpanner(ctx, dsn, stmts)
	}
	return len(stmts), applySQL(ctx, driver, dsn, stmts)
}

func applySpanner(ctx context.Context, db string, stmts []string) error {
	admin, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("schema: database admin client: %w", err)
	}
	defer admin.Close()

	op, err := admin.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   db,
		Statements: stmts,
	})
	if err != nil {
		return fmt.Errorf("schema: UpdateDatabaseDdl: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("schema: UpdateDatabaseDdl wait: %w", err)
	}
	return nil
}

func applySQL(ctx context.Context, driver, dsn string, stmts []string) error {
	sqlDriver := driver
	if driver == config.DriverPostgres {
		sqlDriver = "pgx"
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("schema: open %s: %w", driver, err)
	}
	defer db.Close()

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
