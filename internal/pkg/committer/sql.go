package committer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	goqumysql "github.com/doug-martin/goqu/v9/dialect/mysql"
	goqusqlite3 "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nzb155/nomulus/internal/pkg/clock"
)

// Supported database/sql dialects. The dialect name is also the driver name.
const (
	DialectSQLite = "sqlite3"
	DialectMySQL  = "mysql"
)

// goqu's stock sqlite3 and mysql dialects render every insert with a conflict
// clause as INSERT OR IGNORE / INSERT IGNORE, which turns NOT NULL, CHECK and
// foreign key violations into skipped rows. Upserts are rendered with these
// strict variants instead so that a bad row fails the whole transaction.
var strictDialects = map[string]string{
	DialectSQLite: "initsql_sqlite3",
	DialectMySQL:  "initsql_mysql",
}

func init() {
	sqliteOpts := goqusqlite3.DialectOptions()
	sqliteOpts.SupportsInsertIgnoreSyntax = false
	goqu.RegisterDialect(strictDialects[DialectSQLite], sqliteOpts)

	mysqlOpts := goqumysql.DialectOptions()
	mysqlOpts.SupportsInsertIgnoreSyntax = false
	goqu.RegisterDialect(strictDialects[DialectMySQL], mysqlOpts)
}

// SQLManager is a TransactionManager over database/sql. Each plan is applied
// as one BEGIN ... COMMIT with one upsert statement per row.
type SQLManager struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	name    string
	owned   bool
	state   txState
}

// NewSQLManager wraps an open database. Close does not close it.
func NewSQLManager(db *sql.DB, dialect string, clk clock.Clock) (*SQLManager, error) {
	strict, ok := strictDialects[dialect]
	if !ok {
		return nil, fmt.Errorf("committer: unsupported sql dialect %q", dialect)
	}
	return &SQLManager{
		db:      db,
		dialect: goqu.Dialect(strict),
		name:    dialect,
		state:   newTxState(clk),
	}, nil
}

// OpenSQLManager opens a dedicated connection for one writer. SQLite allows a
// single writer per connection, so the pool is capped at one.
func OpenSQLManager(dialect, dsn string, clk clock.Clock) (*SQLManager, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("committer: open %s: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("committer: connect %s: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	m, err := NewSQLManager(db, dialect, clk)
	if err != nil {
		db.Close()
		return nil, err
	}
	m.owned = true
	return m, nil
}

func (m *SQLManager) Transact(ctx context.Context, work func(ctx context.Context) error) error {
	return m.state.transact(ctx, work, m.apply)
}

func (m *SQLManager) TransactionTime() (time.Time, error) {
	return m.state.transactionTime()
}

func (m *SQLManager) Upsert(_ context.Context, e Entity) error {
	return m.state.upsert(e)
}

// upsertSQL renders INSERT ... ON CONFLICT (key) DO UPDATE for sqlite3 and
// INSERT ... ON DUPLICATE KEY UPDATE for mysql.
func (m *SQLManager) upsertSQL(r Row) (string, []interface{}, error) {
	updates := goqu.Record{}
	for _, c := range r.NonKeyColumns() {
		updates[c] = r.Values[c]
	}
	ds := m.dialect.Insert(r.Table).
		Rows(goqu.Record(r.Values)).
		OnConflict(goqu.DoUpdate(r.KeyColumn, updates)).
		Prepared(true)
	return ds.ToSQL()
}

func (m *SQLManager) apply(ctx context.Context, plan *Plan) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return newTransactionError(classifySQL(err), fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range plan.Rows() {
		query, args, buildErr := m.upsertSQL(r)
		if buildErr != nil {
			return fmt.Errorf("committer: build upsert for %s: %w", r.Table, buildErr)
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			return newTransactionError(classifySQL(execErr), fmt.Errorf("upsert %s %v: %w", r.Table, r.Key(), execErr))
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return newTransactionError(classifySQL(commitErr), fmt.Errorf("commit: %w", commitErr))
	}
	return nil
}

// CountRows returns the number of rows in table.
func (m *SQLManager) CountRows(ctx context.Context, table string) (int64, error) {
	query, args, err := m.dialect.From(table).Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("committer: count %s: %w", table, err)
	}
	return n, nil
}

// LoadRow reads the row whose keyColumn equals key as a column map.
func (m *SQLManager) LoadRow(ctx context.Context, table, keyColumn string, key interface{}) (map[string]interface{}, error) {
	query, args, err := m.dialect.From(table).Where(goqu.C(keyColumn).Eq(key)).Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("committer: load %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRowNotFound
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			out[c] = string(b)
			continue
		}
		out[c] = vals[i]
	}
	return out, nil
}

// Dialect returns the dialect name the manager was built with.
func (m *SQLManager) Dialect() string {
	return m.name
}

func (m *SQLManager) Close() error {
	if m.owned && m.db != nil {
		return m.db.Close()
	}
	return nil
}
