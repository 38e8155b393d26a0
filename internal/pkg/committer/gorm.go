package committer

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/nzb155/nomulus/internal/pkg/clock"
)

// GormManager is a TransactionManager over GORM, used for PostgreSQL targets.
// Rows are written through table-scoped map creates with an ON CONFLICT
// clause, so no GORM models are needed.
type GormManager struct {
	db    *gorm.DB
	owned bool
	state txState
}

// NewGormManager wraps an open *gorm.DB. Close does not close it.
func NewGormManager(db *gorm.DB, clk clock.Clock) *GormManager {
	return &GormManager{db: db, state: newTxState(clk)}
}

// OpenGormManager connects to PostgreSQL with its own single-connection pool.
func OpenGormManager(dsn string, clk clock.Clock) (*GormManager, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("committer: failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("committer: gorm pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	m := NewGormManager(db, clk)
	m.owned = true
	return m, nil
}

func (m *GormManager) Transact(ctx context.Context, work func(ctx context.Context) error) error {
	return m.state.transact(ctx, work, m.apply)
}

func (m *GormManager) TransactionTime() (time.Time, error) {
	return m.state.transactionTime()
}

func (m *GormManager) Upsert(_ context.Context, e Entity) error {
	return m.state.upsert(e)
}

func (m *GormManager) apply(ctx context.Context, plan *Plan) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range plan.Rows() {
			values := make(map[string]interface{}, len(r.Values))
			for k, v := range r.Values {
				values[k] = v
			}
			res := tx.Table(r.Table).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: r.KeyColumn}},
				DoUpdates: clause.AssignmentColumns(r.NonKeyColumns()),
			}).Create(values)
			if res.Error != nil {
				return fmt.Errorf("upsert %s %v: %w", r.Table, r.Key(), res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return newTransactionError(classifySQL(err), err)
	}
	return nil
}

// CountRows returns the number of rows in table.
func (m *GormManager) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := m.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("committer: count %s: %w", table, err)
	}
	return n, nil
}

// LoadRow reads the row whose keyColumn equals key as a column map.
func (m *GormManager) LoadRow(ctx context.Context, table, keyColumn string, key interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	res := m.db.WithContext(ctx).Table(table).
		Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: key}).
		Limit(1).
		Find(&out)
	if res.Error != nil {
		return nil, fmt.Errorf("committer: load %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrRowNotFound
	}
	return out, nil
}

func (m *GormManager) Close() error {
	if !m.owned {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
