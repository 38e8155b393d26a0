package cli

import (
	"context"
	"fmt"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/config"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
	"github.com/nzb155/nomulus/internal/pkg/legacystore"
)

func openSource(cfg *config.Configuration, clk clock.Clock) (*legacystore.Store, error) {
	codec, err := encoding.ByName(cfg.Source.Codec)
	if err != nil {
		return nil, err
	}
	return legacystore.Open(cfg.Source.Path, codec, clk)
}

// targetFactory returns a factory that opens a dedicated connection to the
// configured target for every manager it builds.
func targetFactory(ctx context.Context, t config.TargetConfiguration, clk clock.Clock) (contracts.TransactionManagerFactory, error) {
	switch t.Driver {
	case config.DriverSpanner:
		return func() (committer.TransactionManager, error) {
			m, err := committer.OpenSpannerManager(ctx, t.DSN, clk)
			if err != nil {
				return nil, err
			}
			return m, nil
		}, nil
	case config.DriverSQLite, config.DriverMySQL:
		return func() (committer.TransactionManager, error) {
			m, err := committer.OpenSQLManager(t.Driver, t.DSN, clk)
			if err != nil {
				return nil, err
			}
			return m, nil
		}, nil
	case config.DriverPostgres:
		return func() (committer.TransactionManager, error) {
			m, err := committer.OpenGormManager(t.DSN, clk)
			if err != nil {
				return nil, err
			}
			return m, nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported target driver %q", t.Driver)
}

type targetReader interface {
	contracts.TargetReader
	Close() error
}

// openTargetReader opens one manager of the configured target for reading.
func openTargetReader(ctx context.Context, t config.TargetConfiguration) (targetReader, error) {
	factory, err := targetFactory(ctx, t, nil)
	if err != nil {
		return nil, err
	}
	tm, err := factory()
	if err != nil {
		return nil, err
	}
	r, ok := tm.(targetReader)
	if !ok {
		tm.Close()
		return nil, fmt.Errorf("target driver %s cannot be read back", t.Driver)
	}
	return r, nil
}
