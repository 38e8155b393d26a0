package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/app/migration/queries/export_source"
	"github.com/nzb155/nomulus/internal/app/migration/queries/verify_counts"
	"github.com/nzb155/nomulus/internal/app/migration/repo"
	"github.com/nzb155/nomulus/internal/app/migration/usecases/init_sql"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/config"
	"github.com/nzb155/nomulus/internal/pkg/telemetry"
	"github.com/nzb155/nomulus/internal/transport/grpc/health"
	"github.com/nzb155/nomulus/internal/transport/http/admin"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Kinds  []string
	Verify bool
	Serve  bool

	// Clock overrides the wall clock (for testing).
	Clock clock.Clock
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate every configured kind",
		Long: `Migrate every configured kind from the legacy store into the target store.

Kinds run concurrently; a failing kind does not stop the others. The command
exits non-zero when any kind fails or, with --verify, when row counts differ.

Example:
  initsql run --config initsql.toml
  initsql run --config initsql.toml --kind ContactResource --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "migrate only these kinds (default: every configured kind)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", true, "compare source and target row counts after the run")
	cmd.Flags().BoolVar(&opts.Serve, "serve", false, "keep admin endpoints up after the run until interrupted")

	return cmd
}

// signalContext cancels on SIGINT or SIGTERM, or when parent is done.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// selectKinds narrows the configured kinds to only, keeping every kind when
// only is empty.
func selectKinds(cfg *config.Configuration, only []string) (map[string]init_sql.KindConfig, error) {
	out := make(map[string]init_sql.KindConfig)
	if len(only) == 0 {
		for name, k := range cfg.Kinds {
			out[name] = init_sql.KindConfig{NumWriters: k.Writers, BatchSize: k.BatchSize}
		}
		return out, nil
	}
	for _, name := range only {
		k, ok := cfg.Kinds[name]
		if !ok {
			return nil, fmt.Errorf("kind %q is not configured", name)
		}
		out[name] = init_sql.KindConfig{NumWriters: k.Writers, BatchSize: k.BatchSize}
	}
	return out, nil
}

type runResult struct {
	RunID        string             `json:"run_id"`
	TotalRecords int                `json:"total_records"`
	Kinds        []kindResult       `json:"kinds"`
	Counts       []dto.KindCountDTO `json:"counts,omitempty"`
}

type kindResult struct {
	Kind       string  `json:"kind"`
	Records    int     `json:"records"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

func runMigration(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	kinds, err := selectKinds(cfg, opts.Kinds)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --kind", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	reports := &admin.ReportHolder{}
	var healthSrv *health.Server
	if cfg.Admin.Enabled {
		telemetry.InitializeTelemetry(true)
		telemetry.InitMetrics()
		lis, err := net.Listen("tcp", cfg.Admin.Address)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen for admin endpoints", err)
		}
		go func() {
			h := &admin.Handlers{Reports: reports, Kinds: cfg.KindNames()}
			if err := admin.Serve(ctx, lis, h); err != nil {
				log.Error().Err(err).Msg("Admin endpoints stopped")
			}
		}()
	}
	if cfg.Admin.GRPCAddress != "" {
		lis, err := net.Listen("tcp", cfg.Admin.GRPCAddress)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen for gRPC health", err)
		}
		healthSrv = health.NewServer(cfg.KindNames())
		go func() {
			if err := healthSrv.Serve(ctx, lis); err != nil {
				log.Error().Err(err).Msg("gRPC health service stopped")
			}
		}()
	}

	store, err := openSource(cfg, clk)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open legacy store", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Error closing legacy store")
		}
	}()

	factory, err := targetFactory(ctx, cfg.Target, clk)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid target", err)
	}
	registry := repo.NewRegistry(store.Codec())

	report := init_sql.NewInteractor(registry, factory, clk).Execute(ctx, kinds, export_source.NewHandler(store))
	reports.Set(report)
	if healthSrv != nil {
		healthSrv.Track(report)
	}

	result := runResult{RunID: report.RunID, TotalRecords: report.TotalRecords()}
	for _, o := range report.Outcomes {
		kr := kindResult{Kind: o.Kind, Records: o.Records, DurationMS: float64(o.Duration.Microseconds()) / 1000}
		if o.Err != nil {
			kr.Error = o.Err.Error()
		}
		result.Kinds = append(result.Kinds, kr)
	}

	var failure error
	if !report.Succeeded() {
		failure = WrapExitError(ExitFailure, "migration failed", report.Err())
	}

	if opts.Verify && failure == nil {
		reader, err := openTargetReader(ctx, cfg.Target)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open target for verification", err)
		}
		defer reader.Close()

		names := make([]string, 0, len(kinds))
		for _, name := range cfg.KindNames() {
			if _, ok := kinds[name]; ok {
				names = append(names, name)
			}
		}
		counts, err := verify_counts.NewHandler(store, reader, registry).Execute(ctx, names)
		if err != nil {
			return WrapExitError(ExitFailure, "verification failed", err)
		}
		result.Counts = counts
		if !verify_counts.AllMatch(counts) {
			failure = NewExitError(ExitFailure, "source and target row counts do not match")
		}
	}

	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	if err := p.result(failure == nil, result, failure, func(w io.Writer) { printRun(w, result) }); err != nil {
		return err
	}

	if opts.Serve && (cfg.Admin.Enabled || cfg.Admin.GRPCAddress != "") {
		log.Info().Msg("Run finished, serving admin endpoints until interrupted")
		<-ctx.Done()
	}
	return failure
}

func printRun(w io.Writer, r runResult) {
	fmt.Fprintf(w, "run %s: %d records\n", r.RunID, r.TotalRecords)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tRECORDS\tDURATION\tRESULT")
	for _, k := range r.Kinds {
		res := "ok"
		if k.Error != "" {
			res = k.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1fms\t%s\n", k.Kind, k.Records, k.DurationMS, res)
	}
	tw.Flush()
	if len(r.Counts) > 0 {
		printCounts(w, r.Counts)
	}
}

func printCounts(w io.Writer, counts []dto.KindCountDTO) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTABLE\tSOURCE\tTARGET\tMATCH")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\n", c.Kind, c.Table, c.Source, c.Target, c.Match)
	}
	tw.Flush()
}
