package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/nzb155/nomulus/internal/app/migration/queries/verify_counts"
	"github.com/nzb155/nomulus/internal/app/migration/repo"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Kinds []string
}

func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare legacy-store entity counts with target row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "verify only these kinds (default: every configured kind)")
	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = cfg.KindNames()
	}

	ctx := cmd.Context()
	store, err := openSource(cfg, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open legacy store", err)
	}
	defer store.Close()

	reader, err := openTargetReader(ctx, cfg.Target)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open target", err)
	}
	defer reader.Close()

	counts, err := verify_counts.NewHandler(store, reader, repo.NewRegistry(store.Codec())).Execute(ctx, kinds)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	var failure error
	if !verify_counts.AllMatch(counts) {
		failure = NewExitError(ExitFailure, "source and target row counts do not match")
	}
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	if err := p.result(failure == nil, counts, failure, func(w io.Writer) { printCounts(w, counts) }); err != nil {
		return err
	}
	return failure
}
