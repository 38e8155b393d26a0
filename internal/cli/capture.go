package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nzb155/nomulus/internal/app/migration/usecases/capture_fixtures"
)

// CaptureOptions holds flags for the capture-fixtures command.
type CaptureOptions struct {
	*RootOptions
	Request capture_fixtures.Request
}

func NewCaptureFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture-fixtures",
		Short: "Seed the legacy store with a registrar and its contacts",
		Long: `Seed the legacy store with one registrar and the contacts it sponsors.

Example:
  initsql capture-fixtures --config initsql.toml --contacts 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Request.Contacts, "contacts", 10, "number of contacts to capture")
	f.StringVar(&opts.Request.RegistrarID, "registrar", "TheRegistrar", "client id of the sponsoring registrar")
	f.StringVar(&opts.Request.RegistrarName, "registrar-name", "The Registrar", "display name of the registrar")
	f.Int64Var(&opts.Request.IanaID, "iana", 1, "IANA identifier of the registrar")
	f.StringVar(&opts.Request.CountryCode, "country", "US", "two-letter country code of every contact")
	return cmd
}

func runCapture(opts *CaptureOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	store, err := openSource(cfg, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open legacy store", err)
	}
	defer store.Close()

	res, err := capture_fixtures.NewInteractor(store, nil).Execute(cmd.Context(), opts.Request)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to capture fixtures", err)
	}

	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	return p.result(true, res, nil, func(w io.Writer) {
		fmt.Fprintf(w, "captured registrar %s and %d contacts into %s\n", res.RegistrarID, len(res.ContactIDs), store.Path())
	})
}
