package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nzb155/nomulus/internal/pkg/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Print bool
}

func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the target tables",
		Long: `Create the Contact and Registrar tables in the configured target store.

For spanner the database must already exist; the DSN is its full name, e.g.
projects/test-project/instances/emulator-instance/databases/test-db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Print, "print", false, "print the DDL instead of applying it")
	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}

	if opts.Print {
		stmts, err := schema.Statements(cfg.Target.Driver)
		if err != nil {
			return WrapExitError(ExitCommandError, "no schema for driver", err)
		}
		return p.result(true, stmts, nil, func(w io.Writer) {
			fmt.Fprintln(w, strings.Join(stmts, ";\n\n")+";")
		})
	}

	n, err := schema.Apply(cmd.Context(), cfg.Target.Driver, cfg.Target.DSN)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to apply schema", err)
	}
	return p.result(true, map[string]int{"statements": n}, nil, func(w io.Writer) {
		fmt.Fprintf(w, "Applied %d DDL statements to the %s target\n", n, cfg.Target.Driver)
	})
}
