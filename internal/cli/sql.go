package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	FilterOptions
	Table   string
	Limit   int
	Spatial bool
}

// SQLResult is a compiled statement.
type SQLResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func (r SQLResult) String() string {
	return fmt.Sprintf("%s\nparams: %v", r.SQL, r.Params)
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{FilterOptions: FilterOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Compile a query to parameterized SQL",
		Long: `Compile a query to the SQLite statement sieve runs for it. Values are
always bound as parameters.

Spatial and proximity comparisons need --spatial, which emits SpatiaLite
functions over WKT columns.

Example:
  sieve sql -s name,age --table people "name=='Ada*';age=lt=40" --wildcard`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Table, "table", "records", "table to select from")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Spatial, "spatial", false, "emit SpatiaLite functions for spatial comparisons")

	return cmd
}

func runSQL(opts *SQLOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return f.Fail(NewExitError(ExitCommandError, "--limit must not be negative"), ExitCommandError)
	}
	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}
	_, root, err := setup.Parse(arg)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	pred, err := queryir.Translate(root, setup.Config)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}

	c := &querysql.SQLCompiler{Spatial: opts.Spatial}
	sqlText, params, err := c.Compile(queryir.Select{From: opts.Table, Filter: pred, Limit: opts.Limit})
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	if params == nil {
		params = []any{}
	}
	return f.Success(SQLResult{SQL: sqlText, Params: params})
}
