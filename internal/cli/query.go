package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	FilterOptions
	Limit int
	Save  string // name to save the query under
}

// QueryResult lists the records a query selected.
type QueryResult struct {
	Table   string         `json:"table"`
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Records []store.Record `json:"records"`
	Saved   string         `json:"saved,omitempty"`
}

func (r QueryResult) String() string {
	var b strings.Builder
	for _, rec := range r.Records {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "%s", rec.ID)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, rec.Fields[k])
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d record(s) in %s", r.Count, r.Table)
	if r.Saved != "" {
		fmt.Fprintf(&b, "\nsaved as %s", r.Saved)
	}
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{FilterOptions: FilterOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query <db> <table> <query>",
		Short: "Run a query against a SQLite table",
		Long: `Run a query against a record table in an existing SQLite database and
print the matching records ordered by id.

Exit codes:
  0 - At least one record matched
  1 - Query failed or nothing matched
  2 - Command error (missing database, bad flags)

Examples:
  sieve query ./people.db people -s name,age "age=ge=18"
  sieve query ./people.db people -s name,age "age=ge=18" --save adults`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], args[2], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum records (0 = unlimited)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "save the query in the database under this name")

	return cmd
}

func runQuery(opts *QueryOptions, dbPath, table, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return f.Fail(withCode(ErrCodeNotFound, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))), ExitCommandError)
	}
	if opts.Limit < 0 {
		return f.Fail(NewExitError(ExitCommandError, "--limit must not be negative"), ExitCommandError)
	}
	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}
	text, root, err := setup.Parse(arg)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(dbPath)
	if err != nil {
		return f.Fail(withCode(ErrCodeStore, err), ExitCommandError)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	tables, err := st.Tables(ctx)
	if err != nil {
		return f.Fail(withCode(ErrCodeStore, err), ExitCommandError)
	}
	if !slices.Contains(tables, table) {
		msg := fmt.Sprintf("table %q not found in %s (have %s)", table, dbPath, strings.Join(tables, ", "))
		return f.Fail(withCode(ErrCodeNotFound, NewExitError(ExitCommandError, msg)), ExitCommandError)
	}

	records, err := st.Find(ctx, table, root, store.FindOptions{Config: setup.Config, Limit: opts.Limit})
	if err != nil {
		return f.Fail(withCode(ErrCodeStore, err), ExitFailure)
	}
	slog.Debug("query finished", "table", table, "matched", len(records))

	result := QueryResult{Table: table, Query: text, Count: len(records), Records: records}
	if opts.Save != "" {
		if err := st.SaveQuery(ctx, opts.Save, root, setup.Selectors); err != nil {
			return f.Fail(withCode(ErrCodeStore, err), ExitFailure)
		}
		result.Saved = opts.Save
	}

	if err := f.Success(result); err != nil {
		return err
	}
	if len(records) == 0 {
		return &ExitError{Code: ExitFailure, Message: "no records matched", Reported: true}
	}
	return nil
}
