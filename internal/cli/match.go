package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/engine"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	FilterOptions
	Geodesic bool
	IDField  string
}

// MatchResult lists the records a query matched in memory.
type MatchResult struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Matched []int    `json:"matched"`
	IDs     []string `json:"ids,omitempty"`
}

func (r MatchResult) String() string {
	var b strings.Builder
	for i, idx := range r.Matched {
		if r.IDs != nil && r.IDs[i] != "" {
			fmt.Fprintf(&b, "%s\n", r.IDs[i])
			continue
		}
		fmt.Fprintf(&b, "#%d\n", idx)
	}
	fmt.Fprintf(&b, "%d of %d record(s) matched", len(r.Matched), r.Total)
	return b.String()
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{FilterOptions: FilterOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "match <records.yaml> <query>",
		Short: "Evaluate a query against records in memory",
		Long: `Evaluate a query against a YAML list of records without a database.

Nested maps are reached with dotted selectors. Geometry fields hold WKT
strings or [x, y] pairs.

Exit codes:
  0 - At least one record matched
  1 - Query failed or nothing matched
  2 - Command error (unreadable records, bad flags)

Example:
  sieve match people.yaml -s name,address.city "address.city=in=['London','Paris']"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args[0], args[1], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Geodesic, "geodesic", false, "measure =near= distances in meters over lon/lat")
	cmd.Flags().StringVar(&opts.IDField, "id", "id", "record field printed for matches")

	return cmd
}

func runMatch(opts *MatchOptions, recordsPath, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	records, err := loadRecords(recordsPath)
	if err != nil {
		return f.Fail(withCode(ErrCodeBadRecords, WrapExitError(ExitCommandError, "failed to read records", err)), ExitCommandError)
	}
	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}
	text, root, err := setup.Parse(arg)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}

	engineOpts := []engine.Option{engine.WithConfig(setup.Config)}
	if opts.Geodesic {
		engineOpts = append(engineOpts, engine.WithGeodesic())
	}
	filter, err := engine.Compile(root, engineOpts...)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	matched, err := filter.Select(records)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	slog.Debug("match finished", "records", len(records), "matched", len(matched))

	result := MatchResult{Query: text, Total: len(records), Matched: matched}
	if ids := recordIDs(records, matched, opts.IDField); len(ids) > 0 {
		result.IDs = ids
	}

	if err := f.Success(result); err != nil {
		return err
	}
	if len(matched) == 0 {
		return &ExitError{Code: ExitFailure, Message: "no records matched", Reported: true}
	}
	return nil
}

// loadRecords reads a YAML sequence of mappings.
func loadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("%s: record %d is not a mapping", path, i)
		}
	}
	return records, nil
}

// recordIDs returns the id field of each matched record, or nil when no
// matched record has one.
func recordIDs(records []map[string]any, matched []int, field string) []string {
	if field == "" {
		return nil
	}
	ids := make([]string, len(matched))
	found := false
	for i, idx := range matched {
		if v, ok := records[idx][field]; ok && v != nil {
			ids[i] = fmt.Sprint(v)
			found = true
		}
	}
	if !found {
		return nil
	}
	return ids
}
