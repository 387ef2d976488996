package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/printer"
)

// ParseResult describes one parsed query.
type ParseResult struct {
	Query       string          `json:"query"`
	Canonical   string          `json:"canonical"`
	Fingerprint string          `json:"fingerprint"`
	Tree        json.RawMessage `json:"tree"`
}

func (r ParseResult) String() string {
	return fmt.Sprintf("canonical:   %s\nfingerprint: %s\ntree:        %s", r.Canonical, r.Fingerprint, r.Tree)
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and show its tree",
		Long: `Parse a query against the allowed selectors and print its canonical
form, fingerprint and tree.

An argument of the form @name refers to a query saved in the profile.

Examples:
  sieve parse -s name,age "name=='Ada';age=gt=30"
  sieve parse --profile ./profiles --use users @adults --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runParse(opts *FilterOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}
	text, root, err := setup.Parse(arg)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}

	result, err := describe(text, root)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	f.VerboseLog("selectors used: %s", strings.Join(ir.SelectorsOf(root), ", "))
	f.VerboseLog("allow-list fingerprint: %s", ir.SelectorsFingerprint(setup.Selectors))
	return f.Success(result)
}

func describe(text string, root ir.Node) (ParseResult, error) {
	canonical, err := printer.Print(root)
	if err != nil {
		return ParseResult{}, err
	}
	fp, err := ir.Fingerprint(root)
	if err != nil {
		return ParseResult{}, err
	}
	tree, err := ir.MarshalCanonical(root)
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{
		Query:       text,
		Canonical:   canonical,
		Fingerprint: fp,
		Tree:        tree,
	}, nil
}

// FmtResult pairs a query with its canonical form.
type FmtResult struct {
	Query     string `json:"query"`
	Canonical string `json:"canonical"`
}

type fmtResults []FmtResult

func (rs fmtResults) String() string {
	lines := make([]string, len(rs))
	for i, r := range rs {
		lines[i] = r.Canonical
	}
	return strings.Join(lines, "\n")
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fmt <query>...",
		Short: "Print queries in canonical form",
		Long: `Print each query in canonical form, one per line. Redundant groups
are removed and literals are written in their normal spelling.

Example:
  sieve fmt -s a,b,c "(a==1,b==2);c==3" "a==0x10"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runFmt(opts *FilterOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}

	results := make(fmtResults, 0, len(args))
	for _, arg := range args {
		text, root, err := setup.Parse(arg)
		if err != nil {
			return f.Fail(err, ExitFailure)
		}
		canonical, err := printer.Print(root)
		if err != nil {
			return f.Fail(err, ExitFailure)
		}
		results = append(results, FmtResult{Query: text, Canonical: canonical})
	}
	return f.Success(results)
}
