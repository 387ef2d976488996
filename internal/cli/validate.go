package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/queryir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Query     string   `json:"query"`
	Canonical string   `json:"canonical"`
	Valid     bool     `json:"valid"`
	Portable  bool     `json:"portable"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s", r.Canonical)
	if r.Portable {
		b.WriteString("\n  portable")
		return b.String()
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n  warning: %s", w)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query>",
		Short: "Check a query without running it",
		Long: `Parse and translate a query, then report features outside the portable
fragment: NULL tests, spatial predicates and exact float equality.

Non-portable queries are still valid. Warnings do not change the exit code.

Exit codes:
  0 - Query is valid
  1 - Query does not parse or translate
  2 - Command error (bad flags, unreadable profile)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *FilterOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	setup, err := opts.resolve()
	if err != nil {
		return f.Fail(err, ExitCommandError)
	}
	text, root, err := setup.Parse(arg)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	described, err := describe(text, root)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}

	pred, err := queryir.Translate(root, setup.Config)
	if err != nil {
		return f.Fail(err, ExitFailure)
	}
	report := queryir.ValidatePredicate(pred)
	for _, w := range report.Warnings {
		f.VerboseLog("portability: %s", w)
	}

	return f.Success(ValidationResult{
		Query:     text,
		Canonical: described.Canonical,
		Valid:     true,
		Portable:  report.IsPortable,
		Warnings:  report.Warnings,
	})
}
