package cli

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
)

// FilterOptions holds the flags that decide how a query is parsed and
// translated.
type FilterOptions struct {
	*RootOptions
	Selectors   []string // allowed selectors
	Mappings    []string // from=to field mappings
	Wildcard    bool
	Profile     string // CUE file or directory
	ProfileName string // profile to use when several are declared
}

func (o *FilterOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVarP(&o.Selectors, "selector", "s", nil, "allowed selector path (repeatable, comma separated)")
	f.StringArrayVar(&o.Mappings, "map", nil, "selector to field mapping as from=to (repeatable)")
	f.BoolVar(&o.Wildcard, "wildcard", false, "treat '*' in == and != strings as a wildcard")
	f.StringVar(&o.Profile, "profile", "", "CUE file or directory declaring selector profiles")
	f.StringVar(&o.ProfileName, "use", "", "profile to use when --profile declares several")
}

// FilterSetup is the resolved allow-list and translation config.
type FilterSetup struct {
	Selectors ir.Selectors
	Config    ir.Config
	Profile   *compiler.Profile // nil without --profile
}

// resolve merges the profile with the command line flags. Flags add
// selectors and override mappings.
func (o *FilterOptions) resolve() (*FilterSetup, error) {
	setup := &FilterSetup{}
	var paths []string
	mapping := make(map[string]string)

	if o.Profile != "" {
		p, err := o.loadProfile()
		if err != nil {
			return nil, err
		}
		setup.Profile = p
		paths = append(paths, p.Selectors.Descending()...)
		maps.Copy(mapping, p.Config.FieldMapping)
		setup.Config.WildcardEquality = p.Config.WildcardEquality
	}

	paths = append(paths, o.Selectors...)
	if len(paths) == 0 {
		return nil, NewExitError(ExitCommandError, "no selectors: use --selector or --profile")
	}
	sels, err := ir.NewSelectors(paths...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid selector", err)
	}
	setup.Selectors = sels

	for _, m := range o.Mappings {
		from, to, ok := strings.Cut(m, "=")
		if !ok || from == "" || to == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid mapping %q: expected from=to", m))
		}
		mapping[from] = to
	}
	if len(mapping) > 0 {
		setup.Config.FieldMapping = mapping
	}
	if o.Wildcard {
		setup.Config.WildcardEquality = true
	}

	return setup, nil
}

func (o *FilterOptions) loadProfile() (*compiler.Profile, error) {
	result, errs := LoadProfiles(o.Profile, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load profile", errs[0])
	}

	if o.ProfileName != "" {
		p, ok := result.Profiles[o.ProfileName]
		if !ok {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("profile %q not found (have %s)", o.ProfileName, strings.Join(result.Names(), ", ")))
		}
		return p, nil
	}
	if len(result.Profiles) != 1 {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s declares %d profiles, choose one with --use (%s)",
				o.Profile, len(result.Profiles), strings.Join(result.Names(), ", ")))
	}
	return result.Profiles[result.Names()[0]], nil
}

// errUnknownQuery is returned for an @name that the profile does not save.
var errUnknownQuery = errors.New("unknown saved query")

// Source returns the query text for a command argument. An argument of the
// form @name refers to a query saved in the profile.
func (s *FilterSetup) Source(arg string) (string, error) {
	name, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return arg, nil
	}
	if s.Profile == nil {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("%s: saved queries need --profile", arg))
	}
	text, ok := s.Profile.Sources[name]
	if !ok {
		return "", WrapExitError(ExitCommandError, arg, errUnknownQuery)
	}
	return text, nil
}

// Parse resolves and parses a query argument.
func (s *FilterSetup) Parse(arg string) (string, ir.Node, error) {
	text, err := s.Source(arg)
	if err != nil {
		return "", nil, err
	}
	root, err := compiler.Parse(text, s.Selectors)
	return text, root, err
}
