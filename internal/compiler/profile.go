package compiler

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	cuetoken "cuelang.org/go/cue/token"

	"github.com/roach88/sieve/internal/ir"
)

// Profile is a named selector allow-list with backend configuration and
// optional saved queries, declared in CUE:
//
//	profile: users: {
//		selectors: ["name", "age", "address.city"]
//		mapping: "address.city": "city"
//		wildcard: true
//		queries: adults: "age=ge=18"
//	}
type Profile struct {
	Name      string
	Selectors ir.Selectors
	Config    ir.Config
	// Queries are saved filters already compiled against Selectors.
	Queries map[string]ir.Node
	// Sources keeps the query text of each saved query.
	Sources map[string]string
}

// QueryNames returns the saved query names in sorted order.
func (p *Profile) QueryNames() []string {
	names := make([]string, 0, len(p.Queries))
	for name := range p.Queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompileProfile parses a CUE value into a Profile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the profile struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`profile: users: { selectors: ["name"] }`)
//	p, err := CompileProfile(v.LookupPath(cue.ParsePath("profile.users")))
func CompileProfile(v cue.Value) (*Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Profile{
		Queries: make(map[string]ir.Node),
		Sources: make(map[string]string),
	}

	// Profile name from struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labels[len(labels)-1].String()
	}

	// Selectors (required, at least one)
	selVal := v.LookupPath(cue.ParsePath("selectors"))
	if !selVal.Exists() {
		return nil, &ProfileError{
			Field:   "selectors",
			Message: "selectors is required",
			Pos:     v.Pos(),
		}
	}
	var paths []string
	if err := selVal.Decode(&paths); err != nil {
		return nil, formatCUEError(err)
	}
	if len(paths) == 0 {
		return nil, &ProfileError{
			Field:   "selectors",
			Message: "at least one selector is required",
			Pos:     selVal.Pos(),
		}
	}
	sels, err := ir.NewSelectors(paths...)
	if err != nil {
		return nil, &ProfileError{Field: "selectors", Message: err.Error(), Pos: selVal.Pos()}
	}
	p.Selectors = sels

	// Mapping (optional)
	mapVal := v.LookupPath(cue.ParsePath("mapping"))
	if mapVal.Exists() {
		mapping := make(map[string]string)
		if err := mapVal.Decode(&mapping); err != nil {
			return nil, formatCUEError(err)
		}
		for from := range mapping {
			if !sels.Contains(from) {
				return nil, &ProfileError{
					Field:   "mapping." + from,
					Message: fmt.Sprintf("mapping for unknown selector %q", from),
					Pos:     mapVal.Pos(),
				}
			}
		}
		p.Config.FieldMapping = mapping
	}

	// Wildcard (optional)
	wildVal := v.LookupPath(cue.ParsePath("wildcard"))
	if wildVal.Exists() {
		wildcard, err := wildVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Config.WildcardEquality = wildcard
	}

	// Queries (optional)
	queriesVal := v.LookupPath(cue.ParsePath("queries"))
	if queriesVal.Exists() {
		iter, err := queriesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Label()
			text, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			root, err := Parse(text, sels)
			if err != nil {
				return nil, &ProfileError{
					Field:   "queries." + name,
					Message: err.Error(),
					Pos:     iter.Value().Pos(),
				}
			}
			p.Queries[name] = root
			p.Sources[name] = text
		}
	}

	return p, nil
}

// ProfileError represents a profile compilation error with source position.
type ProfileError struct {
	Field   string
	Message string
	Pos     cuetoken.Pos
}

func (e *ProfileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ProfileError{Field: "cue", Message: err.Error()}
	}

	// Return first error with position info
	firstErr := errs[0]
	pe := &ProfileError{Field: "cue", Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		pe.Pos = positions[0]
	}
	return pe
}
