package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sieve/internal/compiler"
)

// LoadMode controls how errors are handled during profile loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the profiles loaded from a file or directory.
type LoadResult struct {
	Profiles  map[string]*compiler.Profile
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// Names returns the profile names in sorted order.
func (r *LoadResult) Names() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadError represents an error that occurred during profile loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProfiles loads the selector profiles declared under "profile" in a
// CUE file, or in the CUE package of a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadProfiles(path string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profile path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing profile path: %v", err)}}
	}

	dir, args := path, []string{"."}
	cueFiles := []string{path}
	if info.IsDir() {
		cueFiles, err = FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
	} else {
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		Profiles:  make(map[string]*compiler.Profile),
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	profilesVal := value.LookupPath(cue.ParsePath("profile"))
	if !profilesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoProfiles, Message: "no profiles found (expected a top-level \"profile\" struct)"}}
	}

	iter, err := profilesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating profiles: %v", err)}}
	}
	for iter.Next() {
		p, compileErr := compiler.CompileProfile(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertProfileError(compileErr, "profile."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Profiles[p.Name] = p
	}

	if len(result.Profiles) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoProfiles, Message: "profile struct is empty"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertProfileError converts a profile error to a LoadError with position info.
func convertProfileError(err error, context string) *LoadError {
	var pe *compiler.ProfileError
	if errors.As(err, &pe) {
		return &LoadError{
			Code:    MapFieldToErrorCode(pe.Field),
			Message: fmt.Sprintf("%s: %s", context, pe.Message),
			Pos:     pe.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadRecords  = "E008" // Records file unreadable

	// Profile errors
	ErrCodeNoProfiles      = "E101" // No profile declared
	ErrCodeProfileSelector = "E102" // Missing or invalid selectors
	ErrCodeProfileMapping  = "E103" // Mapping for an unknown selector
	ErrCodeProfileQuery    = "E104" // Saved query does not parse

	// Filter errors not raised by the parser
	ErrCodeTranslate = "E301" // Constraint has no predicate form
	ErrCodeEvaluate  = "E302" // Record value cannot be evaluated
	ErrCodeStore     = "E303" // Store query failed

	// Harness errors
	ErrCodeScenario = "E401" // One or more scenarios failed
)

// MapFieldToErrorCode maps a profile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "selectors":
		return ErrCodeProfileSelector
	case strings.HasPrefix(field, "mapping."):
		return ErrCodeProfileMapping
	case strings.HasPrefix(field, "queries."):
		return ErrCodeProfileQuery
	default:
		return ErrCodeGeneric
	}
}
