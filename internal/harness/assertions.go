package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Check    string // print, error, sql, params, match, stored or portable
	Query    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s %s: expected %s, got %s", e.Query, e.Check, e.Expected, e.Actual)
}

// CheckCase compares a case result with the case's expectations and returns
// one error per failed check.
func CheckCase(c Case, cr CaseResult) []error {
	fail := func(check, expected, actual string) error {
		return &AssertionError{Check: check, Query: c.Query, Expected: expected, Actual: actual}
	}
	e := c.Expect

	if e.Error != "" {
		if cr.Error == "" {
			return []error{fail("error", fmt.Sprintf("%q", e.Error), "no error")}
		}
		if !errorMatches(e.Error, cr) {
			return []error{fail("error", fmt.Sprintf("%q", e.Error), fmt.Sprintf("%q", cr.Error))}
		}
		return nil
	}
	if cr.Error != "" {
		return []error{fail("error", "no error", fmt.Sprintf("%q", cr.Error))}
	}

	var errs []error
	if e.Print != "" && e.Print != cr.Print {
		errs = append(errs, fail("print", fmt.Sprintf("%q", e.Print), fmt.Sprintf("%q", cr.Print)))
	}
	if e.SQL != "" {
		if e.SQL != cr.SQL {
			errs = append(errs, fail("sql", fmt.Sprintf("%q", e.SQL), fmt.Sprintf("%q", cr.SQL)))
		}
		if e.Params != nil && !paramsEqual(e.Params, cr.Params) {
			errs = append(errs, fail("params", fmt.Sprint(e.Params), fmt.Sprint(cr.Params)))
		}
	}
	if e.Match != nil && !sameIDs(e.Match, cr.Matched) {
		errs = append(errs, fail("match", fmt.Sprint(e.Match), fmt.Sprint(cr.Matched)))
	}
	if e.Stored != nil && !sameIDs(e.Stored, cr.Stored) {
		errs = append(errs, fail("stored", fmt.Sprint(e.Stored), fmt.Sprint(cr.Stored)))
	}
	if e.Portable != nil && *e.Portable != cr.Portable {
		errs = append(errs, fail("portable", fmt.Sprint(*e.Portable), fmt.Sprint(cr.Portable)))
	}
	return errs
}

// errorMatches accepts an error kind name, an error code or a message fragment.
func errorMatches(expected string, cr CaseResult) bool {
	return expected == cr.ErrorKind || expected == cr.ErrorCode || strings.Contains(cr.Error, expected)
}

// paramsEqual compares parameters by their %v form, so YAML's int matches
// the int64 the compiler binds.
func paramsEqual(expected, actual []any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if fmt.Sprint(expected[i]) != fmt.Sprint(actual[i]) {
			return false
		}
	}
	return true
}

// sameIDs compares two id lists ignoring order.
func sameIDs(expected, actual []string) bool {
	a := slices.Sorted(slices.Values(expected))
	b := slices.Sorted(slices.Values(actual))
	return slices.Equal(a, b)
}
