package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Selectors is an immutable allow-list of selector paths.
//
// Paths are kept in reverse lexicographic order so that a longer path is
// always tried before any of its prefixes ("first.second" before "first").
// A Selectors value is safe for concurrent use.
type Selectors struct {
	desc []string
	set  map[string]struct{}
}

// NewSelectors builds an allow-list. Every path must be one or more
// identifiers joined by dots; duplicates are ignored.
func NewSelectors(paths ...string) (Selectors, error) {
	set := make(map[string]struct{}, len(paths))
	desc := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return Selectors{}, err
		}
		if _, dup := set[p]; dup {
			continue
		}
		set[p] = struct{}{}
		desc = append(desc, p)
	}
	slices.SortFunc(desc, func(a, b string) int { return strings.Compare(b, a) })
	return Selectors{desc: desc, set: set}, nil
}

// MustSelectors is NewSelectors for fixed, known-good lists. It panics on error.
func MustSelectors(paths ...string) Selectors {
	s, err := NewSelectors(paths...)
	if err != nil {
		panic(err)
	}
	return s
}

// Contains reports whether path is allowed.
func (s Selectors) Contains(path string) bool {
	_, ok := s.set[path]
	return ok
}

// Descending returns a copy of the allowed paths in reverse lexicographic order.
func (s Selectors) Descending() []string {
	return slices.Clone(s.desc)
}

// Len returns the number of allowed paths.
func (s Selectors) Len() int {
	return len(s.desc)
}

// Match returns the longest allowed path that prefixes input and ends on a
// segment boundary.
func (s Selectors) Match(input string) (string, bool) {
	for _, p := range s.desc {
		if !strings.HasPrefix(input, p) {
			continue
		}
		rest := input[len(p):]
		if rest == "" || !continuesPath(rest) {
			return p, true
		}
	}
	return "", false
}

// continuesPath reports whether rest would extend a selector path: another
// identifier character, or a dot followed by an identifier start.
func continuesPath(rest string) bool {
	c := rest[0]
	if IsIdentChar(c) {
		return true
	}
	return c == '.' && len(rest) > 1 && IsIdentStart(rest[1])
}

// ValidatePath checks the shape of a selector path.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("selector must not be empty")
	}
	for i, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("selector %q: empty segment at %d", path, i)
		}
		if !IsIdentStart(seg[0]) {
			return fmt.Errorf("selector %q: segment %q must start with a letter or underscore", path, seg)
		}
		for j := 1; j < len(seg); j++ {
			if !IsIdentChar(seg[j]) {
				return fmt.Errorf("selector %q: invalid character %q", path, seg[j])
			}
		}
	}
	return nil
}

// IsIdentStart reports whether c may start an identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentChar reports whether c may continue an identifier.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || (c >= '0' && c <= '9')
}
