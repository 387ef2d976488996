package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/ir"
)

// Scenario defines a conformance scenario: a selector allow-list, optional
// records, and queries with their expected canonical form, errors, SQL and
// matches.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Selectors is the allow-list every query is parsed against.
	Selectors []string `yaml:"selectors"`

	// Config controls translation for sql, match and stored expectations.
	Config Config `yaml:"config,omitempty"`

	// Records are evaluated by match expectations and, when a case expects
	// stored results, written to an in-memory SQLite table. Each record
	// needs a string id.
	Records []map[string]any `yaml:"records,omitempty"`

	// Cases are the queries to run, in order.
	Cases []Case `yaml:"cases"`
}

// Config mirrors ir.Config plus evaluator options.
type Config struct {
	// Mapping renames selectors to record fields and columns.
	Mapping map[string]string `yaml:"mapping,omitempty"`

	// Wildcard enables '*' patterns in == and !=.
	Wildcard bool `yaml:"wildcard,omitempty"`

	// Geodesic makes =near= distances meters on a sphere.
	Geodesic bool `yaml:"geodesic,omitempty"`
}

// IR returns the translation config.
func (c Config) IR() ir.Config {
	return ir.Config{FieldMapping: c.Mapping, WildcardEquality: c.Wildcard}
}

// Case is one query and what it should produce.
type Case struct {
	// Query is the filter text.
	Query string `yaml:"query"`

	// Expect lists the checks. A case without expectations only has to
	// parse.
	Expect Expect `yaml:"expect,omitempty"`
}

// Expect holds the checks for a case. Empty fields are not checked.
type Expect struct {
	// Print is the expected canonical form.
	Print string `yaml:"print,omitempty"`

	// Error is the expected failure: an error kind ("malformed sequence"),
	// its code ("E204") or a fragment of the message.
	Error string `yaml:"error,omitempty"`

	// SQL is the expected statement against the "records" table.
	SQL string `yaml:"sql,omitempty"`

	// Params are the expected SQL parameters, compared in their %v form.
	Params []any `yaml:"params,omitempty"`

	// Match is the ids of records the in-memory evaluator selects.
	Match []string `yaml:"match,omitempty"`

	// Stored is the ids of records the SQLite store returns.
	Stored []string `yaml:"stored,omitempty"`

	// Portable is the expected portability verdict.
	Portable *bool `yaml:"portable,omitempty"`
}

// Table is the table records are stored in and SQL is compiled against.
const Table = "records"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Selectors) == 0 {
		return fmt.Errorf("selectors list is required and must be non-empty")
	}
	if _, err := ir.NewSelectors(s.Selectors...); err != nil {
		return fmt.Errorf("selectors: %w", err)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, rec := range s.Records {
		id, ok := rec["id"].(string)
		if !ok || id == "" {
			return fmt.Errorf("records[%d]: id is required and must be a string", i)
		}
		if seen[id] {
			return fmt.Errorf("records[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
	}

	for i, c := range s.Cases {
		if err := validateCase(i, c, seen); err != nil {
			return err
		}
	}

	return nil
}

// validateCase validates a single case against the scenario's record ids.
func validateCase(index int, c Case, ids map[string]bool) error {
	if c.Query == "" {
		return fmt.Errorf("cases[%d]: query is required", index)
	}

	e := c.Expect
	if e.Error != "" && (e.Print != "" || e.SQL != "" || e.Match != nil || e.Stored != nil) {
		return fmt.Errorf("cases[%d]: error cannot be combined with other expectations", index)
	}
	if len(e.Params) > 0 && e.SQL == "" {
		return fmt.Errorf("cases[%d]: params require sql", index)
	}

	for _, id := range append(append([]string{}, e.Match...), e.Stored...) {
		if !ids[id] {
			return fmt.Errorf("cases[%d]: unknown record id %q", index, id)
		}
	}

	return nil
}

// needsStore reports whether any case checks stored results.
func (s *Scenario) needsStore() bool {
	for _, c := range s.Cases {
		if c.Expect.Stored != nil {
			return true
		}
	}
	return false
}
