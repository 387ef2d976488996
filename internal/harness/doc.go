// Package harness runs conformance scenarios against the whole pipeline:
// parser, printer, translation, SQL compiler, in-memory evaluator and the
// SQLite store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: people
//	description: "Numeric and text filters over a small table"
//	selectors: [name, age, address.city]
//	config:
//	  mapping: { address.city: city }
//	  wildcard: true
//	records:
//	  - { id: p1, name: Ada, age: 36, city: London }
//	cases:
//	  - query: "age=gt=30"
//	    expect:
//	      print: "age=gt=30"
//	      sql: "SELECT * FROM records WHERE age > ? ORDER BY id COLLATE BINARY ASC"
//	      params: [30]
//	      match: [p1]
//	      stored: [p1]
//	      portable: true
//	  - query: "age==1;"
//	    expect:
//	      error: malformed sequence
//
// # Expectations
//
//   - print: canonical form from the printer
//   - error: error kind name, error code or message fragment
//   - sql, params: statement compiled against the "records" table
//   - match: ids selected by the in-memory evaluator
//   - stored: ids returned by the SQLite store (records are loaded into an
//     in-memory database only when some case sets this)
//   - portable: portability verdict of the translated predicate
//
// Unknown YAML fields are rejected so that typos do not silently disable
// a check.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
