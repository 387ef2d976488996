package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_People(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Cases, len(s.Cases))

	assert.Equal(t, []string{"p2", "p3"}, result.Cases[0].Matched)
	assert.Equal(t, []string{"p2", "p3"}, result.Cases[0].Stored)
	assert.Equal(t, "malformed sequence", result.Cases[6].ErrorKind)
	assert.Equal(t, "E202", result.Cases[7].ErrorCode)
}

func TestRun_ReportsFailures(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failing
selectors: [a]
records:
  - {id: r1, a: 1}
  - {id: r2, a: 2}
cases:
  - query: "a=gt=1"
    expect:
      print: "a>1"
      match: [r1]
  - query: "a==1"
    expect:
      error: E201
  - query: "a==1,"
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "cases[0]: a=gt=1 print")
	assert.Contains(t, result.Errors[1], "cases[0]: a=gt=1 match")
	assert.Contains(t, result.Errors[2], "cases[1]: a==1 error: expected \"E201\", got no error")
	assert.Contains(t, result.Errors[3], "cases[2]")
	assert.Equal(t, []string{"r2"}, result.Cases[0].Matched)
	assert.Nil(t, result.Cases[0].Stored)
}

func TestRun_TranslationAndEvaluationErrors(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: errors
selectors: [a, geo]
records:
  - {id: r1, a: 1, geo: "not wkt"}
cases:
  - query: "a=gt=null"
    expect:
      error: "null values are not ordered"
  - query: "geo=near=['POINT(0 0)',1]"
    expect:
      error: INVALID_GEOMETRY
  - query: "geo=within='POLYGON((0 0,1 0,1 1,0 1,0 0))'"
    expect:
      sql: "SELECT * FROM records WHERE ST_Within(GeomFromText(geo), GeomFromText(?)) ORDER BY id COLLATE BINARY ASC"
      params: ["POLYGON((0 0,1 0,1 1,0 1,0 0))"]
      portable: false
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Cases, 3)
	assert.Equal(t, "a=gt=null", result.Cases[0].Print)
	assert.Empty(t, result.Cases[0].SQL)
	assert.Contains(t, result.Cases[1].Error, "INVALID_GEOMETRY")
	assert.NotEmpty(t, result.Cases[1].SQL)

	// the third case evaluates the same bad geometry
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cases[2]")
	assert.Contains(t, result.Errors[0], "INVALID_GEOMETRY")
}

func TestRun_StoreLoadFailure(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: lists
selectors: [tags]
records:
  - {id: r1, tags: [a, b]}
cases:
  - query: "tags=='a'"
    expect:
      stored: [r1]
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records[0]")
}

func TestRun_Nil(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)
}
