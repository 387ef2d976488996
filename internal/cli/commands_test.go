package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

const testProfile = `package profiles

profile: people: {
	selectors: ["name", "age", "address.city"]
	mapping: "address.city": "city"
	wildcard: true
	queries: adults: "age=ge=18"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseCommand_Text(t *testing.T) {
	out, err := execute(t, "parse", "-s", "name,age", "(name=='Ada');age>30")
	require.NoError(t, err)
	assert.Contains(t, out, "canonical:   name=='Ada';age=gt=30")
	assert.Contains(t, out, "fingerprint: ")
	assert.Contains(t, out, "tree:        {")
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "parse", "-s", "a,b", "a==1,b==2")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "a==1,b==2", data["query"])
	assert.Equal(t, "a==1,b==2", data["canonical"])
	assert.Len(t, data["fingerprint"], 64)
	assert.IsType(t, map[string]any{}, data["tree"])
}

func TestParseCommand_SameFingerprint(t *testing.T) {
	fingerprint := func(query string) string {
		out, err := execute(t, "--format", "json", "parse", "-s", "a,b", query)
		require.NoError(t, err)
		return decodeResponse(t, out).Data.(map[string]any)["fingerprint"].(string)
	}
	assert.Equal(t, fingerprint("a==1;b==2"), fingerprint("(a==1);(b==2)"))
	assert.NotEqual(t, fingerprint("a==1;b==2"), fingerprint("a==1,b==2"))
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"unknown selector", []string{"parse", "-s", "name", "height==1"}, "E202", ExitFailure},
		{"dangling operator", []string{"parse", "-s", "a", "a==1,"}, "E204", ExitFailure},
		{"unbalanced group", []string{"parse", "-s", "a", "(a==1"}, "E203", ExitFailure},
		{"no selectors", []string{"parse", "a==1"}, ErrCodeGeneric, ExitCommandError},
		{"bad mapping", []string{"parse", "-s", "a", "--map", "a", "a==1"}, ErrCodeGeneric, ExitCommandError},
		{"saved query without profile", []string{"parse", "-s", "a", "@adults"}, ErrCodeGeneric, ExitCommandError},
		{"missing profile", []string{"parse", "--profile", "/nonexistent/profiles.cue", "a==1"}, ErrCodeNotFound, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestParseCommand_Profile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.cue", testProfile)

	out, err := execute(t, "parse", "--profile", path, "@adults")
	require.NoError(t, err)
	assert.Contains(t, out, "canonical:   age=ge=18")

	// Flags add to the profile's selectors.
	out, err = execute(t, "parse", "--profile", path, "-s", "nick", "nick==null,address.city=='London'")
	require.NoError(t, err)
	assert.Contains(t, out, "canonical:   nick==null,address.city=='London'")

	out, err = execute(t, "--format", "json", "parse", "--profile", path, "@nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, decodeResponse(t, out).Error.Message, "unknown saved query")
}

func TestFmtCommand(t *testing.T) {
	out, err := execute(t, "fmt", "-s", "a,b,c", "(a==1,b==2);c==3", "((a=='x'))", "a=in=[1,2]")
	require.NoError(t, err)
	assert.Equal(t, "a==1,b==2;c==3\na=='x'\na=in=[1,2]\n", out)
}

func TestFmtCommand_StopsAtFirstError(t *testing.T) {
	out, err := execute(t, "--format", "json", "fmt", "-s", "a", "a==1", "b==2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E202", decodeResponse(t, out).Error.Code)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "-s", "age", "age=gt=30")
	require.NoError(t, err)
	assert.Equal(t, "✓ age=gt=30\n  portable\n", out)

	out, err = execute(t, "--format", "json", "validate", "-s", "nick,score", "nick==null;score==1.5")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, false, data["portable"])
	warnings := data["warnings"].([]any)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "NULL")
	assert.Contains(t, warnings[1], "floating point")
}

func TestValidateCommand_TranslateError(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "-s", "a", "a=gt=true")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeTranslate, decodeResponse(t, out).Error.Code)
}

func TestSQLCommand(t *testing.T) {
	out, err := execute(t, "--format", "json", "sql", "-s", "name,age,address.city",
		"--table", "people", "--map", "address.city=city", "--wildcard", "--limit", "5",
		"name=='Ad*',age=lt=40;address.city=='Paris'")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t,
		`SELECT * FROM people WHERE ((name LIKE ? ESCAPE '\' AND age < ?) OR city = ?) ORDER BY id COLLATE BINARY ASC LIMIT ?`,
		data["sql"])
	assert.Equal(t, []any{"Ad%", float64(40), "Paris", float64(5)}, data["params"])
}

func TestSQLCommand_Spatial(t *testing.T) {
	query := "geo=within='POLYGON((0 0,10 0,10 10,0 10,0 0))'"

	out, err := execute(t, "--format", "json", "sql", "-s", "geo", query)
	require.Error(t, err)
	assert.Contains(t, decodeResponse(t, out).Error.Message, "SpatiaLite")

	out, err = execute(t, "sql", "-s", "geo", "--spatial", query)
	require.NoError(t, err)
	assert.Contains(t, out, "ST_Within(GeomFromText(geo), GeomFromText(?))")
}

const testRecords = `
- {id: p1, name: Ada, age: 36, address: {city: London}}
- {id: p2, name: Alan, age: 41, address: {city: Manchester}}
- {id: p3, name: Grace, age: 85, address: {city: Arlington}}
- {name: Anonymous, age: 20}
`

func TestMatchCommand(t *testing.T) {
	records := writeFile(t, t.TempDir(), "people.yaml", testRecords)

	out, err := execute(t, "match", records, "-s", "name,age,address.city", "age=gt=30,address.city=out=['London','Paris']")
	require.NoError(t, err)
	assert.Equal(t, "p2\np3\n2 of 4 record(s) matched\n", out)

	out, err = execute(t, "--format", "json", "match", records, "-s", "name,age", "age=lt=40")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, []any{float64(0), float64(3)}, data["matched"])
	assert.Equal(t, []any{"p1", ""}, data["ids"])
	assert.Equal(t, float64(4), data["total"])
}

func TestMatchCommand_NoMatch(t *testing.T) {
	records := writeFile(t, t.TempDir(), "people.yaml", testRecords)

	out, err := execute(t, "match", records, "-s", "age", "age=gt=100")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "0 of 4 record(s) matched")
}

func TestMatchCommand_BadRecords(t *testing.T) {
	dir := t.TempDir()
	notList := writeFile(t, dir, "bad.yaml", "name: Ada\n")

	for _, path := range []string{notList, filepath.Join(dir, "missing.yaml")} {
		out, err := execute(t, "--format", "json", "match", path, "-s", "name", "name=='Ada'")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, ErrCodeBadRecords, decodeResponse(t, out).Error.Code)
	}
}

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.CreateTable(ctx, "people", "name", "age"))
	require.NoError(t, st.Insert(ctx, "people", "p1", map[string]any{"name": "Ada", "age": 36}))
	require.NoError(t, st.Insert(ctx, "people", "p2", map[string]any{"name": "Alan", "age": 41}))
	require.NoError(t, st.Insert(ctx, "people", "p3", map[string]any{"name": "Grace", "age": 85}))
	return path
}

func TestQueryCommand(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "query", db, "people", "-s", "name,age", "age=gt=40")
	require.NoError(t, err)
	assert.Equal(t, "p2 age=41 name=Alan\np3 age=85 name=Grace\n2 record(s) in people\n", out)

	out, err = execute(t, "--format", "json", "query", db, "people", "-s", "name,age", "--limit", "1", "name=='A*'", "--wildcard")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(1), data["count"])
	records := data["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].(map[string]any)["id"])
}

func TestQueryCommand_Save(t *testing.T) {
	db := seedDatabase(t)

	_, err := execute(t, "query", db, "people", "-s", "name,age", "--save", "seniors", "(age>=80)")
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	saved, err := st.LoadQuery(context.Background(), "seniors")
	require.NoError(t, err)
	assert.Equal(t, "age=ge=80", saved.Query)
}

func TestQueryCommand_Errors(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "query", db, "people", "-s", "age", "age=gt=100")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "0 record(s) in people")

	out, err = execute(t, "--format", "json", "query", filepath.Join(t.TempDir(), "nope.db"), "people", "-s", "age", "age==1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)

	out, err = execute(t, "--format", "json", "query", db, "missing_table", "-s", "age", "age==1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "(have people)")

	out, err = execute(t, "--format", "json", "query", db, "people", "-s", "height", "height==1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeStore, decodeResponse(t, out).Error.Code)
}

const testScenario = `name: small
selectors: [a]
records:
  - {id: r1, a: 1}
  - {id: r2, a: 2}
cases:
  - query: "(a==1)"
    expect:
      print: "a==1"
      match: [r1]
  - query: "a=gt=1"
    expect:
      match: [r2]
`

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.yaml", testScenario)

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ small (2 cases)")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NoFileExists(t, filepath.Join(dir, "golden", "small.golden"))

	_, err = execute(t, "test", "--update", dir)
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "small.golden")
	require.FileExists(t, golden)

	_, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_FailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", `name: wrong
selectors: [a]
cases:
  - query: "a==1"
    expect:
      print: "a==2"
`)

	out, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["failed"])
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.yaml", testScenario)
	writeFile(t, dir, "other.yml", "name: broken\n")

	out, err := execute(t, "test", "--filter", "sm*", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = execute(t, "test", "--filter", "none*", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_CommandErrors(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")

	out, err := execute(t, "--format", "json", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}
