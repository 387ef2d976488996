package printer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/compiler"
	tu "github.com/roach88/sieve/internal/testutil"
)

var printSelectors = tu.Selectors("first", "second", "third", "x", "geo")

// TestPrintCanonicalGolden parses each query and records its canonical form.
//
// To regenerate the golden file, run:
//
//	go test ./internal/printer -run TestPrintCanonicalGolden -update
func TestPrintCanonicalGolden(t *testing.T) {
	queries := []string{
		"first==1,second!=2",
		"first==1;second!=2,third>=3",
		"(first==1;second!=2),third>=3",
		"((first==1))",
		"first==1,(second==2,third==3)",
		"(first==1,second==2),third==3",
		"x==1:x==2;x==3",
		"x==1.(x==2.x==3)",
		"(x==1.x==2).x==3",
		"x>1;x<=2",
		"x==23.234f,x==45L,x==null",
		"x==1.0;x==1.50d;x==1.5e3",
		"x==YES.x==No",
		"x=='it%27s',x=='a'",
		"x=='caf%C3%A9',x=='50%25'",
		"x=='#0041%0A';x=='0x0041'",
		"x=in=['ab','cd'];x=out=[1,2L]",
		"x==2020-01-05,x==2020-01-05T10:30+02:00",
		"x==-0044-03-15",
		"x==123e4567-e89b-12d3-a456-426614174000",
		"geo=within='POLYGON((0 0,4 0,4 4,0 4,0 0))'",
	}

	var b strings.Builder
	for _, q := range queries {
		root, err := compiler.Parse(q, printSelectors)
		require.NoError(t, err, q)
		out, err := Print(root)
		require.NoError(t, err, q)
		fmt.Fprintf(&b, "%s\n\t=> %s\n", q, out)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "canonical", []byte(b.String()))
}
