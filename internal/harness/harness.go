package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/printer"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
	"github.com/roach88/sieve/internal/store"
)

// Harness runs the cases of one scenario.
type Harness struct {
	scenario  *Scenario
	selectors ir.Selectors
	sql       *querysql.SQLCompiler
	store     *store.Store // nil unless a case checks stored results
	ids       []string
}

// Run executes a scenario and returns the result.
//
// Each scenario that checks stored results gets a fresh in-memory database
// holding its records. Failed expectations are reported in the result; an
// error is returned only when the scenario itself cannot be set up.
//
// Execution flow:
// 1. Parse every query against the scenario's selectors
// 2. Print, translate, compile to SQL and evaluate against the records
// 3. Query the store when stored results are expected
// 4. Compare each case against its expectations
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("nil scenario")
	}
	selectors, err := ir.NewSelectors(scenario.Selectors...)
	if err != nil {
		return nil, fmt.Errorf("selectors: %w", err)
	}

	h := &Harness{
		scenario:  scenario,
		selectors: selectors,
		sql:       &querysql.SQLCompiler{Spatial: true},
	}
	for _, rec := range scenario.Records {
		id, _ := rec["id"].(string)
		h.ids = append(h.ids, id)
	}

	ctx := context.Background()
	if scenario.needsStore() {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		if err := h.load(ctx, st); err != nil {
			return nil, err
		}
		h.store = st
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		cr := h.runCase(ctx, c)
		result.Cases = append(result.Cases, cr)
		for _, failure := range CheckCase(c, cr) {
			result.AddError(fmt.Sprintf("cases[%d]: %v", i, failure))
		}

		slog.Debug("case evaluated",
			"scenario", scenario.Name,
			"case", i,
			"query", c.Query,
			"error", cr.Error,
		)
	}

	return result, nil
}

// load writes the scenario records to the records table.
func (h *Harness) load(ctx context.Context, st *store.Store) error {
	if err := st.CreateTable(ctx, Table); err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}
	for i, rec := range h.scenario.Records {
		if err := st.Insert(ctx, Table, h.ids[i], rec); err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
	}
	return nil
}

// runCase produces everything a case can be checked against. It stops at
// the first failure and records it in Error.
func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	cr := CaseResult{Query: c.Query}
	cfg := h.scenario.Config

	root, err := compiler.Parse(c.Query, h.selectors)
	if err != nil {
		cr.Error = err.Error()
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			cr.ErrorKind = ce.Kind.String()
			cr.ErrorCode = ce.Code
		}
		return cr
	}

	if cr.Print, err = printer.Print(root); err != nil {
		cr.Error = err.Error()
		return cr
	}

	pred, err := queryir.Translate(root, cfg.IR())
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	v := queryir.ValidatePredicate(pred)
	cr.Portable = v.IsPortable
	cr.Warnings = v.Warnings

	cr.SQL, cr.Params, err = h.sql.Compile(queryir.Select{From: Table, Filter: pred})
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	opts := []engine.Option{engine.WithConfig(cfg.IR())}
	if cfg.Geodesic {
		opts = append(opts, engine.WithGeodesic())
	}
	f, err := engine.Compile(root, opts...)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	idx, err := f.Select(h.scenario.Records)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	for _, i := range idx {
		cr.Matched = append(cr.Matched, h.ids[i])
	}

	if h.store != nil && c.Expect.Stored != nil {
		records, err := h.store.Find(ctx, Table, root, store.FindOptions{Config: cfg.IR()})
		if err != nil {
			cr.Error = err.Error()
			return cr
		}
		cr.Stored = []string{}
		for _, r := range records {
			cr.Stored = append(cr.Stored, r.ID)
		}
	}

	return cr
}
