package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lox/cptinterp/internal/api"
	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
	"github.com/lox/cptinterp/internal/store"
)

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fp(v float64) *float64 {
	return &v
}

func setupApp(t *testing.T) *App {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db, nil)
	if err := st.Migrate(); err != nil {
		t.Fatal(err)
	}

	readings := []models.RawReading{
		{Depth: 0.05, QC: nf(1.44), FS: nf(35.595), U2: nf(-4.688)},
		{Depth: 0.1, QC: nf(1.805), FS: nf(47.25), U2: nf(18.751)},
	}
	for _, id := range []string{"CPT01", "CPT02", "CPT03"} {
		if err := st.UpsertPoint(models.Point{PointID: id, Elevation: nf(10)}); err != nil {
			t.Fatal(err)
		}
		if err := st.ReplaceReadings(id, readings); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		Defaults: config.Interpretation{
			Method:           classify.EslamiFelleniusName,
			AreaRatio:        fp(0.85),
			UnitWeight:       fp(16),
			GroundwaterDepth: fp(0),
			Workers:          2,
		},
		Probes: []config.ProbeOverride{
			{ID: "CPT03", Interpretation: config.Interpretation{GroundwaterElevation: fp(12)}},
		},
	}
	return &App{
		Config: cfg,
		Log:    zap.NewNop(),
		Store:  st,
		Engine: cpt.NewEngine(classify.NewRegistry(), nil),
	}
}

func TestBatchRun(t *testing.T) {
	app := setupApp(t)
	b := &batch{app: app, save: true}

	outcomes := b.run(context.Background(), []string{"CPT02", "NOPE", "CPT01", "CPT03"})
	if len(outcomes) != 4 {
		t.Fatalf("len(outcomes) = %d, want 4", len(outcomes))
	}

	wantErr := map[string]bool{"CPT02": false, "NOPE": true, "CPT01": false, "CPT03": true}
	for i, o := range outcomes {
		if o.pointID != []string{"CPT02", "NOPE", "CPT01", "CPT03"}[i] {
			t.Errorf("outcome %d is %s, order not kept", i, o.pointID)
		}
		if (o.err != nil) != wantErr[o.pointID] {
			t.Errorf("%s: err = %v, want error %v", o.pointID, o.err, wantErr[o.pointID])
		}
	}

	results := succeeded(outcomes)
	if len(results) != 2 || results[0].PointID != "CPT02" {
		t.Fatalf("results = %+v", results)
	}
	stored, err := app.Store.LatestResult("CPT01")
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.RunID != results[1].RunID {
		t.Errorf("stored = %+v, want run %s", stored, results[1].RunID)
	}
}

func TestBatchRun_Overrides(t *testing.T) {
	app := setupApp(t)
	b := &batch{app: app, overrides: config.Interpretation{Method: classify.RobertsonWride1998Name}}

	outcomes := b.run(context.Background(), []string{"CPT01"})
	if outcomes[0].err != nil {
		t.Fatalf("err = %v", outcomes[0].err)
	}
	if outcomes[0].result.Scheme != classify.RobertsonWride1998Name {
		t.Errorf("Scheme = %q", outcomes[0].result.Scheme)
	}

	stored, err := app.Store.LatestResult("CPT01")
	if err != nil {
		t.Fatal(err)
	}
	if stored != nil {
		t.Error("result stored although saving was off")
	}
}

func TestBatchRun_Cancelled(t *testing.T) {
	app := setupApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := (&batch{app: app}).run(ctx, []string{"CPT01", "CPT02"})
	for _, o := range outcomes {
		if o.err != context.Canceled {
			t.Errorf("%s: err = %v, want context.Canceled", o.pointID, o.err)
		}
	}
}

func interpretAll(t *testing.T, app *App) []*cpt.Result {
	t.Helper()
	results := succeeded((&batch{app: app}).run(context.Background(), []string{"CPT01", "CPT02"}))
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	return results
}

func TestWriteCSV(t *testing.T) {
	results := interpretAll(t, setupApp(t))

	var buf bytes.Buffer
	if err := writeCSV(&buf, results); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}

	r := csv.NewReader(&buf)
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want header + 4", len(rows))
	}
	if strings.Join(rows[0][:5], ";") != "id;depth;qc;fs;u2" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "CPT01" || rows[1][1] != "0.05" || rows[1][11] != "3" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestWriteJSON(t *testing.T) {
	results := interpretAll(t, setupApp(t))

	var buf bytes.Buffer
	if err := writeJSON(&buf, results); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	var views []api.ResultView
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 || views[1].PointID != "CPT02" || len(views[1].Samples) != 2 {
		t.Errorf("views = %+v", views)
	}
}

func TestWriteTableAndLayers(t *testing.T) {
	results := interpretAll(t, setupApp(t))

	var buf bytes.Buffer
	if err := writeTable(&buf, results); err != nil {
		t.Fatalf("writeTable: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "CPT02") || !strings.Contains(out, "Silty clay and/or clayey silt") {
		t.Errorf("table output:\n%s", out)
	}

	buf.Reset()
	if err := writeLayers(&buf, results); err != nil {
		t.Fatalf("writeLayers: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 3 {
		t.Errorf("layers output has %d lines, want header + 2:\n%s", len(lines), buf.String())
	}
}

func TestWriteSchemes(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSchemes(&buf, classify.NewRegistry(), true); err != nil {
		t.Fatalf("writeSchemes: %v", err)
	}
	out := buf.String()
	for _, name := range classify.NewRegistry().Names() {
		if !strings.Contains(out, name) {
			t.Errorf("missing scheme %q in:\n%s", name, out)
		}
	}
}
