package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/api"
	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/ingest"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

type ImportCmd struct {
	Points   []string `short:"p" help:"Points sources (default: manifest sources.points)."`
	Readings []string `short:"r" help:"Readings sources (default: manifest sources.readings)."`
}

// Run imports points before readings so that readings find their points.
func (c *ImportCmd) Run(app *App) error {
	ctx, cancel := signalContext()
	defer cancel()

	points, readings := c.Points, c.Readings
	if len(points) == 0 && len(readings) == 0 {
		points, readings = app.Config.Sources.Points, app.Config.Sources.Readings
	}
	if len(points) == 0 && len(readings) == 0 {
		return fmt.Errorf("no sources given and none in the manifest")
	}

	im := ingest.NewImporter(app.Store, ingest.NewFetcher(app.Log), app.Log)
	var failed int
	for _, src := range points {
		report, err := im.ImportPoints(ctx, src)
		if err != nil {
			app.Log.Error("import points failed", zap.String("source", src), zap.Error(err))
			failed++
			continue
		}
		printReport(os.Stdout, "points", report)
	}
	for _, src := range readings {
		report, err := im.ImportReadings(ctx, src)
		if err != nil {
			app.Log.Error("import readings failed", zap.String("source", src), zap.Error(err))
			failed++
			continue
		}
		printReport(os.Stdout, "readings", report)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(points)+len(readings))
	}
	return nil
}

type InterpretCmd struct {
	Points          []string `arg:"" optional:"" help:"Point IDs (default: every stored point)."`
	Method          string   `short:"m" help:"Classification scheme."`
	AreaRatio       *float64 `help:"Cone net area ratio."`
	UnitWeight      *float64 `help:"Constant soil unit weight (kN/m3)."`
	GWL             *float64 `name:"gwl" help:"Groundwater depth below ground (m)."`
	GWLElevation    *float64 `name:"gwl-elevation" help:"Groundwater elevation, converted with the ground elevation of each point."`
	ElevatedGWL     *float64 `name:"elevated-gwl" help:"Elevated groundwater depth used for hydrostatic pressure (m)."`
	WaterUnitWeight *float64 `help:"Unit weight of water (kN/m3)."`
	Workers         int      `short:"j" help:"Concurrent calculations (default: manifest defaults.workers)."`
	Format          string   `short:"f" enum:"table,json,csv" default:"table" help:"Output format (table, json, csv)."`
	Layers          bool     `help:"Print merged soil layers instead of samples (table format)."`
	NoSave          bool     `help:"Do not store the results."`
}

func (c *InterpretCmd) overrides() config.Interpretation {
	return config.Interpretation{
		Method:                   c.Method,
		AreaRatio:                c.AreaRatio,
		UnitWeight:               c.UnitWeight,
		GroundwaterDepth:         c.GWL,
		GroundwaterElevation:     c.GWLElevation,
		ElevatedGroundwaterDepth: c.ElevatedGWL,
		WaterUnitWeight:          c.WaterUnitWeight,
		Workers:                  c.Workers,
	}
}

func (c *InterpretCmd) Run(app *App) error {
	ctx, cancel := signalContext()
	defer cancel()

	ids := c.Points
	if len(ids) == 0 {
		points, err := app.Store.ListPoints()
		if err != nil {
			return err
		}
		for _, p := range points {
			ids = append(ids, p.PointID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no points to interpret")
	}

	b := &batch{app: app, overrides: c.overrides(), save: !c.NoSave}
	outcomes := b.run(ctx, ids)

	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			app.Log.Error("interpret failed", zap.String("point", o.pointID), zap.Error(o.err))
			failed++
		}
	}

	results := succeeded(outcomes)
	var err error
	switch c.Format {
	case "json":
		err = writeJSON(os.Stdout, results)
	case "csv":
		err = writeCSV(os.Stdout, results)
	default:
		if c.Layers {
			err = writeLayers(os.Stdout, results)
		} else {
			err = writeTable(os.Stdout, results)
		}
	}
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d points failed", failed, len(ids))
	}
	return nil
}

type ChartsCmd struct {
	Import ChartsImportCmd `cmd:"" help:"Validate and store chart definitions."`
	List   ChartsListCmd   `cmd:"" help:"List stored charts."`
}

type ChartsImportCmd struct {
	Files []string `arg:"" help:"Chart files (YAML, JSON or TOML)."`
}

func (c *ChartsImportCmd) Run(app *App) error {
	for _, path := range c.Files {
		chart, err := config.LoadChart(path)
		if err != nil {
			return err
		}
		if err := app.Store.UpsertChart(chart); err != nil {
			return fmt.Errorf("store chart %s: %w", chart.Name, err)
		}
		app.Log.Info("chart stored", zap.String("chart", chart.Name), zap.Int("zones", len(chart.Zones)))
	}
	return nil
}

type ChartsListCmd struct{}

func (c *ChartsListCmd) Run(app *App) error {
	charts, err := app.Store.ListCharts()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tX\tY\tSECOND GRAPH\tZONES")
	for _, ch := range charts {
		second := "-"
		if ch.HasSecondGraph() {
			second = axis(ch.ParamY2, ch.LogY2) + " vs " + axis(ch.ParamX2, ch.LogX2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			ch.Name, axis(ch.ParamX, ch.LogX), axis(ch.ParamY, ch.LogY), second, len(ch.Zones))
	}
	return w.Flush()
}

func axis(param string, log bool) string {
	if log {
		return "log " + param
	}
	return param
}

type SchemesCmd struct {
	Zones bool `help:"Print the zones of every scheme."`
}

func (c *SchemesCmd) Run(app *App) error {
	return writeSchemes(os.Stdout, app.Engine.Schemes(), c.Zones)
}

type ServeCmd struct {
	Addr string `help:"Listen address, overrides the manifest."`
}

func (c *ServeCmd) Run(app *App) error {
	if c.Addr != "" {
		app.Config.Server.Addr = c.Addr
	}
	ctx, cancel := signalContext()
	defer cancel()

	return api.NewServer(app.Store, app.Engine, app.Config, app.Log).Run(ctx)
}
