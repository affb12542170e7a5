package main

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/lox/cptinterp/internal/api"
	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/ingest"
)

func format(v sql.NullFloat64, prec int) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatFloat(v.Float64, 'f', prec, 64)
}

func writeTable(w io.Writer, results []*cpt.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\trun %s\n", res.PointID, res.Scheme, res.RunID)
		fmt.Fprintln(tw, "depth\tqc\tfs\tu2\tqt\tRf\tBq\tQt\tFr\tIc\tzone\tsoil type")
		for _, s := range res.Samples {
			fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				s.Depth,
				format(s.QC, 3), format(s.FS, 1), format(s.U2, 1), format(s.Qt, 3),
				format(s.Rf, 2), format(s.Bq, 3), format(s.QtNorm, 1), format(s.Fr, 2), format(s.Ic, 2),
				s.Zone.Number, s.SoilType())
		}
	}
	return tw.Flush()
}

func writeLayers(w io.Writer, results []*cpt.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POINT\tTOP\tBOTTOM\tZONE\tSOIL TYPE")
	for _, res := range results {
		for _, l := range res.Layers() {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d\t%s\n", res.PointID, l.Top, l.Bottom, l.Zone.Number, l.Zone.Label)
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, results []*cpt.Result) error {
	views := make([]api.ResultView, 0, len(results))
	for _, res := range results {
		views = append(views, api.NewResultView(res))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

var csvHeader = []string{"id", "depth", "qc", "fs", "u2", "qt", "Rf", "Bq", "Qt", "Fr", "Ic", "zone", "soil_type", "scheme"}

// writeCSV writes one row per sample in the semicolon separated layout the
// importer reads. Null values are empty cells.
func writeCSV(w io.Writer, results []*cpt.Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	cell := func(v sql.NullFloat64) string {
		if !v.Valid {
			return ""
		}
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	}
	for _, res := range results {
		for _, s := range res.Samples {
			row := []string{
				res.PointID,
				strconv.FormatFloat(s.Depth, 'g', -1, 64),
				cell(s.QC), cell(s.FS), cell(s.U2), cell(s.Qt),
				cell(s.Rf), cell(s.Bq), cell(s.QtNorm), cell(s.Fr), cell(s.Ic),
				strconv.Itoa(s.Zone.Number), s.SoilType(), res.Scheme,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSchemes(w io.Writer, r *classify.Registry, zones bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range r.Names() {
		scheme, err := r.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%v\n", name, scheme.RequiredParameters())
		if !zones {
			continue
		}
		for _, z := range scheme.Zones() {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", z.Number, z.Label, z.USCS)
		}
	}
	return tw.Flush()
}

func printReport(w io.Writer, kind string, r *ingest.Report) {
	fmt.Fprintf(w, "%s: %s: %d parsed, %d stored, %d skipped, %d flagged\n",
		r.Source, kind, r.Parsed, r.Stored, len(r.Skipped), len(r.Flags))
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  skipped %s\n", s)
	}
	for _, f := range r.Flags {
		fmt.Fprintf(w, "  %s @ %s m: %v\n", f.PointID, strconv.FormatFloat(f.Depth, 'f', -1, 64), f.Flags)
	}
}
