package models

import (
	"database/sql"
)

// Point is a CPT sounding location. HoleDepth is the bottom-of-hole depth
// recorded for the probe, which may be deeper than the last reading.
type Point struct {
	PointID   string
	X         sql.NullFloat64
	Y         sql.NullFloat64
	Elevation sql.NullFloat64
	HoleDepth float64
}

// RawReading is one measured sample. Depth in metres, QC in MPa, FS and U2 in kPa.
type RawReading struct {
	Depth float64
	QC    sql.NullFloat64
	FS    sql.NullFloat64
	U2    sql.NullFloat64
}

type StressState struct {
	Depth           float64
	TotalStress     float64
	PorePressure    float64 // hydrostatic u0
	EffectiveStress float64
}

// DerivedParameters holds the raw reading, its stress state and every index
// computed from them. Qt is the corrected cone resistance (MPa) and QtNorm the
// normalized cone resistance; both are called "qt"/"Qt" in CPT literature.
type DerivedParameters struct {
	RawReading
	Stress StressState

	Qt     sql.NullFloat64
	Rf     sql.NullFloat64
	Bq     sql.NullFloat64
	QtNorm sql.NullFloat64
	Fr     sql.NullFloat64
	Ic     sql.NullFloat64
}

// SoilZone is a zone of a classification chart.
type SoilZone struct {
	Number int
	Label  string
	USCS   string
}

const IndeterminateLabel = "Indeterminate"

var Indeterminate = SoilZone{Number: 0, Label: IndeterminateLabel}

func (z SoilZone) IsIndeterminate() bool {
	return z.Number == 0
}

type ClassifiedSample struct {
	DerivedParameters
	Zone   SoilZone
	Scheme string
}

// SoilType returns the label of the assigned zone.
func (s ClassifiedSample) SoilType() string {
	return s.Zone.Label
}

// Parameter names the presentation layer can superimpose on a log. Every
// ClassifiedSample carries all of them, possibly null.
const (
	ParamQC     = "qc"
	ParamQt     = "qt"
	ParamFS     = "fs"
	ParamU2     = "u2"
	ParamRf     = "Rf"
	ParamBq     = "Bq"
	ParamQtNorm = "Qt"
	ParamFr     = "Fr"
	ParamIc     = "Ic"

	// ParamQE is the effective cone resistance qt - u2 used by Eslami-Fellenius.
	// It is not part of the superimposable set.
	ParamQE = "qE"
)

var ParameterNames = []string{ParamQC, ParamQt, ParamFS, ParamU2, ParamRf, ParamBq, ParamQtNorm, ParamFr, ParamIc}

// Parameter looks up a derived or raw value by its CPT name. The boolean is
// false when the name is not known.
func (d DerivedParameters) Parameter(name string) (sql.NullFloat64, bool) {
	switch name {
	case ParamQC:
		return d.QC, true
	case ParamQt:
		return d.Qt, true
	case ParamFS:
		return d.FS, true
	case ParamU2:
		return d.U2, true
	case ParamRf:
		return d.Rf, true
	case ParamBq:
		return d.Bq, true
	case ParamQtNorm:
		return d.QtNorm, true
	case ParamFr:
		return d.Fr, true
	case ParamIc:
		return d.Ic, true
	case ParamQE:
		return d.QE(), true
	}
	return sql.NullFloat64{}, false
}

// QE is the effective cone resistance in MPa. Without a pore pressure
// reading it equals qt.
func (d DerivedParameters) QE() sql.NullFloat64 {
	if !d.Qt.Valid {
		return sql.NullFloat64{}
	}
	if !d.U2.Valid {
		return d.Qt
	}
	return sql.NullFloat64{Float64: d.Qt.Float64 - d.U2.Float64/1000, Valid: true}
}

// ReadingFlag is a quality flag raised on an imported reading.
type ReadingFlag struct {
	PointID string
	Depth   float64
	Flags   []string
}

// Vertex is a corner of a zone polygon in chart coordinates (not log-transformed).
type Vertex struct {
	X float64
	Y float64
}

// ChartZone is one zone polygon. Graph selects the graph the polygon is drawn
// on (0 and 1 both mean the first graph). A first graph zone with Resolves set
// is a group zone: samples inside it take the second graph zone when that zone
// is one of Resolves, and the group zone otherwise.
type ChartZone struct {
	Zone     SoilZone
	Graph    int
	Resolves []int
	Polygon  []Vertex
}

// GraphIndex returns 1 or 2.
func (z ChartZone) GraphIndex() int {
	if z.Graph == 2 {
		return 2
	}
	return 1
}

// Chart is a polygon classification chart plotting ParamY against ParamX.
// Charts with a second graph plot ParamY2 against ParamX2 for samples the
// first graph leaves unclassified.
type Chart struct {
	Name        string
	Description string
	ParamX      string
	ParamY      string
	LogX        bool
	LogY        bool
	ParamX2     string
	ParamY2     string
	LogX2       bool
	LogY2       bool
	Zones       []ChartZone
}

func (c Chart) HasSecondGraph() bool {
	return c.ParamX2 != "" || c.ParamY2 != ""
}
