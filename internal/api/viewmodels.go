package api

import (
	"database/sql"
	"time"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
	"github.com/lox/cptinterp/internal/store"
)

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

type HealthStatus struct {
	Status           string `json:"status"`
	Schemes          int    `json:"schemes"`
	MigrationVersion int    `json:"migrationVersion"`
	Error            string `json:"error,omitempty"`
}

type ZoneView struct {
	Zone  int    `json:"zone"`
	Label string `json:"label"`
	USCS  string `json:"uscs,omitempty"`
}

func newZoneView(z models.SoilZone) ZoneView {
	return ZoneView{Zone: z.Number, Label: z.Label, USCS: z.USCS}
}

type SchemeView struct {
	Name       string     `json:"name"`
	Parameters []string   `json:"parameters"`
	Zones      []ZoneView `json:"zones"`
}

func newSchemeView(s classify.Scheme) SchemeView {
	v := SchemeView{Name: s.Name(), Parameters: s.RequiredParameters()}
	for _, z := range s.Zones() {
		v.Zones = append(v.Zones, newZoneView(z))
	}
	return v
}

type PointView struct {
	ID        string   `json:"id"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Elevation *float64 `json:"elevation"`
	HoleDepth float64  `json:"holeDepth"`
	Readings  *int     `json:"readings,omitempty"`
}

func newPointView(p models.Point) PointView {
	return PointView{
		ID:        p.PointID,
		X:         ptr(p.X),
		Y:         ptr(p.Y),
		Elevation: ptr(p.Elevation),
		HoleDepth: p.HoleDepth,
	}
}

type ReadingView struct {
	Depth float64  `json:"depth"`
	QC    *float64 `json:"qc"`
	FS    *float64 `json:"fs"`
	U2    *float64 `json:"u2"`
}

func newReadingView(r models.RawReading) ReadingView {
	return ReadingView{Depth: r.Depth, QC: ptr(r.QC), FS: ptr(r.FS), U2: ptr(r.U2)}
}

type SampleView struct {
	ReadingView
	TotalStress     float64  `json:"sigmaV0"`
	PorePressure    float64  `json:"u0"`
	EffectiveStress float64  `json:"sigmaV0Eff"`
	Qt              *float64 `json:"qt"`
	Rf              *float64 `json:"Rf"`
	Bq              *float64 `json:"Bq"`
	QtNorm          *float64 `json:"Qt"`
	Fr              *float64 `json:"Fr"`
	Ic              *float64 `json:"Ic"`
	ZoneView
}

func newSampleView(s models.ClassifiedSample) SampleView {
	return SampleView{
		ReadingView:     newReadingView(s.RawReading),
		TotalStress:     s.Stress.TotalStress,
		PorePressure:    s.Stress.PorePressure,
		EffectiveStress: s.Stress.EffectiveStress,
		Qt:              ptr(s.Qt),
		Rf:              ptr(s.Rf),
		Bq:              ptr(s.Bq),
		QtNorm:          ptr(s.QtNorm),
		Fr:              ptr(s.Fr),
		Ic:              ptr(s.Ic),
		ZoneView:        newZoneView(s.Zone),
	}
}

type LayerView struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	ZoneView
}

type UnitWeightView struct {
	Depth  float64 `json:"depth"`
	Weight float64 `json:"weight"`
}

type ConfigView struct {
	Method                   string           `json:"method"`
	AreaRatio                float64          `json:"areaRatio"`
	UnitWeight               []UnitWeightView `json:"unitWeight"`
	GroundwaterDepth         float64          `json:"groundwaterDepth"`
	ElevatedGroundwaterDepth *float64         `json:"elevatedGroundwaterDepth"`
	WaterUnitWeight          float64          `json:"waterUnitWeight"`
}

type ResultView struct {
	RunID        string         `json:"runId"`
	PointID      string         `json:"pointId"`
	Scheme       string         `json:"scheme"`
	CalculatedAt time.Time      `json:"calculatedAt"`
	HoleDepth    float64        `json:"holeDepth"`
	Config       ConfigView     `json:"config"`
	Samples      []SampleView   `json:"samples"`
	Layers       []LayerView    `json:"layers"`
	ZoneCounts   map[string]int `json:"zoneCounts"`
}

// NewResultView flattens a result for JSON output.
func NewResultView(res *cpt.Result) ResultView {
	v := ResultView{
		RunID:        res.RunID.String(),
		PointID:      res.PointID,
		Scheme:       res.Scheme,
		CalculatedAt: res.CalculatedAt,
		HoleDepth:    res.HoleDepth,
		Config: ConfigView{
			Method:                   res.Config.Method,
			AreaRatio:                res.Config.AreaRatio,
			GroundwaterDepth:         res.Config.GroundwaterDepth,
			ElevatedGroundwaterDepth: ptr(res.Config.ElevatedGroundwaterDepth),
			WaterUnitWeight:          res.Config.WaterUnitWeight,
		},
		Samples:    make([]SampleView, 0, len(res.Samples)),
		Layers:     []LayerView{},
		ZoneCounts: cpt.CountZones(res.Samples),
	}
	for _, uw := range res.Config.UnitWeight {
		v.Config.UnitWeight = append(v.Config.UnitWeight, UnitWeightView{Depth: uw.Depth, Weight: uw.Weight})
	}
	for _, s := range res.Samples {
		v.Samples = append(v.Samples, newSampleView(s))
	}
	for _, l := range res.Layers() {
		v.Layers = append(v.Layers, LayerView{Top: l.Top, Bottom: l.Bottom, ZoneView: newZoneView(l.Zone)})
	}
	return v
}

// ParameterValue is one point of a parameter log. Value is null where the
// parameter is undefined at that depth.
type ParameterValue struct {
	Depth float64  `json:"depth"`
	Value *float64 `json:"value"`
}

type ImportRunView struct {
	ID             int64      `json:"id"`
	Kind           string     `json:"kind"`
	Source         string     `json:"source"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	RecordsParsed  int64      `json:"recordsParsed"`
	RecordsStored  int64      `json:"recordsStored"`
	RecordsFlagged int64      `json:"recordsFlagged"`
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
}

func newImportRunView(r store.ImportRun) ImportRunView {
	v := ImportRunView{
		ID:             r.ID,
		Kind:           r.Kind,
		Source:         r.Source,
		StartedAt:      r.StartedAt,
		RecordsParsed:  r.RecordsParsed.Int64,
		RecordsStored:  r.RecordsStored.Int64,
		RecordsFlagged: r.RecordsFlagged.Int64,
		Success:        r.Success,
		Error:          r.ErrorMessage.String,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		v.FinishedAt = &t
	}
	return v
}
