package cpt

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/models"
)

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func reading(depth, qc, fs, u2 float64) models.RawReading {
	return models.RawReading{Depth: depth, QC: nf(qc), FS: nf(fs), U2: nf(u2)}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

var schemes = classify.NewRegistry()

func lookup(t *testing.T, name string) classify.Scheme {
	t.Helper()
	s, err := schemes.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	return s
}

func eslamiConfig() Config {
	return Config{
		AreaRatio:        0.85,
		UnitWeight:       ConstantUnitWeight(16),
		GroundwaterDepth: 0,
		Method:           classify.EslamiFelleniusName,
	}
}

func scenarioReadings() []models.RawReading {
	return []models.RawReading{
		reading(0.05, 1.44, 35.595, -4.688),
		reading(0.10, 1.805, 47.25, 18.751),
	}
}

func TestInterpretScenario(t *testing.T) {
	cfg := eslamiConfig()
	scheme := lookup(t, classify.EslamiFelleniusName)

	samples, err := Interpret(scenarioReadings(), cfg, scheme)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	for i, s := range samples {
		if !s.Qt.Valid {
			t.Errorf("sample %d: qt is null", i)
		}
		if s.Zone.IsIndeterminate() {
			t.Errorf("sample %d: zone is indeterminate", i)
		}
		if s.Scheme != classify.EslamiFelleniusName {
			t.Errorf("sample %d: scheme = %q", i, s.Scheme)
		}
	}
	if !approx(samples[0].Qt.Float64, 1.44+(-4.688/1000)*0.15) {
		t.Errorf("qt = %v, want %v", samples[0].Qt.Float64, 1.44+(-4.688/1000)*0.15)
	}
	if samples[0].Zone.Number != 3 || samples[1].Zone.Number != 3 {
		t.Errorf("zones = %d, %d, want 3, 3", samples[0].Zone.Number, samples[1].Zone.Number)
	}

	again, err := Interpret(scenarioReadings(), cfg, scheme)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	for i := range samples {
		if samples[i] != again[i] {
			t.Errorf("sample %d differs between runs: %+v vs %+v", i, samples[i], again[i])
		}
	}
}

func TestInterpretErrors(t *testing.T) {
	eslami := lookup(t, classify.EslamiFelleniusName)
	tests := []struct {
		name     string
		readings []models.RawReading
		mutate   func(*Config)
		scheme   classify.Scheme
		want     error
	}{
		{
			name:     "empty series",
			readings: nil,
			scheme:   eslami,
			want:     ErrInvalidInput,
		},
		{
			name:     "non-monotonic depth",
			readings: []models.RawReading{reading(0.10, 1, 10, 0), reading(0.05, 1, 10, 0)},
			scheme:   eslami,
			want:     ErrInvalidInput,
		},
		{
			name:     "repeated depth",
			readings: []models.RawReading{reading(0.10, 1, 10, 0), reading(0.10, 1, 10, 0)},
			scheme:   eslami,
			want:     ErrInvalidInput,
		},
		{
			name:     "negative unit weight",
			readings: scenarioReadings(),
			mutate:   func(c *Config) { c.UnitWeight = ConstantUnitWeight(-1) },
			scheme:   eslami,
			want:     ErrInvalidConfiguration,
		},
		{
			name:     "negative groundwater depth",
			readings: scenarioReadings(),
			mutate:   func(c *Config) { c.GroundwaterDepth = -0.5 },
			scheme:   eslami,
			want:     ErrInvalidConfiguration,
		},
		{
			name:     "zero area ratio",
			readings: scenarioReadings(),
			mutate:   func(c *Config) { c.AreaRatio = 0 },
			scheme:   eslami,
			want:     ErrInvalidConfiguration,
		},
		{
			name:     "area ratio above one",
			readings: scenarioReadings(),
			mutate:   func(c *Config) { c.AreaRatio = 1.01 },
			scheme:   eslami,
			want:     ErrInvalidConfiguration,
		},
		{
			name:     "configuration checked before series",
			readings: nil,
			mutate:   func(c *Config) { c.UnitWeight = ConstantUnitWeight(0) },
			scheme:   eslami,
			want:     ErrInvalidConfiguration,
		},
		{
			name:     "nil scheme",
			readings: scenarioReadings(),
			scheme:   nil,
			want:     classify.ErrUnknownScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := eslamiConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			samples, err := Interpret(tt.readings, cfg, tt.scheme)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if samples != nil {
				t.Errorf("samples = %v, want nil", samples)
			}
		})
	}
}

func TestInterpretPreservesOrderAndLength(t *testing.T) {
	readings := []models.RawReading{
		reading(0.5, 2.0, 20, 10),
		reading(1.0, 0.01, 5, 50),
		reading(1.5, 8.0, 40, -5),
		{Depth: 2.0},
		reading(2.5, 12.0, 80, 120),
	}
	cfg := eslamiConfig()
	cfg.Method = classify.Robertson1986Name

	samples, err := Interpret(readings, cfg, lookup(t, classify.Robertson1986Name))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(samples) != len(readings) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(readings))
	}
	for i, s := range samples {
		if s.Depth != readings[i].Depth {
			t.Errorf("sample %d depth = %v, want %v", i, s.Depth, readings[i].Depth)
		}
	}
	if !samples[3].Zone.IsIndeterminate() {
		t.Errorf("empty reading zone = %v, want indeterminate", samples[3].Zone)
	}
	if samples[3].Qt.Valid {
		t.Error("empty reading qt should be null")
	}
}

// Readings built so that every sample lands on a known chart position.
func TestInterpretEslamiFelleniusReadings(t *testing.T) {
	tests := []struct {
		qe, fs float64
		want   int
	}{
		{0.8, 3, 1},
		{1, 100, 2},
		{2.8, 100, 3},
		{1.5, 3, 4},
		{90, 2, 5},
		{0.6, 20, 2},
		{0.4, 700, 2},
		{8, 200, 4},
		{10, 9, 5},
		{0.1, 2, 1},
		{100, 3, 5},
		{10, 1, 5},
		{0.8, 1, 1},
		{1, 1000, 2},
		{0.1, 0.05, 0},
	}
	readings := make([]models.RawReading, len(tests))
	for i, tt := range tests {
		readings[i] = reading(float64(i)/10, tt.qe, tt.fs, 0)
	}
	cfg := Config{AreaRatio: 1, UnitWeight: ConstantUnitWeight(16), Method: classify.EslamiFelleniusName}

	samples, err := Interpret(readings, cfg, lookup(t, classify.EslamiFelleniusName))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	for i, tt := range tests {
		if got := samples[i].Zone.Number; got != tt.want {
			t.Errorf("depth %v (qE=%v, fs=%v): zone = %d, want %d", samples[i].Depth, tt.qe, tt.fs, got, tt.want)
		}
	}
}

func TestInterpretRobertson1990Readings(t *testing.T) {
	tests := []struct {
		qc, fs float64
		want   int
	}{
		{0.032, 0.032, 1},
		{0.32, 0.3456, 1},
		{0.144, 0.96, 1},
		{0.1472, 3.328, 2},
		{0.24, 12.8, 2},
		{0.384, 5.76, 3},
		{1.232, 89.6, 3},
		{1.408, 12.8, 4},
		{3.024, 57.6, 4},
		{2.56, 4.8, 5},
		{5.456, 52.8, 5},
		{19.392, 38.4, 6},
		{166.608, 1664, 6},
		{201.824, 403.2, 7},
		{216.24, 6480, 8},
		{89.856, 1792, 8},
		{245.072, 22032, 9},
		{17.568, 1382.4, 9},
		{1.216, 0.456, 3},
		{3.52, 1.6, 4},
		{7.056, 3.36, 5},
		{35.552, 17.6, 6},
		{294.768, 147.2, 7},
		{0.8448, 0.2304, 0},
	}
	readings := make([]models.RawReading, len(tests))
	for i, tt := range tests {
		readings[i] = reading(float64(i+1), tt.qc, tt.fs, 0)
	}
	cfg := Config{AreaRatio: 1, UnitWeight: ConstantUnitWeight(16), GroundwaterDepth: 100, Method: classify.Robertson1990Name}

	samples, err := Interpret(readings, cfg, lookup(t, classify.Robertson1990Name))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	for i, tt := range tests {
		s := samples[i]
		if got := s.Zone.Number; got != tt.want {
			t.Errorf("depth %v (Fr=%v, Qt=%v): zone = %d, want %d", s.Depth, s.Fr.Float64, s.QtNorm.Float64, got, tt.want)
		}
	}
}

func TestDeriveNonPositiveNetResistance(t *testing.T) {
	// qt*1000 = 10 kPa, total stress 16 kPa at 1 m.
	r := reading(1.0, 0.01, 5, 0)
	s := models.StressState{Depth: 1, TotalStress: 16, PorePressure: 9.81, EffectiveStress: 6.19}

	d := Derive(r, s, 0.8)
	if !d.Qt.Valid || !approx(d.Qt.Float64, 0.01) {
		t.Fatalf("qt = %+v, want 0.01", d.Qt)
	}
	if d.QtNorm.Valid || d.Fr.Valid || d.Bq.Valid || d.Ic.Valid {
		t.Errorf("expected null Qt/Fr/Bq/Ic, got %+v", d)
	}
	if z := lookup(t, classify.Robertson1986Name).Classify(d); !z.IsIndeterminate() {
		t.Errorf("zone = %v, want indeterminate", z)
	}
}

func TestDeriveFormulas(t *testing.T) {
	r := reading(5.0, 3.0, 60, 200)
	s := models.StressState{Depth: 5, TotalStress: 90, PorePressure: 40, EffectiveStress: 50}

	d := Derive(r, s, 0.8)

	qt := 3.0 + 0.2*0.2
	net := qt*1000 - 90
	want := map[string]float64{
		models.ParamQt:     qt,
		models.ParamRf:     60 / (qt * 1000) * 100,
		models.ParamQtNorm: net / 50,
		models.ParamFr:     60 / net * 100,
		models.ParamBq:     (200 - 40) / net,
	}
	for name, w := range want {
		got, ok := d.Parameter(name)
		if !ok || !got.Valid {
			t.Errorf("%s is null", name)
			continue
		}
		if !approx(got.Float64, w) {
			t.Errorf("%s = %v, want %v", name, got.Float64, w)
		}
	}

	a := 3.47 - math.Log10(net/50)
	b := math.Log10(60/net*100) + 1.22
	if !d.Ic.Valid || !approx(d.Ic.Float64, math.Sqrt(a*a+b*b)) {
		t.Errorf("Ic = %+v, want %v", d.Ic, math.Sqrt(a*a+b*b))
	}
}

func TestDeriveMissingPorePressure(t *testing.T) {
	r := models.RawReading{Depth: 2, QC: nf(4.0), FS: nf(40)}
	s := models.StressState{Depth: 2, TotalStress: 36, PorePressure: 19.62, EffectiveStress: 16.38}

	d := Derive(r, s, 0.5)
	if !d.Qt.Valid || d.Qt.Float64 != 4.0 {
		t.Errorf("qt = %+v, want 4.0", d.Qt)
	}
	if d.Bq.Valid {
		t.Errorf("Bq = %v, want null", d.Bq.Float64)
	}
	if qe := d.QE(); !qe.Valid || qe.Float64 != 4.0 {
		t.Errorf("qE = %+v, want 4.0", qe)
	}
	if !d.Ic.Valid {
		t.Error("Ic should be derived without pore pressure")
	}
}

func TestDeriveAreaRatioOne(t *testing.T) {
	r := reading(1, 2.0, 20, 500)
	d := Derive(r, models.StressState{Depth: 1, TotalStress: 18}, 1)
	if !approx(d.Qt.Float64, 2.0) {
		t.Errorf("qt = %v, want qc when area ratio is 1", d.Qt.Float64)
	}
}

func TestDeriveSeriesLengthMismatch(t *testing.T) {
	_, err := DeriveSeries([]models.RawReading{reading(1, 1, 1, 1)}, nil, 0.8)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	_, err = DeriveSeries(nil, nil, 0)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestBuildStressProfileConstantWeight(t *testing.T) {
	depths := []float64{0.05, 0.1, 0.2, 0.45}
	cfg := eslamiConfig()

	states, err := BuildStressProfile(depths, cfg)
	if err != nil {
		t.Fatalf("BuildStressProfile: %v", err)
	}
	want := []float64{0.8, 1.6, 3.2, 7.2}
	for i, s := range states {
		if !approx(s.TotalStress, want[i]) {
			t.Errorf("depth %v: total = %v, want %v", s.Depth, s.TotalStress, want[i])
		}
		if !approx(s.PorePressure, 9.81*depths[i]) {
			t.Errorf("depth %v: u0 = %v, want %v", s.Depth, s.PorePressure, 9.81*depths[i])
		}
		if !approx(s.EffectiveStress, want[i]-9.81*depths[i]) {
			t.Errorf("depth %v: effective = %v", s.Depth, s.EffectiveStress)
		}
	}
}

func TestBuildStressProfileInvariants(t *testing.T) {
	depths := []float64{0, 0.5, 1, 2, 3, 5, 8, 13}
	configs := map[string]Config{
		"dry": {AreaRatio: 0.8, UnitWeight: ConstantUnitWeight(18), GroundwaterDepth: 20},
		"light soil below water": {
			AreaRatio:        0.8,
			UnitWeight:       ConstantUnitWeight(8),
			GroundwaterDepth: 0,
		},
		"layered": {
			AreaRatio: 0.8,
			UnitWeight: UnitWeightProfile{
				{Depth: 0, Weight: 17},
				{Depth: 2, Weight: 17},
				{Depth: 2, Weight: 19},
				{Depth: 10, Weight: 20},
			},
			GroundwaterDepth: 1.5,
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			states, err := BuildStressProfile(depths, cfg)
			if err != nil {
				t.Fatalf("BuildStressProfile: %v", err)
			}
			for i, s := range states {
				if s.EffectiveStress < 0 {
					t.Errorf("depth %v: effective stress %v < 0", s.Depth, s.EffectiveStress)
				}
				if s.PorePressure < 0 {
					t.Errorf("depth %v: pore pressure %v < 0", s.Depth, s.PorePressure)
				}
				if i > 0 && s.TotalStress < states[i-1].TotalStress {
					t.Errorf("depth %v: total stress decreased", s.Depth)
				}
			}
		})
	}
}

func TestBuildStressProfileAboveWaterTable(t *testing.T) {
	cfg := Config{AreaRatio: 0.8, UnitWeight: ConstantUnitWeight(18), GroundwaterDepth: 2}
	states, err := BuildStressProfile([]float64{1, 2, 3}, cfg)
	if err != nil {
		t.Fatalf("BuildStressProfile: %v", err)
	}
	if states[0].PorePressure != 0 || states[1].PorePressure != 0 {
		t.Errorf("pore pressure above water table = %v, %v, want 0", states[0].PorePressure, states[1].PorePressure)
	}
	if !approx(states[2].PorePressure, 9.81) {
		t.Errorf("u0 at 3 m = %v, want 9.81", states[2].PorePressure)
	}
	if states[0].EffectiveStress != states[0].TotalStress {
		t.Errorf("effective = %v, want total %v", states[0].EffectiveStress, states[0].TotalStress)
	}
}

func TestBuildStressProfileElevatedWaterTable(t *testing.T) {
	cfg := Config{
		AreaRatio:                0.8,
		UnitWeight:               ConstantUnitWeight(18),
		GroundwaterDepth:         3,
		ElevatedGroundwaterDepth: nf(1),
		WaterUnitWeight:          10,
	}
	states, err := BuildStressProfile([]float64{2}, cfg)
	if err != nil {
		t.Fatalf("BuildStressProfile: %v", err)
	}
	if !approx(states[0].PorePressure, 10) {
		t.Errorf("u0 = %v, want 10", states[0].PorePressure)
	}
}

func TestUnitWeightProfileIntegrate(t *testing.T) {
	profile := UnitWeightProfile{
		{Depth: 0, Weight: 16},
		{Depth: 2, Weight: 16},
		{Depth: 2, Weight: 20},
		{Depth: 4, Weight: 22},
	}
	tests := []struct {
		from, to, want float64
	}{
		{0, 1, 16},
		{0, 2, 32},
		{2, 3, 20.5},
		{0, 4, 32 + 42},
		{1, 3, 16 + 20.5},
		{4, 6, 44},
		{3, 3, 0},
	}
	for _, tt := range tests {
		if got := profile.integrate(tt.from, tt.to); !approx(got, tt.want) {
			t.Errorf("integrate(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBuildStressProfileProfileMatchesIntegral(t *testing.T) {
	cfg := Config{
		AreaRatio: 0.8,
		UnitWeight: UnitWeightProfile{
			{Depth: 0, Weight: 16},
			{Depth: 2, Weight: 16},
			{Depth: 2, Weight: 20},
			{Depth: 4, Weight: 22},
		},
		GroundwaterDepth: 10,
	}
	states, err := BuildStressProfile([]float64{1, 2, 3, 4}, cfg)
	if err != nil {
		t.Fatalf("BuildStressProfile: %v", err)
	}
	want := []float64{16, 32, 52.5, 74}
	for i, s := range states {
		if !approx(s.TotalStress, want[i]) {
			t.Errorf("depth %v: total = %v, want %v", s.Depth, s.TotalStress, want[i])
		}
	}
}

func TestStressIndependentOfScheme(t *testing.T) {
	cfg := eslamiConfig()
	readings := []models.RawReading{
		reading(1, 2.0, 20, 10),
		reading(2, 5.0, 30, 40),
		reading(3, 0.8, 25, 150),
	}

	reg := classify.NewRegistry()
	var first []models.ClassifiedSample
	for _, name := range reg.Names() {
		scheme, err := reg.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		samples, err := Interpret(readings, cfg, scheme)
		if err != nil {
			t.Fatalf("Interpret with %q: %v", name, err)
		}
		if first == nil {
			first = samples
			continue
		}
		for i := range samples {
			if samples[i].DerivedParameters != first[i].DerivedParameters {
				t.Errorf("%s sample %d: derived parameters differ", name, i)
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", eslamiConfig(), false},
		{"missing unit weight", Config{AreaRatio: 0.8}, true},
		{"decreasing profile", Config{AreaRatio: 0.8, UnitWeight: UnitWeightProfile{{2, 18}, {1, 18}}}, true},
		{"negative profile depth", Config{AreaRatio: 0.8, UnitWeight: UnitWeightProfile{{-1, 18}}}, true},
		{"negative elevated water", Config{AreaRatio: 0.8, UnitWeight: ConstantUnitWeight(18), ElevatedGroundwaterDepth: nf(-1)}, true},
		{"negative water weight", Config{AreaRatio: 0.8, UnitWeight: ConstantUnitWeight(18), WaterUnitWeight: -9.81}, true},
		{"nan area ratio", Config{AreaRatio: math.NaN(), UnitWeight: ConstantUnitWeight(18)}, true},
		{"area ratio one", Config{AreaRatio: 1, UnitWeight: ConstantUnitWeight(18)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestDepthBelowGround(t *testing.T) {
	d, err := DepthBelowGround(12.5, 10)
	if err != nil {
		t.Fatalf("DepthBelowGround: %v", err)
	}
	if d != 2.5 {
		t.Errorf("depth = %v, want 2.5", d)
	}
	if _, err := DepthBelowGround(10, 12.5); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestEngineCalculate(t *testing.T) {
	engine := NewEngine(classify.NewRegistry(), nil)
	probe := NewProbe(models.Point{PointID: "CPT01"}, scenarioReadings())

	res, err := engine.Calculate(probe, eslamiConfig())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.PointID != "CPT01" || res.Scheme != classify.EslamiFelleniusName {
		t.Errorf("result = %+v", res)
	}
	if res.HoleDepth != 0.10 {
		t.Errorf("hole depth = %v, want 0.10", res.HoleDepth)
	}
	if probe.Result() != res {
		t.Error("result not stored on probe")
	}

	bad := eslamiConfig()
	bad.UnitWeight = ConstantUnitWeight(-1)
	if _, err := engine.Calculate(probe, bad); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
	if probe.Result() != res {
		t.Error("failed calculation replaced the stored result")
	}

	unknown := eslamiConfig()
	unknown.Method = "Begemann"
	if _, err := engine.Calculate(probe, unknown); !errors.Is(err, classify.ErrUnknownScheme) {
		t.Fatalf("err = %v, want ErrUnknownScheme", err)
	}

	probe.SetReadings(append(scenarioReadings(), reading(0.15, 1.1, 15, -3)))
	if probe.Result() != nil {
		t.Error("new readings should clear the result")
	}
	if probe.Point().HoleDepth != 0.15 {
		t.Errorf("hole depth = %v, want 0.15", probe.Point().HoleDepth)
	}
}

func TestProbeRejectsResultForReplacedReadings(t *testing.T) {
	probe := NewProbe(models.Point{PointID: "CPT01"}, scenarioReadings())
	_, _, gen := probe.snapshot()

	probe.SetReadings(append(scenarioReadings(), reading(0.15, 1.1, 15, -3)))
	if probe.setResult(&Result{PointID: "CPT01"}, gen) {
		t.Error("result of the replaced series was stored")
	}
	if probe.Result() != nil {
		t.Errorf("result = %+v, want nil", probe.Result())
	}

	_, readings, gen := probe.snapshot()
	if len(readings) != 3 {
		t.Fatalf("len(readings) = %d, want 3", len(readings))
	}
	res := &Result{PointID: "CPT01"}
	if !probe.setResult(res, gen) || probe.Result() != res {
		t.Error("result of the current series was not stored")
	}
}

func TestEngineCalculateEmptyProbe(t *testing.T) {
	engine := NewEngine(classify.NewRegistry(), nil)
	probe := NewProbe(models.Point{PointID: "EMPTY"}, nil)

	if _, err := engine.Calculate(probe, eslamiConfig()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if probe.Result() != nil {
		t.Error("result stored after failure")
	}
}

func TestResultLayers(t *testing.T) {
	zone := func(n int) models.SoilZone { return models.SoilZone{Number: n, Label: "z"} }
	sample := func(depth float64, n int) models.ClassifiedSample {
		s := models.ClassifiedSample{Zone: zone(n)}
		s.Depth = depth
		return s
	}
	res := &Result{
		HoleDepth: 5,
		Samples: []models.ClassifiedSample{
			sample(1, 3), sample(2, 3), sample(3, 5), sample(4, 3),
		},
	}

	intervals := res.Intervals()
	if len(intervals) != 4 {
		t.Fatalf("len(intervals) = %d, want 4", len(intervals))
	}
	if intervals[3].Top != 4 || intervals[3].Bottom != 5 {
		t.Errorf("last interval = [%v, %v], want [4, 5]", intervals[3].Top, intervals[3].Bottom)
	}

	layers := res.Layers()
	want := []Layer{
		{Top: 1, Bottom: 3, Zone: zone(3)},
		{Top: 3, Bottom: 4, Zone: zone(5)},
		{Top: 4, Bottom: 5, Zone: zone(3)},
	}
	if len(layers) != len(want) {
		t.Fatalf("len(layers) = %d, want %d", len(layers), len(want))
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("layer %d = %+v, want %+v", i, layers[i], want[i])
		}
	}

	if got := CountZones(res.Samples); got["z"] != 4 {
		t.Errorf("CountZones = %v", got)
	}
}
