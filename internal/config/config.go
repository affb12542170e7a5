// Package config loads project manifests: storage, logging and server
// settings, interpretation defaults, per-probe overrides and data sources.
package config

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
)

const EnvPrefix = "CPTINTERP"

type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Server   ServerConfig
	Defaults Interpretation
	Probes   []ProbeOverride
	Sources  SourcesConfig
	Charts   []string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  int
	WriteTimeout int
}

// Interpretation holds the calculation settings applied to a probe. Pointer
// fields are optional.
type Interpretation struct {
	Method                   string
	AreaRatio                *float64
	UnitWeight               *float64
	UnitWeightProfile        []cpt.UnitWeightPoint
	GroundwaterDepth         *float64
	GroundwaterElevation     *float64
	ElevatedGroundwaterDepth *float64
	WaterUnitWeight          *float64
	Workers                  int
}

type ProbeOverride struct {
	ID             string
	Interpretation `mapstructure:",squash"`
}

type SourcesConfig struct {
	Points   []string
	Readings []string
}

// Load reads the manifest at path. An empty path searches cptinterp.yaml in
// the working directory and ./config; a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cptinterp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	seen := make(map[string]bool)
	for _, p := range cfg.Probes {
		if p.ID == "" {
			return nil, fmt.Errorf("probe override without id")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate probe override %q", p.ID)
		}
		seen[p.ID] = true
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "cptinterp.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	v.SetDefault("defaults.method", classify.Robertson1986Name)
	v.SetDefault("defaults.areaRatio", 0.8)
	v.SetDefault("defaults.unitWeight", 18.0)
	v.SetDefault("defaults.groundwaterDepth", 0.0)
	v.SetDefault("defaults.waterUnitWeight", cpt.DefaultWaterUnitWeight)
	v.SetDefault("defaults.workers", 4)
}

// Override returns the settings for a probe: the fields its override sets,
// falling back to the defaults.
func (c *Config) Override(pointID string) Interpretation {
	out := c.Defaults
	for _, p := range c.Probes {
		if p.ID == pointID {
			out = out.Merge(p.Interpretation)
		}
	}
	return out
}

// Merge returns in with every field set in o replacing its own. A constant
// unit weight in o drops the profile of in, and a groundwater depth in o drops
// its elevation.
func (in Interpretation) Merge(o Interpretation) Interpretation {
	out := in
	if o.Method != "" {
		out.Method = o.Method
	}
	if o.AreaRatio != nil {
		out.AreaRatio = o.AreaRatio
	}
	if o.UnitWeight != nil {
		out.UnitWeight = o.UnitWeight
		out.UnitWeightProfile = nil
	}
	if len(o.UnitWeightProfile) > 0 {
		out.UnitWeightProfile = o.UnitWeightProfile
	}
	if o.GroundwaterDepth != nil {
		out.GroundwaterDepth = o.GroundwaterDepth
		out.GroundwaterElevation = nil
	}
	if o.GroundwaterElevation != nil {
		out.GroundwaterElevation = o.GroundwaterElevation
	}
	if o.ElevatedGroundwaterDepth != nil {
		out.ElevatedGroundwaterDepth = o.ElevatedGroundwaterDepth
	}
	if o.WaterUnitWeight != nil {
		out.WaterUnitWeight = o.WaterUnitWeight
	}
	if o.Workers > 0 {
		out.Workers = o.Workers
	}
	return out
}

// Calculation builds the engine configuration for a probe. A groundwater
// elevation is converted to a depth with the ground elevation of the point
// and takes precedence over a groundwater depth.
func (in Interpretation) Calculation(point models.Point) (cpt.Config, error) {
	cfg := cpt.Config{Method: in.Method}
	if in.AreaRatio != nil {
		cfg.AreaRatio = *in.AreaRatio
	}

	switch {
	case len(in.UnitWeightProfile) > 0:
		cfg.UnitWeight = append(cpt.UnitWeightProfile(nil), in.UnitWeightProfile...)
	case in.UnitWeight != nil:
		cfg.UnitWeight = cpt.ConstantUnitWeight(*in.UnitWeight)
	}

	if in.GroundwaterDepth != nil {
		cfg.GroundwaterDepth = *in.GroundwaterDepth
	}
	if in.GroundwaterElevation != nil {
		if !point.Elevation.Valid {
			return cpt.Config{}, fmt.Errorf("%w: groundwater elevation given but point %q has no ground elevation",
				cpt.ErrInvalidConfiguration, point.PointID)
		}
		d, err := cpt.DepthBelowGround(point.Elevation.Float64, *in.GroundwaterElevation)
		if err != nil {
			return cpt.Config{}, err
		}
		cfg.GroundwaterDepth = d
	}
	if in.ElevatedGroundwaterDepth != nil {
		cfg.ElevatedGroundwaterDepth = sql.NullFloat64{Float64: *in.ElevatedGroundwaterDepth, Valid: true}
	}
	if in.WaterUnitWeight != nil {
		cfg.WaterUnitWeight = *in.WaterUnitWeight
	}
	return cfg, nil
}
