package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/logging"
	"github.com/lox/cptinterp/internal/store"
)

type Globals struct {
	EnvFile  kongdotenv.ENVFileConfig `kong:"optional,name=env-file,help='Path to a .env file.'"`
	Config   string                   `short:"c" type:"path" env:"CPTINTERP_CONFIG" help:"Project manifest (default: ./cptinterp.yaml)."`
	DB       string                   `type:"path" env:"CPTINTERP_DB" help:"SQLite database, overrides the manifest."`
	LogLevel string                   `env:"CPTINTERP_LOG_LEVEL" help:"Log level, overrides the manifest."`
}

type CLI struct {
	Globals

	Import    ImportCmd    `cmd:"" help:"Import points and readings from files, HTTP or FTP."`
	Interpret InterpretCmd `cmd:"" help:"Derive parameters and classify soundings."`
	Charts    ChartsCmd    `cmd:"" help:"Manage polygon classification charts."`
	Schemes   SchemesCmd   `cmd:"" help:"List classification schemes."`
	Serve     ServeCmd     `cmd:"" help:"Run the HTTP API."`
}

// App is bound into every command.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  *store.Store
	Engine *cpt.Engine
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("cptinterp"),
		kong.Description("CPT parameter derivation and soil classification."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	app, err := newApp(cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cptinterp: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	err = kctx.Run(app)
	if err != nil {
		app.Log.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
	}
	kctx.FatalIfErrorf(err)
}

func newApp(g Globals) (*App, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.DB != "" {
		cfg.Database.Path = g.DB
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	registry := classify.NewRegistry()
	if err := registerCharts(registry, st, cfg.Charts, log); err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		Config: cfg,
		Log:    log,
		Store:  st,
		Engine: cpt.NewEngine(registry, log),
	}, nil
}

func (a *App) close() {
	a.Store.Close()
	a.Log.Sync()
}

// registerCharts adds the stored charts and the charts named in the manifest
// to the registry. Manifest charts replace stored charts of the same name.
func registerCharts(r *classify.Registry, st *store.Store, paths []string, log *zap.Logger) error {
	stored, err := st.ListCharts()
	if err != nil {
		return fmt.Errorf("list charts: %w", err)
	}
	for _, c := range stored {
		scheme, err := classify.NewChartScheme(c)
		if err != nil {
			log.Warn("skipping invalid stored chart", zap.String("chart", c.Name), zap.Error(err))
			continue
		}
		r.Register(scheme)
	}

	for _, path := range paths {
		c, err := config.LoadChart(path)
		if err != nil {
			return err
		}
		scheme, err := classify.NewChartScheme(c)
		if err != nil {
			return err
		}
		r.Register(scheme)
		log.Debug("chart registered", zap.String("chart", c.Name), zap.String("path", path))
	}
	return nil
}
