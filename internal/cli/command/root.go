package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/records-go/internal/cli/config"
	"github.com/yndnr/records-go/internal/cli/output"
	"github.com/yndnr/records-go/internal/cli/repl"
	"github.com/yndnr/records-go/internal/infra/buildinfo"
	"github.com/yndnr/records-go/internal/storage"
	"github.com/yndnr/records-go/internal/storage/snapshot"
	"github.com/yndnr/records-go/internal/telemetry/logger"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "records-cli",
		Usage:   "Inspect and edit a schema-light record store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: append(verbCommands(),
			SnapshotsCommand(),
			ShellCommand(),
			ConfigCommand(),
		),
		Before: before,
	}
}

// globalFlags returns the global CLI flags. Environment variables are
// applied by the config loader, not by the flags themselves.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI configuration file (default ~/.records/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Data path; snapshots are kept in a hidden directory next to it",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config   string
	Data     string
	Output   string
	Wide     bool
	LogLevel string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:   c.String("config"),
		Data:     c.String("data"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
		LogLevel: c.String("log-level"),
	}
}

// flagOverrides maps the global flags the user set to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"data":      "data.path",
		"output":    "output.format",
		"log-level": "log.level",
	}
	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

// Env carries the resolved configuration and streams shared by all
// commands of one invocation.
type Env struct {
	Config      *config.CLIConfig
	ConfigPath  string
	HistoryPath string

	Logger    logger.Logger
	Format    output.Format
	Formatter output.Formatter

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	configPath := flags.Config
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath, flagOverrides(c))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	env := &Env{
		Config:      cfg,
		ConfigPath:  configPath,
		HistoryPath: repl.DefaultHistoryPath(),
		Logger:      log,
		Format:      format,
		Formatter:   output.NewFormatter(format, flags.Wide),
		In:          c.App.Reader,
		Out:         c.App.Writer,
		Err:         c.App.ErrWriter,
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = env
	return nil
}

func envFrom(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialized")
}

// StorageConfig builds the engine configuration from the CLI settings.
func (env *Env) StorageConfig() storage.Config {
	cfg := storage.DefaultConfig(env.Config.Data.Path)
	cfg.Snapshot.Dir = env.SnapshotDir()
	cfg.Snapshot.Keep = env.Config.Snapshot.Keep
	cfg.LineWidth = env.Config.Report.LineWidth
	cfg.MetricsTextfile = env.Config.Metrics.Textfile
	cfg.Logger = env.Logger
	return cfg
}

// SnapshotDir returns the snapshot directory for the configured data path.
func (env *Env) SnapshotDir() string {
	return snapshot.DirFor(env.Config.Data.Path, env.Config.Snapshot.DirName)
}

func (env *Env) print(data any) error {
	return env.Formatter.Format(env.Out, data)
}

// printSummary writes the session reports. Machine-readable formats keep
// stdout clean, so the reports go to stderr there.
func (env *Env) printSummary(s storage.Summary) {
	w := env.Out
	if env.Format != output.FormatTable {
		w = env.Err
	}
	fmt.Fprintln(w, s.StructureReport)
	fmt.Fprintln(w, s.ContentReport)
	if s.Persisted != nil {
		fmt.Fprintln(w, storage.UndoHint)
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
