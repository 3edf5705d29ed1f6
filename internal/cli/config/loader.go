package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/records-go/internal/infra/confloader"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".records", "cli.yaml")
	}
	return filepath.Join(homeDir, ".records", "cli.yaml")
}

// Load reads the configuration at path (DefaultConfigPath when empty) and
// applies RECORDS_* environment variables and flags, keyed by dotted path.
// A missing file yields the defaults.
func Load(path string, flags map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	l := confloader.NewLoader(
		confloader.WithDefaults(defaultValues()),
		confloader.WithConfigFile(path),
		confloader.WithFlags(flags),
	)

	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"data.path":         d.Data.Path,
		"snapshot.dir_name": d.Snapshot.DirName,
		"snapshot.keep":     d.Snapshot.Keep,
		"log.level":         d.Log.Level,
		"log.format":        d.Log.Format,
		"report.line_width": d.Report.LineWidth,
		"output.format":     d.Output.Format,
		"metrics.textfile":  d.Metrics.Textfile,
	}
}

// Save writes cfg as YAML to path (DefaultConfigPath when empty),
// readable by the owner only.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
