package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/records-go/internal/core/service"
	"github.com/yndnr/records-go/internal/storage/snapshot"
)

// CLIConfig is the configuration for records-cli.
type CLIConfig struct {
	Data     DataConfig     `koanf:"data" yaml:"data"`
	Snapshot SnapshotConfig `koanf:"snapshot" yaml:"snapshot"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Report   ReportConfig   `koanf:"report" yaml:"report"`
	Output   OutputConfig   `koanf:"output" yaml:"output"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
}

// DataConfig locates the store.
type DataConfig struct {
	// Path is the logical data path; snapshots live next to it.
	Path string `koanf:"path" yaml:"path"`
}

// SnapshotConfig controls the snapshot directory.
type SnapshotConfig struct {
	DirName string `koanf:"dir_name" yaml:"dir_name"`
	// Keep bounds the number of snapshot files. 0 keeps all of them.
	Keep int `koanf:"keep" yaml:"keep"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // text, json
}

// ReportConfig controls change report rendering.
type ReportConfig struct {
	LineWidth int `koanf:"line_width" yaml:"line_width"`
}

// OutputConfig controls command output.
type OutputConfig struct {
	Format string `koanf:"format" yaml:"format"` // table, json, yaml
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile receives the session metrics on close when set.
	Textfile string `koanf:"textfile" yaml:"textfile"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Data:     DataConfig{Path: "records.db"},
		Snapshot: SnapshotConfig{DirName: snapshot.DefaultDirName},
		Log:      LogConfig{Level: "warn", Format: "text"},
		Report:   ReportConfig{LineWidth: 120},
		Output:   OutputConfig{Format: "table"},
	}
}

// Verify checks the configuration and reports every problem found.
func (c *CLIConfig) Verify() error {
	var errs []error

	if strings.TrimSpace(c.Data.Path) == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if c.Snapshot.DirName == "" || strings.ContainsAny(c.Snapshot.DirName, `/\`) {
		errs = append(errs, fmt.Errorf("snapshot.dir_name %q must be a plain directory name", c.Snapshot.DirName))
	}
	if c.Snapshot.Keep < 0 {
		errs = append(errs, fmt.Errorf("snapshot.keep must be >= 0, got %d", c.Snapshot.Keep))
	}
	if !oneOf(c.Log.Level, "debug", "info", "warn", "error") {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if !oneOf(c.Log.Format, "text", "json") {
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Report.LineWidth < 0 || c.Report.LineWidth > service.MaxLineWidth {
		errs = append(errs, fmt.Errorf("report.line_width must be between 0 and %d, got %d",
			service.MaxLineWidth, c.Report.LineWidth))
	}
	if !oneOf(c.Output.Format, "table", "json", "yaml") {
		errs = append(errs, fmt.Errorf("output.format %q is not one of table, json, yaml", c.Output.Format))
	}

	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
