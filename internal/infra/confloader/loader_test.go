package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Data struct {
		Path string `koanf:"path"`
	} `koanf:"data"`
	Snapshot struct {
		DirName string `koanf:"dir_name"`
		Keep    int    `koanf:"keep"`
	} `koanf:"snapshot"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
data:
  path: /var/lib/records.db
snapshot:
  keep: 5
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("data.path"); got != "/var/lib/records.db" {
		t.Errorf("data.path = %q", got)
	}
	if got := l.GetInt("snapshot.keep"); got != 5 {
		t.Errorf("snapshot.keep = %d", got)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") = %v", err)
	}
	if err := l.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("RECORDS_SNAPSHOT_DIR_NAME", ".history")
	t.Setenv("RECORDS_LOG_LEVEL", "debug")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("snapshot.dir_name"); got != ".history" {
		t.Errorf("snapshot.dir_name = %q", got)
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"RECORDS_DATA_PATH", "data.path"},
		{"RECORDS_SNAPSHOT_DIR_NAME", "snapshot.dir_name"},
		{"RECORDS_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := envKey("RECORDS_", tt.name); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"data.path": "x.db", "snapshot.keep": 3}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Data.Path != "x.db" || cfg.Snapshot.Keep != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
data:
  path: from-file.db
snapshot:
  dir_name: .from-file
log:
  level: warn
`)
	t.Setenv("RECORDS_SNAPSHOT_DIR_NAME", ".from-env")
	t.Setenv("RECORDS_LOG_LEVEL", "error")

	l := NewLoader(
		WithDefaults(map[string]any{
			"data.path":         "default.db",
			"snapshot.dir_name": ".records",
			"snapshot.keep":     7,
			"log.level":         "info",
		}),
		WithConfigFile(path),
		WithFlags(map[string]any{"log.level": "debug"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Snapshot.Keep != 7 {
		t.Errorf("Keep = %d, want default 7", cfg.Snapshot.Keep)
	}
	if cfg.Data.Path != "from-file.db" {
		t.Errorf("Path = %q, file should override default", cfg.Data.Path)
	}
	if cfg.Snapshot.DirName != ".from-env" {
		t.Errorf("DirName = %q, env should override file", cfg.Snapshot.DirName)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, flag should override env", cfg.Log.Level)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load()")
	}
}

func TestLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	l := NewLoader(
		WithDefaults(map[string]any{"data.path": "default.db"}),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Path != "default.db" {
		t.Errorf("Path = %q", cfg.Data.Path)
	}
}

func TestLoader_Load_MalformedFile(t *testing.T) {
	path := writeConfig(t, "data: [unclosed\n")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}
}
