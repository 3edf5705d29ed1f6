package command

import (
	"os"
	"strings"
	"testing"
)

func TestConfigInitShowValidate(t *testing.T) {
	ta := newTestApp(t)

	res := ta.mustRun(t, "config", "init")
	if !strings.Contains(res.err, "wrote "+ta.configPath) {
		t.Errorf("stderr = %q", res.err)
	}
	data, err := os.ReadFile(ta.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "path: "+ta.dataPath) {
		t.Errorf("config file =\n%s", data)
	}

	if _, err := ta.run("config", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init = %v", err)
	}
	ta.mustRun(t, "config", "init", "--force")

	res = ta.mustRun(t, "--log-level", "debug", "config", "show")
	for _, want := range []string{"level: debug", "dir_name: .records", "format: table"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("show missing %q:\n%s", want, res.out)
		}
	}

	res = ta.mustRun(t, "config", "validate")
	if !strings.Contains(res.out, "configuration is valid") {
		t.Errorf("validate = %q", res.out)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	ta := newTestApp(t)

	bad := ta.dir + "/bad.yaml"
	if err := os.WriteFile(bad, []byte("snapshot:\n  keep: -3\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := ta.run("config", "validate", bad)
	if err == nil || !strings.Contains(err.Error(), "snapshot.keep") {
		t.Errorf("validate = %v", err)
	}

	if _, err := ta.run("config", "validate", ta.dir+"/absent.yaml"); err == nil {
		t.Error("validate of a missing file should fail")
	}
}

func TestConfigFile_UsedByCommands(t *testing.T) {
	ta := newTestApp(t)

	content := "snapshot:\n  dir_name: .history\noutput:\n  format: json\n"
	if err := os.WriteFile(ta.configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ta.mustRun(t, "create", "c", "v=1")
	if _, err := os.Stat(ta.dir + "/.history"); err != nil {
		t.Errorf("snapshot dir from config not used: %v", err)
	}

	res := ta.mustRun(t, "list", "c")
	if !strings.HasPrefix(strings.TrimSpace(res.out), "[") {
		t.Errorf("output format from config not used: %q", res.out)
	}
}
