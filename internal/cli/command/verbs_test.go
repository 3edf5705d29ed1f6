package command

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/storage"
)

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

func TestCreate_PrintsReportsAndPersists(t *testing.T) {
	ta := newTestApp(t)

	res := ta.mustRun(t, "create", "location", "lat=52.37", "long=4.895", "name=Amsterdam")

	for _, want := range []string{
		"Structure changes:\n+ location.lat: number\n+ location.long: number\n+ location.name: string",
		"Content change report:\n+ location(lat=52.37, long=4.895, name=Amsterdam)",
		storage.UndoHint,
	} {
		if !strings.Contains(res.out, want) {
			t.Errorf("output missing %q:\n%s", want, res.out)
		}
	}

	res = ta.mustRun(t, "-o", "json", "list", "location")
	records := decodeJSON[[]map[string]any](t, res.out)
	if len(records) != 1 || records[0]["id"] != float64(0) || records[0]["name"] != "Amsterdam" {
		t.Errorf("records = %v", records)
	}
}

func TestCreate_SchemaViolation(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "gym", "time=25")

	_, err := ta.run("create", "gym", `time="late"`)
	if !errors.Is(err, domain.ErrSchemaViolation) {
		t.Fatalf("err = %v, want schema violation", err)
	}

	res := ta.mustRun(t, "count", "gym")
	if strings.TrimSpace(res.out) != "1" {
		t.Errorf("count = %q, want 1", res.out)
	}
}

func TestList_Where(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "gym", "name=A", "time=25")
	ta.mustRun(t, "create", "gym", "name=B", "time=35")
	ta.mustRun(t, "create", "gym", "name=C", "time=25")

	res := ta.mustRun(t, "-o", "json", "list", "gym", "--where", "time=25")
	records := decodeJSON[[]map[string]any](t, res.out)
	if len(records) != 2 || records[0]["name"] != "A" || records[1]["name"] != "C" {
		t.Errorf("records = %v", records)
	}

	res = ta.mustRun(t, "-o", "json", "list", "gym", "time=25", "name=C")
	records = decodeJSON[[]map[string]any](t, res.out)
	if len(records) != 1 || records[0]["id"] != float64(2) {
		t.Errorf("records = %v", records)
	}

	res = ta.mustRun(t, "-o", "json", "list", "nothing")
	if strings.TrimSpace(res.out) != "[]" {
		t.Errorf("unknown collection = %q, want []", res.out)
	}
}

func TestList_Table(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "gym", "name=A", "time=25")
	ta.mustRun(t, "create", "gym", "name=B", "coach=Kim")

	res := ta.mustRun(t, "list", "gym")
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	if len(lines) != 3 {
		t.Fatalf("table = %q", res.out)
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "ID name time coach" {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[2]); strings.Join(fields, " ") != "1 B - Kim" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestSetAndGet(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "c", "v=1", "tags=[]")

	res := ta.mustRun(t, "set", "c", "0", "v=2", `tags=["a"]`)
	if !strings.Contains(res.out, "Content change report:") {
		t.Errorf("set output missing report:\n%s", res.out)
	}

	res = ta.mustRun(t, "-o", "yaml", "get", "c", "0")
	want := "id: 0\nv: 2\ntags:\n  - a\n"
	if res.out != want {
		t.Errorf("get =\n%s\nwant\n%s", res.out, want)
	}

	if _, err := ta.run("set", "c", "0", "v=oops"); !errors.Is(err, domain.ErrSchemaViolation) {
		t.Errorf("set wrong type = %v", err)
	}
	if _, err := ta.run("set", "c", "9", "v=3"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("set missing record = %v", err)
	}
	if _, err := ta.run("get", "c", "x"); err == nil {
		t.Error("get with a bad id should fail")
	}
	if _, err := ta.run("set", "c", "0"); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Errorf("set without assignments = %v", err)
	}
}

func TestDelete(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "c", "v=1")

	res := ta.mustRun(t, "delete", "c", "0")
	if !strings.Contains(res.err, "deleted c(id=0)") {
		t.Errorf("stderr = %q", res.err)
	}
	if !strings.Contains(res.out, "- c(id=0)") {
		t.Errorf("report missing deletion:\n%s", res.out)
	}

	if _, err := ta.run("delete", "c", "0"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestStructure(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "person", "name=Alice", "age=30", "nick=null")
	ta.mustRun(t, "create", "gym", "open=true")

	res := ta.mustRun(t, "-o", "json", "structure", "person")
	rows := decodeJSON[[]StructureRow](t, res.out)

	want := []StructureRow{
		{"person", "id", "number"},
		{"person", "name", "string"},
		{"person", "age", "number"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}

	if _, err := ta.run("structure", "ghost"); !errors.Is(err, domain.ErrInvalidCollection) {
		t.Errorf("unknown collection = %v", err)
	}
}

func TestUndo(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, "create", "c", "v=first")
	ta.mustRun(t, "create", "c", "v=second")

	res := ta.mustRun(t, "undo")
	if !strings.Contains(res.err, "discarded snapshot") {
		t.Errorf("stderr = %q", res.err)
	}
	if got := strings.TrimSpace(ta.mustRun(t, "count", "c").out); got != "1" {
		t.Errorf("count after undo = %s, want 1", got)
	}

	ta.mustRun(t, "undo")
	if _, err := ta.run("undo"); !errors.Is(err, domain.ErrNoSnapshots) {
		t.Errorf("undo without history = %v", err)
	}
}

func TestPersistAndSnapshots(t *testing.T) {
	ta := newTestApp(t)

	res := ta.mustRun(t, "-o", "json", "snapshots", "list")
	if strings.TrimSpace(res.out) != "[]" {
		t.Errorf("empty history = %q", res.out)
	}

	ta.mustRun(t, "create", "c", "v=1")
	res = ta.mustRun(t, "-o", "json", "persist")
	info := decodeJSON[map[string]any](t, res.out)
	if info["records"] != float64(1) {
		t.Errorf("persist info = %v", info)
	}

	res = ta.mustRun(t, "-o", "json", "snapshots", "ls")
	infos := decodeJSON[[]map[string]any](t, res.out)
	if len(infos) != 2 {
		t.Fatalf("snapshots = %v, want 2", infos)
	}
	if infos[1]["id"] != info["id"] {
		t.Errorf("latest = %v, want %v", infos[1]["id"], info["id"])
	}
}

func TestUnknownShellVerb(t *testing.T) {
	s := &session{}
	if err := s.exec(context.Background(), []string{"frobnicate"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("exec = %v", err)
	}
	if err := s.exec(context.Background(), []string{"get", "c"}); err == nil || !strings.Contains(err.Error(), "usage: get") {
		t.Errorf("exec = %v", err)
	}
}
