package memory

import (
	"errors"
	"testing"

	"github.com/yndnr/records-go/internal/core/domain"
)

type journal struct {
	events    []domain.ChangeEvent
	structure []domain.StructureChange
	rejected  []error
}

func (j *journal) Track(ev domain.ChangeEvent) { j.events = append(j.events, ev) }
func (j *journal) TrackStructure(c domain.StructureChange) { j.structure = append(j.structure, c) }
func (j *journal) Reject(_, _ string, err error) { j.rejected = append(j.rejected, err) }

func TestStore_CreateAllocatesIDs(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))

	a, err := store.Create("location", []domain.Field{domain.F("lat", 52.37), domain.F("lon", 4.895), domain.F("name", "Amsterdam")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := store.Create("location", []domain.Field{domain.F("lat", 40.71), domain.F("name", "NYC")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := store.Create("gym", []domain.Field{domain.F("name", "A")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if a.ID() != 0 || b.ID() != 1 {
		t.Fatalf("ids = %d, %d, want 0, 1", a.ID(), b.ID())
	}
	if other.ID() != 0 {
		t.Errorf("ids are per collection: got %d, want 0", other.ID())
	}
	if store.Count("location") != 2 {
		t.Errorf("Count = %d, want 2", store.Count("location"))
	}

	if len(j.events) != 3 || j.events[0].Action != domain.ActionAdd {
		t.Fatalf("events = %+v", j.events)
	}
	if got, _ := j.events[0].Attributes.Get("name"); got != "Amsterdam" {
		t.Errorf("add event name = %v", got)
	}
	// lat, lon, name on location then name on gym
	if len(j.structure) != 4 {
		t.Errorf("structure changes = %d, want 4", len(j.structure))
	}
}

func TestStore_IDsNeverReused(t *testing.T) {
	store := New()
	for i := 0; i < 3; i++ {
		if _, err := store.Create("c", nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if !store.Delete("c", 2) {
		t.Fatal("Delete(2) = false")
	}
	rec, err := store.Create("c", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID() != 3 {
		t.Errorf("ID after delete = %d, want 3", rec.ID())
	}
}

func TestStore_SchemaViolation(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))

	if _, err := store.Create("gym", []domain.Field{domain.F("time", 30)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := store.Create("gym", []domain.Field{domain.F("name", "B"), domain.F("time", "thirty")})
	if !errors.Is(err, domain.ErrSchemaViolation) {
		t.Fatalf("Create error = %v, want ErrSchemaViolation", err)
	}
	if len(j.rejected) != 1 {
		t.Errorf("rejected = %d, want 1", len(j.rejected))
	}

	// The failed create must not leave a record, a type or a used id.
	if store.Count("gym") != 1 {
		t.Errorf("Count = %d, want 1", store.Count("gym"))
	}
	attrs, _ := store.Schema("gym")
	if len(attrs) != 2 {
		t.Errorf("Schema = %v, want [id time]", attrs)
	}
	rec, err := store.Create("gym", []domain.Field{domain.F("time", 45)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID() != 1 {
		t.Errorf("ID = %d, want 1", rec.ID())
	}
}

func TestStore_NullPassesAnySchema(t *testing.T) {
	store := New()
	rec, err := store.Create("c", []domain.Field{domain.F("n", 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := rec.Set("n", nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}
	if err := rec.Set("n", 2.5); err != nil {
		t.Fatalf("Set(float) on number attribute: %v", err)
	}
	if err := rec.Set("n", true); !errors.Is(err, domain.ErrSchemaViolation) {
		t.Errorf("Set(bool) error = %v, want ErrSchemaViolation", err)
	}
}

func TestStore_NullDoesNotFixType(t *testing.T) {
	store := New()
	if _, err := store.Create("c", []domain.Field{domain.F("x", nil)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create("c", []domain.Field{domain.F("x", "text")}); err != nil {
		t.Fatalf("Create after null: %v", err)
	}
	if got := store.Structure()["c"]["x"]; got != "string" {
		t.Errorf("type of x = %q, want string", got)
	}
}

func TestStore_UnsupportedValue(t *testing.T) {
	store := New()
	_, err := store.Create("c", []domain.Field{domain.F("bad", struct{}{})})
	if !errors.Is(err, domain.ErrUnsupportedValue) {
		t.Fatalf("error = %v, want ErrUnsupportedValue", err)
	}
	if store.Count("c") != 0 {
		t.Errorf("Count = %d, want 0", store.Count("c"))
	}
}

func TestStore_InvalidNames(t *testing.T) {
	store := New()
	if _, err := store.Create("", nil); !errors.Is(err, domain.ErrInvalidCollection) {
		t.Errorf("empty collection error = %v", err)
	}
	if _, err := store.Create("c", []domain.Field{domain.F("id", 5)}); !errors.Is(err, domain.ErrInvalidAttribute) {
		t.Errorf("reserved id error = %v", err)
	}
	if _, err := store.Create("c", []domain.Field{domain.F("a", 1), domain.F("a", 2)}); !errors.Is(err, domain.ErrInvalidAttribute) {
		t.Errorf("duplicate attribute error = %v", err)
	}
}

func TestStore_SetEmitsUpdate(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))
	rec, _ := store.Create("location", []domain.Field{domain.F("name", "NYC")})
	j.events = nil

	if err := rec.Set("name", "NYC"); err != nil {
		t.Fatalf("Set same: %v", err)
	}
	if len(j.events) != 0 {
		t.Fatalf("identical Set emitted %d events", len(j.events))
	}

	if err := rec.Set("name", "New York"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(j.events) != 1 {
		t.Fatalf("events = %d, want 1", len(j.events))
	}
	ev := j.events[0]
	if ev.Action != domain.ActionUpdate || ev.Attribute != "name" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Change.Old != "NYC" || ev.Change.New != "New York" {
		t.Errorf("change = %+v", ev.Change)
	}

	if err := rec.Set("pop", 8); err != nil {
		t.Fatalf("Set new attribute: %v", err)
	}
	if j.events[1].Change.Old != nil {
		t.Errorf("old value of new attribute = %v, want nil", j.events[1].Change.Old)
	}
	if got, _ := rec.Get("pop"); got != int64(8) {
		t.Errorf("Get(pop) = %#v", got)
	}
	if attrs := rec.Attributes(); len(attrs) != 2 || attrs[0] != "name" || attrs[1] != "pop" {
		t.Errorf("Attributes = %v, want [name pop]", attrs)
	}
}

func TestStore_SetMissingRecord(t *testing.T) {
	store := New()
	rec, _ := store.Create("c", nil)
	rec.Delete()

	if err := rec.Set("a", 1); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Set on deleted record error = %v", err)
	}
	if _, ok := rec.Get("id"); ok {
		t.Error("Get on deleted record should report false")
	}
	if err := store.Set("nope", 0, "a", 1); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Set on unknown collection error = %v", err)
	}
}

func TestStore_DeleteEmitsRemovedSnapshot(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))
	rec, _ := store.Create("c", []domain.Field{domain.F("k", "v")})

	if !store.Delete("c", rec.ID()) {
		t.Fatal("Delete = false")
	}
	if store.Delete("c", rec.ID()) {
		t.Error("second Delete = true")
	}
	if store.Delete("missing", 0) {
		t.Error("Delete on unknown collection = true")
	}

	last := j.events[len(j.events)-1]
	if last.Action != domain.ActionDelete {
		t.Fatalf("last action = %s", last.Action)
	}
	if v, _ := last.Removed.Get("k"); v != "v" {
		t.Errorf("removed snapshot k = %v", v)
	}
}

func TestStore_ListReturnsDetachedCopies(t *testing.T) {
	store := New()
	store.Create("c", []domain.Field{domain.F("tags", []any{"a"})})
	store.Create("c", []domain.Field{domain.F("tags", []any{"b"})})

	list := store.List("c")
	if len(list) != 2 || list[0].ID != 0 || list[1].ID != 1 {
		t.Fatalf("List = %+v", list)
	}
	tags, _ := list[0].Get("tags")
	tags.([]any)[0] = "mutated"

	again := store.List("c")
	if v, _ := again[0].Get("tags"); v.([]any)[0] != "a" {
		t.Error("List exposes stored values")
	}

	if got := store.List("unknown"); got == nil || len(got) != 0 {
		t.Errorf("List(unknown) = %#v, want empty", got)
	}
}

func TestStore_RestoreKeepsIDs(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))

	a := domain.NewRecord(4)
	a.Attrs.Set("name", "x")
	b := domain.NewRecord(9)
	b.Attrs.Set("name", "y")

	err := store.Restore([]domain.CollectionState{{Name: "c", Records: []domain.Snapshot{a.Snapshot(), b.Snapshot()}}})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(j.events) != 0 || len(j.structure) != 0 {
		t.Errorf("Restore emitted events: %d/%d", len(j.events), len(j.structure))
	}

	rec, err := store.Create("c", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID() != 10 {
		t.Errorf("ID after restore = %d, want 10", rec.ID())
	}
	if _, err := store.Create("c", []domain.Field{domain.F("name", 1)}); !errors.Is(err, domain.ErrSchemaViolation) {
		t.Errorf("restored schema not enforced: %v", err)
	}
}

func TestStore_RestoreRejectsConflicts(t *testing.T) {
	store := New()
	store.Create("keep", nil)

	a := domain.NewRecord(0)
	a.Attrs.Set("v", int64(1))
	b := domain.NewRecord(1)
	b.Attrs.Set("v", "one")

	err := store.Restore([]domain.CollectionState{{Name: "c", Records: []domain.Snapshot{a.Snapshot(), b.Snapshot()}}})
	if !errors.Is(err, domain.ErrSchemaViolation) {
		t.Fatalf("Restore error = %v, want ErrSchemaViolation", err)
	}
	if store.Count("keep") != 1 {
		t.Error("failed Restore changed the store")
	}

	dup := []domain.Snapshot{domain.NewRecord(1).Snapshot(), domain.NewRecord(1).Snapshot()}
	if err := store.Restore([]domain.CollectionState{{Name: "c", Records: dup}}); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("duplicate id error = %v", err)
	}
}

func TestStore_CollectionsAndReset(t *testing.T) {
	store := New()
	store.Create("b", nil)
	store.Create("a", nil)

	got := store.Collections()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Collections = %v, want [b a]", got)
	}

	store.Reset()
	if len(store.Collections()) != 0 || store.Count("b") != 0 {
		t.Error("Reset left collections behind")
	}
}

func TestStore_NullOnAbsentAttributeStaysAbsent(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))
	rec, err := store.Create("c", []domain.Field{domain.F("n", 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := rec.Set("note", nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}
	if got := rec.Attributes(); len(got) != 1 || got[0] != "n" {
		t.Errorf("Attributes = %v, want [n]", got)
	}
	if _, ok := rec.Get("note"); ok {
		t.Error("null assignment created the attribute")
	}
	if len(j.events) != 1 {
		t.Errorf("events = %d, want only the add", len(j.events))
	}
}

func TestStore_SealRejectsMutations(t *testing.T) {
	j := &journal{}
	store := New(WithRecorder(j))
	rec, err := store.Create("c", []domain.Field{domain.F("v", 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.Seal()
	if !store.Sealed() {
		t.Fatal("Sealed() = false after Seal")
	}

	if _, err := store.Create("c", []domain.Field{domain.F("v", 2)}); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("Create on sealed store = %v, want ErrStorageError", err)
	}
	if err := rec.Set("v", 3); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("Set on sealed store = %v, want ErrStorageError", err)
	}
	if rec.Delete() {
		t.Error("Delete on sealed store removed the record")
	}

	if len(j.events) != 1 {
		t.Errorf("events = %d, want 1", len(j.events))
	}
	if store.Count("c") != 1 {
		t.Errorf("Count = %d, want 1", store.Count("c"))
	}
	if v, _ := rec.Get("v"); v != int64(1) {
		t.Errorf("v = %v, want 1", v)
	}
}
