package service

import (
	"strconv"
	"strings"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/yndnr/records-go/internal/core/domain"
)

// Report texts for journals without net content.
const (
	NoContentChanges    = "No content changes."
	NoNetContentChanges = "No net content changes."
	NoStructureChanges  = "No structure changes."

	contentHeader   = "Content change report:"
	structureHeader = "Structure changes:"
)

// Report line limits. Every rendered content line is at most the
// tracker's line width in runes, which lies in [MinLineWidth,
// MaxLineWidth]; a single value is cut at MaxValueWidth. Cut text always
// ends with TruncatedMarker.
const (
	DefaultLineWidth = 120
	MinLineWidth     = 40
	MaxLineWidth     = 150
	MaxValueWidth    = 40
	TruncatedMarker  = "...[truncated]"
)

// Status is the net outcome of a session for one record.
type Status string

const (
	StatusCreated  Status = "created"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
)

// Entry is the reduced state of one record key.
type Entry struct {
	Key    domain.RecordKey
	Status Status

	// Removed is the pre-deletion record for StatusDeleted entries.
	Removed domain.Snapshot
}

// RecordSource resolves live records for report rendering.
type RecordSource interface {
	Snapshot(collection string, id int64) (domain.Snapshot, bool)
}

// Reduce folds a journal into net per-record entries, in the order keys
// were first tracked:
//
//   - add on an unknown key: created
//   - update on an unknown key: modified; on a known key: unchanged
//   - delete on a created key: the key is dropped
//   - any other delete: deleted, keeping the removed record
func Reduce(events []domain.ChangeEvent) []Entry {
	tracked := orderedmap.New[domain.RecordKey, Entry]()

	for _, ev := range events {
		key := ev.Key()
		current, known := tracked.Get(key)

		switch ev.Action {
		case domain.ActionAdd:
			if !known {
				tracked.Set(key, Entry{Key: key, Status: StatusCreated})
			}
		case domain.ActionUpdate:
			if !known {
				tracked.Set(key, Entry{Key: key, Status: StatusModified})
			}
		case domain.ActionDelete:
			if known && current.Status == StatusCreated {
				tracked.Delete(key)
				continue
			}
			tracked.Set(key, Entry{Key: key, Status: StatusDeleted, Removed: ev.Removed})
		}
	}

	out := make([]Entry, 0, tracked.Len())
	for pair := tracked.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// ContentReport renders the net content changes of the session. Created
// and modified records show their current values as resolved by src.
func (t *Tracker) ContentReport(src RecordSource) string {
	if len(t.events) == 0 {
		return NoContentChanges
	}

	entries := Reduce(t.events)
	if len(entries) == 0 {
		return NoNetContentChanges
	}

	lines := []string{contentHeader}
	for _, status := range []Status{StatusCreated, StatusModified, StatusDeleted} {
		for _, e := range entries {
			if e.Status != status {
				continue
			}
			if line, ok := t.renderEntry(e, src); ok {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Tracker) renderEntry(e Entry, src RecordSource) (string, bool) {
	var line string
	switch e.Status {
	case StatusCreated:
		snap, ok := src.Snapshot(e.Key.Collection, e.Key.ID)
		if !ok {
			return "", false
		}
		line = "+ " + e.Key.Collection + "(" + renderFields(snap, nil) + ")"
	case StatusModified:
		snap, ok := src.Snapshot(e.Key.Collection, e.Key.ID)
		if !ok {
			return "", false
		}
		id := "id=" + strconv.FormatInt(e.Key.ID, 10)
		line = "~ " + e.Key.Collection + "(" + renderFields(snap, []string{id}) + ")"
	case StatusDeleted:
		line = "- " + e.Key.Collection + "(id=" + strconv.FormatInt(e.Key.ID, 10) + ")"
	}
	return truncate(line, t.lineWidth), true
}

func renderFields(snap domain.Snapshot, lead []string) string {
	fields := lead
	if snap.Attributes != nil {
		for pair := snap.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			fields = append(fields, pair.Key+"="+truncate(domain.Render(pair.Value), MaxValueWidth))
		}
	}
	return strings.Join(fields, ", ")
}

// truncate cuts s to at most width runes, ending cut text with the marker.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	keep := width - utf8.RuneCountInString(TruncatedMarker)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + TruncatedMarker
}

// StructureReport renders the attributes typed for the first time during
// the session.
func (t *Tracker) StructureReport() string {
	if len(t.structure) == 0 {
		return NoStructureChanges
	}

	lines := make([]string, 0, len(t.structure)+1)
	lines = append(lines, structureHeader)
	for _, c := range t.structure {
		lines = append(lines, "+ "+c.Collection+"."+c.Attribute+": "+string(c.Type))
	}
	return strings.Join(lines, "\n")
}
