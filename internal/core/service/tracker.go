// Package service provides domain services for the record store.
//
// Tracker journals the content and structure changes of one session and
// reduces them into the net change reports.
package service

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/records-go/internal/core/domain"
)

// Tracker is the change journal of one store session.
//
// Events are kept in the order they were tracked; reduction is
// order-sensitive. A Tracker is owned by one store and is not safe for
// concurrent use.
type Tracker struct {
	sessionID string
	events    []domain.ChangeEvent
	structure []domain.StructureChange
	lineWidth int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLineWidth sets the maximum rune width of a content report line.
// Widths outside [MinLineWidth, MaxLineWidth] are clamped.
func WithLineWidth(width int) TrackerOption {
	return func(t *Tracker) {
		t.lineWidth = width
	}
}

// NewTracker creates an empty journal with a fresh session id.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		sessionID: newSessionID(),
		lineWidth: DefaultLineWidth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.lineWidth = min(max(t.lineWidth, MinLineWidth), MaxLineWidth)
	return t
}

// newSessionID returns a lowercase ULID.
func newSessionID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return strings.ToLower(id.String())
}

// SessionID identifies the session this journal belongs to.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Track appends a content change.
func (t *Tracker) Track(ev domain.ChangeEvent) {
	t.events = append(t.events, ev)
}

// TrackStructure appends a structure change.
func (t *Tracker) TrackStructure(c domain.StructureChange) {
	t.structure = append(t.structure, c)
}

// Events returns a copy of the content journal.
func (t *Tracker) Events() []domain.ChangeEvent {
	out := make([]domain.ChangeEvent, len(t.events))
	copy(out, t.events)
	return out
}

// StructureChanges returns a copy of the structure journal.
func (t *Tracker) StructureChanges() []domain.StructureChange {
	out := make([]domain.StructureChange, len(t.structure))
	copy(out, t.structure)
	return out
}

// Len returns the number of journaled content changes.
func (t *Tracker) Len() int {
	return len(t.events)
}

// Clear discards both journals. The session id is kept.
func (t *Tracker) Clear() {
	t.events = nil
	t.structure = nil
}
