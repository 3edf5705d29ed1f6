// Package service provides the change tracker of a store session.
//
// A Tracker receives every applied change and every newly typed attribute
// from the record store, in order. At the end of a session it folds the
// journal into net per-record changes and renders two reports:
//
//   - the structure report lists attributes whose type was fixed during
//     the session
//   - the content report lists created, modified and deleted records,
//     rendered against the live store and clipped to the line width
//
// A record created and deleted in the same session leaves no trace.
package service
