// Package command defines the records-cli commands on urfave/cli/v2.
//
// Every verb (create, set, get, list, count, delete, structure, persist,
// undo, snapshots) runs either as a single-shot command inside one
// storage.With scope or as a line of the interactive shell, which keeps
// one engine open for the whole session.
package command
