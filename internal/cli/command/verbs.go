package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/storage"
	"github.com/yndnr/records-go/internal/storage/snapshot"
)

// session runs verbs against one open engine.
type session struct {
	env *Env
	eng *storage.Engine

	// shell is set when the engine outlives the verb.
	shell bool
}

type verb struct {
	name    string
	usage   string
	summary string
	minArgs int
	mutates bool
	where   bool
	run     func(s *session, args []string) error
}

func verbs() []verb {
	return []verb{
		{
			name:    "create",
			usage:   "COLLECTION [KEY=VALUE...]",
			summary: "Create a record",
			minArgs: 1,
			mutates: true,
			run:     (*session).create,
		},
		{
			name:    "set",
			usage:   "COLLECTION ID KEY=VALUE...",
			summary: "Assign attributes of a record",
			minArgs: 3,
			mutates: true,
			run:     (*session).set,
		},
		{
			name:    "get",
			usage:   "COLLECTION ID",
			summary: "Show a record",
			minArgs: 2,
			run:     (*session).get,
		},
		{
			name:    "list",
			usage:   "COLLECTION [KEY=VALUE...]",
			summary: "List records, optionally only those matching every KEY=VALUE",
			minArgs: 1,
			where:   true,
			run:     (*session).list,
		},
		{
			name:    "count",
			usage:   "COLLECTION",
			summary: "Count the records of a collection",
			minArgs: 1,
			run:     (*session).count,
		},
		{
			name:    "delete",
			usage:   "COLLECTION ID",
			summary: "Delete a record",
			minArgs: 2,
			mutates: true,
			run:     (*session).delete,
		},
		{
			name:    "structure",
			usage:   "[COLLECTION...]",
			summary: "Show attribute types per collection",
			run:     (*session).structure,
		},
		{
			name:    "persist",
			summary: "Write the current state as a new snapshot",
			run:     (*session).persist,
		},
		{
			name:    "undo",
			summary: "Discard the latest snapshot",
			run:     (*session).undo,
		},
		{
			name:    "snapshots",
			summary: "List snapshots, oldest first",
			run:     (*session).snapshots,
		},
	}
}

func lookupVerb(name string) (verb, bool) {
	for _, v := range verbs() {
		if v.name == name {
			return v, true
		}
	}
	return verb{}, false
}

func verbNames() []string {
	var names []string
	for _, v := range verbs() {
		names = append(names, v.name)
	}
	return names
}

// verbCommands returns the single-shot commands. The snapshots verb is
// exposed as "snapshots list" instead.
func verbCommands() []*cli.Command {
	var cmds []*cli.Command
	for _, v := range verbs() {
		if v.name == "snapshots" {
			continue
		}
		cmds = append(cmds, verbCommand(v))
	}
	return cmds
}

func verbCommand(v verb) *cli.Command {
	cmd := &cli.Command{
		Name:      v.name,
		Usage:     v.summary,
		ArgsUsage: v.usage,
		Action: func(c *cli.Context) error {
			env, err := envFrom(c)
			if err != nil {
				return err
			}
			args := c.Args().Slice()
			if v.where {
				args = append(args, c.StringSlice("where")...)
			}
			return env.runOnce(v, args)
		},
	}
	if v.where {
		cmd.Flags = []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "where",
				Usage: "Only records whose attribute equals the value (KEY=VALUE, repeatable)",
			},
		}
	}
	return cmd
}

// runOnce opens the store, runs v and closes the store, persisting any
// change. Mutating verbs print the session reports.
func (env *Env) runOnce(v verb, args []string) error {
	if err := v.checkArgs(args); err != nil {
		return err
	}

	cfg := env.StorageConfig()
	if v.mutates {
		cfg.OnClose = env.printSummary
	}
	return storage.With(cfg, func(e *storage.Engine) error {
		return v.run(&session{env: env, eng: e}, args)
	})
}

func (v verb) checkArgs(args []string) error {
	if len(args) < v.minArgs {
		return fmt.Errorf("usage: %s %s", v.name, v.usage)
	}
	return nil
}

// exec runs one shell line.
func (s *session) exec(_ context.Context, args []string) error {
	v, ok := lookupVerb(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	rest := args[1:]
	if err := v.checkArgs(rest); err != nil {
		return err
	}
	return v.run(s, rest)
}

func notFound(collection string, id int64) error {
	return domain.ErrRecordNotFound.WithDetails(fmt.Sprintf("%s(id=%d)", collection, id))
}

func (s *session) create(args []string) error {
	fields, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	rec, err := s.eng.Collection(args[0]).Create(fields...)
	if err != nil {
		return err
	}
	snap, _ := rec.Snapshot()
	return s.env.print(snap)
}

// set applies the assignments in order and stops at the first rejected
// one; earlier assignments stay applied.
func (s *session) set(args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	fields, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}

	rec, ok := s.eng.Collection(args[0]).Get(id)
	if !ok {
		return notFound(args[0], id)
	}
	for _, f := range fields {
		if err := rec.Set(f.Name, f.Value); err != nil {
			return err
		}
	}
	snap, _ := rec.Snapshot()
	return s.env.print(snap)
}

func (s *session) get(args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	rec, ok := s.eng.Collection(args[0]).Get(id)
	if !ok {
		return notFound(args[0], id)
	}
	snap, _ := rec.Snapshot()
	return s.env.print(snap)
}

func (s *session) list(args []string) error {
	filters, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	keep, err := matchAll(filters)
	if err != nil {
		return err
	}
	return s.env.print(s.eng.Collection(args[0]).Filter(keep))
}

func (s *session) count(args []string) error {
	return s.env.print(s.eng.Collection(args[0]).Count())
}

func (s *session) delete(args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	if !s.eng.Collection(args[0]).Delete(id) {
		return notFound(args[0], id)
	}
	fmt.Fprintf(s.env.Err, "deleted %s(id=%d)\n", args[0], id)
	return nil
}

// StructureRow is one typed attribute.
type StructureRow struct {
	Collection string `json:"collection" yaml:"collection"`
	Attribute  string `json:"attribute" yaml:"attribute"`
	Type       string `json:"type" yaml:"type"`
}

func (s *session) structure(args []string) error {
	collections := args
	if len(collections) == 0 {
		collections = s.eng.Collections()
	}

	types := s.eng.Structure()
	rows := make([]StructureRow, 0)
	for _, c := range collections {
		attrs, ok := s.eng.Schema(c)
		if !ok {
			return domain.ErrInvalidCollection.WithDetails(fmt.Sprintf("no collection %q", c))
		}
		for _, a := range attrs {
			rows = append(rows, StructureRow{Collection: c, Attribute: a, Type: types[c][a]})
		}
	}
	return s.env.print(rows)
}

func (s *session) persist(_ []string) error {
	info, err := s.eng.Persist()
	if err != nil {
		return err
	}
	return s.env.print(info)
}

// undo discards the latest snapshot. A shell continues from the snapshot
// before it; unsaved shell changes are dropped with the reload.
func (s *session) undo(_ []string) error {
	info, err := s.eng.Undo()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.env.Err, "discarded snapshot %s\n", info.ID)

	if !s.shell {
		return nil
	}
	if err := s.eng.Reload(); err != nil {
		return err
	}
	if loaded := s.eng.Loaded(); loaded != nil {
		fmt.Fprintf(s.env.Err, "continuing from snapshot %s\n", loaded.ID)
	} else {
		fmt.Fprintln(s.env.Err, "no snapshots left; the store is empty")
	}
	return nil
}

func (s *session) snapshots(_ []string) error {
	infos, err := s.eng.Snapshots()
	if err != nil {
		return err
	}
	if infos == nil {
		infos = []*snapshot.Info{}
	}
	return s.env.print(infos)
}
