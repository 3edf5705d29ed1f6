package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/records-go/internal/cli/output"
	"github.com/yndnr/records-go/internal/infra/shutdown"
	"github.com/yndnr/records-go/internal/storage/snapshot"
)

// SnapshotsCommand returns the snapshots subcommand group.
func SnapshotsCommand() *cli.Command {
	list, _ := lookupVerb("snapshots")
	listCmd := verbCommand(list)
	listCmd.Name = "list"
	listCmd.Aliases = []string{"ls"}

	return &cli.Command{
		Name:  "snapshots",
		Usage: "Snapshot history",
		Subcommands: []*cli.Command{
			listCmd,
			{
				Name:   "watch",
				Usage:  "Print snapshots as they are written or removed, until interrupted",
				Action: snapshotsWatch,
			},
		},
	}
}

// eventRow is the printed form of a snapshot event.
type eventRow struct {
	Event     string    `json:"event" yaml:"event"`
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Path      string    `json:"path" yaml:"path"`
}

func snapshotsWatch(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	dir := env.SnapshotDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	w, err := snapshot.NewWatcher(dir, snapshot.WithWatcherLogger(env.Logger))
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.OnChange(env.printEvent)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	h := shutdown.NewHandler(time.Second)
	h.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})
	go h.Wait(ctx)

	fmt.Fprintf(env.Err, "watching %s\n", dir)
	runErr := w.Run(ctx)
	return errors.Join(runErr, h.Shutdown())
}

func (env *Env) printEvent(ev snapshot.Event) {
	row := eventRow{
		Event:     string(ev.Kind),
		ID:        ev.Info.ID,
		CreatedAt: ev.Info.CreatedAt,
		Path:      ev.Info.Path,
	}

	if env.Format == output.FormatTable {
		fmt.Fprintf(env.Out, "%-8s %s  %s\n", row.Event, row.ID, row.CreatedAt.Format(time.RFC3339Nano))
		return
	}
	if err := env.print(row); err != nil {
		env.Logger.Warn("snapshot event not printed", "error", err)
	}
}
