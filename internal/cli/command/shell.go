package command

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/records-go/internal/cli/repl"
	"github.com/yndnr/records-go/internal/infra/shutdown"
	"github.com/yndnr/records-go/internal/storage"
)

// shutdownTimeout bounds closing the engine when the shell ends.
const shutdownTimeout = 10 * time.Second

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Run commands interactively against one open store",
		Action: shellAction,
	}
}

// shellAction keeps one engine open for the whole session. The engine is
// closed, persisting unsaved changes and printing the reports, on exit,
// end of input, SIGINT or SIGTERM.
func shellAction(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	cfg := env.StorageConfig()
	cfg.OnClose = env.printSummary
	eng, err := storage.Open(cfg)
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(c.Context)
	defer stop()

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error { return eng.Close() })
	h.OnShutdown(func(context.Context) error {
		stop()
		return nil
	})
	go h.Wait(ctx)

	history := repl.NewHistory(env.HistoryPath, 0)
	if err := history.Load(); err != nil {
		env.Logger.Warn("shell history not loaded", "path", env.HistoryPath, "error", err)
	}

	s := &session{env: env, eng: eng, shell: true}
	r := repl.New(s.exec,
		repl.WithIO(env.In, env.Out),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(verbNames(), eng.Collections)),
	)

	runErr := r.Run(ctx)

	if err := history.Save(); err != nil {
		env.Logger.Warn("shell history not saved", "path", env.HistoryPath, "error", err)
	}
	return errors.Join(runErr, h.Shutdown())
}
