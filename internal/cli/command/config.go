package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/records-go/internal/cli/config"
	"github.com/yndnr/records-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "init",
				Usage:  "Write the effective configuration to the config file",
				Action: configInit,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

// configShow prints YAML unless JSON was asked for; a table cannot show
// nested sections.
func configShow(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Err, "# %s\n", env.ConfigPath)
	if env.Format == output.FormatJSON {
		return env.print(env.Config)
	}
	return (&output.YAMLFormatter{}).Format(env.Out, env.Config)
}

func configInit(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		if _, err := os.Stat(env.ConfigPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", env.ConfigPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := config.Save(env.Config, env.ConfigPath); err != nil {
		return err
	}
	fmt.Fprintf(env.Err, "wrote %s\n", env.ConfigPath)
	return nil
}

func configValidate(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		path = env.ConfigPath
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if _, err := config.Load(path, nil); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "configuration is valid: %s\n", path)
	return nil
}
