package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show CLI configuration",
				Action: configShow,
			},
			{
				Name:      "set",
				Usage:     "Set a CLI configuration value (server, output, username)",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
			{
				Name:   "forget",
				Usage:  "Remove the saved ticket",
				Action: configForget,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	cfg := *CLIConfig(c)
	if cfg.Ticket != "" {
		cfg.Ticket = maskTicket(cfg.Ticket)
	}
	return render(c, flags.Output, map[string]any{
		"path":     flags.ConfigPath,
		"server":   cfg.Server,
		"output":   cfg.Output,
		"username": cfg.Username,
		"ticket":   cfg.Ticket,
	})
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config set KEY VALUE")
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	cfg := CLIConfig(c)
	switch key {
	case "server":
		cfg.Server = value
	case "output":
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
		cfg.Output = value
	case "username":
		cfg.Username = value
	default:
		return fmt.Errorf("unknown key %q (want server, output or username)", key)
	}
	return config.Save(cfg, c.String("config"))
}

func configForget(c *cli.Context) error {
	cfg := CLIConfig(c)
	cfg.Ticket = ""
	return config.Save(cfg, c.String("config"))
}

// maskTicket keeps enough of a ticket to tell tickets apart.
func maskTicket(t string) string {
	if len(t) <= 12 {
		return "****"
	}
	return t[:6] + "..." + t[len(t)-6:]
}
