package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/connection"
)

const requestTimeout = 30 * time.Second

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show ticket and connection counts",
				Action: systemGet("/status"),
			},
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemGet("/health"),
			},
			{
				Name:   "ready",
				Usage:  "Check whether the server accepts connections",
				Action: systemGet("/ready"),
			},
		},
	}
}

func systemGet(path string) cli.ActionFunc {
	return func(c *cli.Context) error {
		flags, err := ParseGlobalFlags(c)
		if err != nil {
			return err
		}

		opts, err := flags.ConnectionOptions()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
		defer cancel()

		client := connection.NewHTTPClient(flags.Server, opts...)
		verbosef(c, "GET %s%s", client.BaseURL(), path)
		resp, err := client.Get(ctx, path)
		if err != nil {
			return err
		}

		var data map[string]any
		if err := connection.ParseResponse(resp, &data); err != nil {
			return err
		}
		return render(c, flags.Output, data)
	}
}
