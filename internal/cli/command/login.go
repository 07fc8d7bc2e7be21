package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/cli/connection"
)

const handshakeTimeout = 15 * time.Second

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "requested ticket lifetime (sent as Z-Ttl); server default when unset",
		},
		&cli.BoolFlag{
			Name:  "hold",
			Usage: "keep the connection open until interrupted",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "store the issued ticket in the CLI config for resume",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "send",
			Usage: "message to send after the handshake",
		},
	}
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with a username and password",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "account name; defaults to the CLI config",
				EnvVars: []string{"TOKGATE_USERNAME"},
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "account password",
				EnvVars:  []string{"TOKGATE_PASSWORD"},
				Required: true,
			},
		}, sessionFlags()...),
		Action: loginAction,
	}
}

// ResumeCommand returns the resume command.
func ResumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Reconnect by redeeming a ticket",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "ticket",
				Aliases: []string{"t"},
				Usage:   "ticket to redeem; defaults to the last saved ticket",
				EnvVars: []string{"TOKGATE_TICKET"},
			},
		}, sessionFlags()...),
		Action: resumeAction,
	}
}

func loginAction(c *cli.Context) error {
	username := c.String("username")
	if username == "" {
		username = CLIConfig(c).Username
	}
	if username == "" {
		return errors.New("--username is required")
	}

	return openSession(c, connection.Credentials{
		Username: username,
		Password: c.String("password"),
		TTL:      c.Duration("ttl"),
	}, func(cfg *config.CLIConfig) {
		cfg.Username = username
	})
}

func resumeAction(c *cli.Context) error {
	ticket := c.String("ticket")
	if ticket == "" {
		ticket = CLIConfig(c).Ticket
	}
	if ticket == "" {
		return errors.New("no ticket given and none saved; log in first")
	}

	return openSession(c, connection.Credentials{
		Ticket: ticket,
		TTL:    c.Duration("ttl"),
	}, nil)
}

// openSession performs the handshake, prints the response envelope and
// stores the issued ticket. With --hold it keeps the connection open until
// interrupted; the server registers the ticket once the connection closes.
func openSession(c *cli.Context, creds connection.Credentials, update func(*config.CLIConfig)) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	opts, err := flags.ConnectionOptions()
	if err != nil {
		return err
	}

	correlationID := connection.NewCorrelationID()
	verbosef(c, "connecting to %s (uuid %s)", flags.Server, correlationID)

	ctx, cancel := context.WithTimeout(c.Context, handshakeTimeout)
	client, err := connection.Dial(ctx, flags.Server, correlationID, creds, opts...)
	cancel()
	if client != nil {
		if rerr := render(c, flags.Output, client.Response()); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	defer client.Close()

	if c.Bool("save") {
		cfg := CLIConfig(c)
		cfg.Server = flags.Server
		cfg.Ticket = client.Ticket()
		if update != nil {
			update(cfg)
		}
		if err := config.Save(cfg, flags.ConfigPath); err != nil {
			return fmt.Errorf("save ticket: %w", err)
		}
		verbosef(c, "ticket saved to %s", flags.ConfigPath)
	}

	if msg := c.String("send"); msg != "" {
		if err := client.Send(msg); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	if c.Bool("hold") {
		holdCtx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		verbosef(c, "holding connection, press Ctrl+C to close")
		if err := client.Hold(holdCtx); err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
	}
	return nil
}
