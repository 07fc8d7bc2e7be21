package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/config"
	"github.com/yndnr/tokgate/internal/cli/connection"
	"github.com/yndnr/tokgate/internal/cli/output"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/infra/tlsroots"
)

const metadataConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tokgate-cli",
		Usage:   "log in to a tokgate server and manage reconnection tickets",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			ResumeCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[metadataConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tokgate server address (e.g., localhost:3000); defaults to the CLI config",
			EnvVars: []string{"TOKGATE_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml; defaults to the CLI config",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"TOKGATE_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file of CA certificates trusted for wss:// and https:// servers",
			EnvVars: []string{"TOKGATE_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands, with unset values
// filled from the CLI config.
type GlobalFlags struct {
	Server     string
	Output     output.Format
	ConfigPath string
	CAFile     string
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := CLIConfig(c)

	flags := &GlobalFlags{
		Server:     c.String("server"),
		ConfigPath: c.String("config"),
		CAFile:     c.String("ca-file"),
		Verbose:    c.Bool("verbose"),
	}
	if flags.Server == "" {
		flags.Server = cfg.Server
	}

	name := c.String("output")
	if name == "" {
		name = cfg.Output
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	flags.Output = format
	return flags, nil
}

// ConnectionOptions returns the transport options selected by the flags.
func (f *GlobalFlags) ConnectionOptions() ([]connection.Option, error) {
	tlsConfig, err := tlsroots.ClientTLSConfigFromFile(f.CAFile)
	if err != nil {
		return nil, err
	}
	return []connection.Option{connection.WithTLSConfig(tlsConfig)}, nil
}

// CLIConfig returns the config loaded by the Before hook, or the defaults.
func CLIConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metadataConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// render writes data in the selected output format.
func render(c *cli.Context, format output.Format, data any) error {
	return output.NewFormatter(format).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// verbosef prints to stderr when --verbose is set.
func verbosef(c *cli.Context, format string, args ...any) {
	if !c.Bool("verbose") {
		return
	}
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}
