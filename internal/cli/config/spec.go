package config

// CLIConfig is the configuration for tokgate-cli.
type CLIConfig struct {
	Server   string `yaml:"server"`
	Output   string `yaml:"output"` // text, json, yaml
	Username string `yaml:"username,omitempty"`

	// Ticket is the last signed identity the server issued. It can be
	// redeemed once.
	Ticket string `yaml:"ticket,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "localhost:3000",
		Output: "text",
	}
}
