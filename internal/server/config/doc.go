// Package config provides the tokgate-server configuration.
//
// The package is split by concern:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation, including a probe signature with the
//     configured key material
//   - keys.go: loading signing and verification keys
//   - sanitize.go: masking secrets before the config is logged
//
// Configuration is loaded via internal/infra/confloader and supports
// files, environment variables and command-line flags.
package config
