// Package command defines the tokgate-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, shared helpers
//   - login.go: password login and ticket resume
//   - system.go: server status and health
//   - config.go: local CLI configuration
package command
