// Package config holds tokgate-cli's local settings (~/.tokgate/cli.yaml).
//
// The file stores the default server and output format, and the last
// ticket issued to the user so resume works without pasting it back.
package config
