// Package main provides the entry point for tokgate-cli.
//
// tokgate-cli logs in to a tokgate server, keeps the issued reconnection
// ticket and redeems it later with resume.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/tokgate/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
