// Package main provides the tripweaver command line client.
package main

import (
	"os"

	"github.com/tripweaver/tripweaver/internal/cli"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	os.Exit(cli.Execute(Version))
}
