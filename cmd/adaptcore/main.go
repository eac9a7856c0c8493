// Package main is the entry point for the adaptcore CLI tool.
package main

import (
	"os"

	"github.com/saferun/adaptcore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
