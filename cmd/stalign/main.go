// Package main provides the entry point for the stalign CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/stalign/cmd/stalign/commands"
	"github.com/Sumatoshi-tech/stalign/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
