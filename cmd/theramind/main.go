// Package main provides the entry point for the TheraMind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/theramind/theramind/cmd/theramind/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
