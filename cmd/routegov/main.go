// Command routegov drives the routing API usage governor from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/LavishGent/routegov/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
