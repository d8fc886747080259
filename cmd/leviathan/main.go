// Command leviathan evaluates query algebra plans over RDF datasets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/leviathan/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
