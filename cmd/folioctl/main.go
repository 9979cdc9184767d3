// Command folioctl manages the Folio database schema and seed data.
package main

import (
	"fmt"
	"os"

	"folio/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
