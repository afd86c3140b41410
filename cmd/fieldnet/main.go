// Command fieldnet runs, simulates and inspects aggregate-computing devices.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/fieldnet/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "fieldnet:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
