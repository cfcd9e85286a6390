// Command streamql compiles SQL-like, DataFrame and streaming queries into
// a common AST.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/streamql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "streamql:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
