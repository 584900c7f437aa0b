// Command tachyon runs an in-process tick store cluster: a coordinator and
// N workers over a channel transport, fed by the synthetic tick generator.
//
// It exits 0 on normal completion and non-zero on transport failure, block
// decode failure, or a malformed partial result. A query matching no ticks
// is not an error; it prints a "no data" line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "tachyon",
	Short:        "distributed in-memory tick store and query engine",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
