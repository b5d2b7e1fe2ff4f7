// Command zigdag drives the build pipeline: parse and validate a JSON
// graph model, generate its specialized evaluator, cross-compile the
// shared library, and emit the typed Python binding package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openpricing/zigdag/internal/config"
	"github.com/openpricing/zigdag/log"
)

func main() {
	cfg := loadConfigOrExit()

	root := &cobra.Command{
		Use:   "zigdag",
		Short: "Compile a JSON DAG model into a specialized shared library and Python binding",
	}

	var verbose bool
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(log.LevelDebug)
		}
	})

	root.AddCommand(
		buildCmd(cfg),
		checkCmd(),
		testCmd(),
		runCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigOrExit reads .env overlay settings up front so build defaults
// (output directory, cross-compile targets) come from the environment
// instead of being hardcoded into the flag definitions.
func loadConfigOrExit() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
