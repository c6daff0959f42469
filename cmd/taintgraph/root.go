package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	exitClean    = 0
	exitFindings = 1
	exitError    = 2
)

var (
	logLevel string

	// set by the analyze command when the run produced findings
	foundIssues bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "taintgraph [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Taintgraph finds attacker-controlled data flowing into dangerous sinks",
		Long: `Taintgraph analyzes a serialized program graph with a set of taint rulesets
and reports every flow from a source to a sink that no sanitizer interrupts.`,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.SetGlobalNormalizationFunc(normalizeFlags)
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// normalizeFlags accepts --format as an alias for --fmt.
func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "format" {
		name = "fmt"
	}
	return pflag.NormalizedName(name)
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if foundIssues {
		return exitFindings
	}
	return exitClean
}
